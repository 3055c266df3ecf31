package middleware

import (
	"net/http"
	"strings"

	"tour-admin-server/internal/session"
	"tour-admin-server/pkg/jwt"
	"tour-admin-server/pkg/response"

	"github.com/sirupsen/logrus"
)

type RouteClass int

const (
	// RouteProtected requires a valid, unexpired session token.
	RouteProtected RouteClass = iota
	// RoutePublicOnly is for anonymous visitors; signed in users are sent
	// to the dashboard.
	RoutePublicOnly
	// RouteExempt is reachable whatever the session holds.
	RouteExempt
	// RouteInfrastructure skips the guard entirely.
	RouteInfrastructure
)

const (
	LoginPath     = "/"
	DashboardPath = "/dashboard"
)

var routeClasses = map[string]RouteClass{
	"/":               RoutePublicOnly,
	"/register":       RoutePublicOnly,
	"/verify-otp":     RoutePublicOnly,
	"/forgotPassword": RoutePublicOnly,

	"/newPassword":   RouteExempt,
	"/resetPassword": RouteExempt,
	"/logout":        RouteExempt,
	"/api/bootstrap": RouteExempt,
	"/api/state":     RouteExempt,
	"/api/language":  RouteExempt,
	"/api/ui/modal":  RouteExempt,

	"/health": RouteInfrastructure,
	"/ws":     RouteInfrastructure,
}

func Classify(path string) RouteClass {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if class, ok := routeClasses[path]; ok {
		return class
	}
	return RouteProtected
}

// GuardMiddleware enforces the route classes. A token that no longer
// verifies is dropped from the session before redirecting to the login page.
func GuardMiddleware(verifier *jwt.Verifier, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := Classify(r.URL.Path)
			if class == RouteInfrastructure || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := session.FromContext(r.Context())
			if err != nil {
				response.InternalError(w, "Session unavailable")
				return
			}

			authenticated := false
			if token := sess.AuthToken(); token != "" {
				claims, err := verifier.Verify(token)
				if err != nil {
					logger.WithError(err).WithField("request_id", GetRequestID(r)).Info("dropping invalid session token")
					sess.ClearAuth()
					if err := sess.Save(w, r); err != nil {
						logger.WithError(err).Error("failed to save session")
					}
				} else {
					authenticated = true
					setUserID(r, claims.SubjectID())
				}
			}

			switch class {
			case RoutePublicOnly:
				if authenticated {
					response.Redirect(w, r, DashboardPath)
					return
				}
			case RouteProtected:
				if !authenticated {
					if strings.HasPrefix(r.URL.Path, "/api/") {
						response.Unauthorized(w, "Authentication required")
						return
					}
					response.Redirect(w, r, LoginPath)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
