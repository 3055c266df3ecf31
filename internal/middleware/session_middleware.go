package middleware

import (
	"net/http"

	"tour-admin-server/internal/config"
	"tour-admin-server/internal/service"
	"tour-admin-server/internal/session"

	"github.com/sirupsen/logrus"
)

// SessionMiddleware loads the cookie session into the request context along
// with the locale every backend call should carry.
func SessionMiddleware(manager *session.Manager, locale config.LocaleConfig, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := manager.Load(r)
			if err != nil {
				logger.WithError(err).WithField("request_id", GetRequestID(r)).Debug("session cookie rejected, starting a new session")
			}

			language := sess.Language()
			if !supported(language, locale.SupportedLanguages) {
				language = locale.DefaultLanguage
			}

			ctx := session.NewContext(r.Context(), sess)
			ctx = service.WithLocale(ctx, language, locale.DefaultCurrency)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func supported(language string, languages []string) bool {
	if language == "" {
		return false
	}
	for _, l := range languages {
		if l == language {
			return true
		}
	}
	return false
}
