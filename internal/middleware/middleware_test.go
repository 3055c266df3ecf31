package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tour-admin-server/internal/config"
	"tour-admin-server/internal/session"
	"tour-admin-server/pkg/jwt"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "jwt-secret"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var testLocale = config.LocaleConfig{
	DefaultLanguage:    "es",
	SupportedLanguages: []string{"es", "en"},
	DefaultCurrency:    "MXN",
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(config.SessionConfig{Secret: "cookie-secret", MaxAge: time.Hour})
	require.NoError(t, err)
	return m
}

// sessionCookie builds a cookie holding token as authToken.
func sessionCookie(t *testing.T, m *session.Manager, token string) *http.Cookie {
	t.Helper()
	s, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	s.SetAuthToken(token)

	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	return rec.Result().Cookies()[0]
}

func guarded(m *session.Manager) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	logger := quietLogger()
	return SessionMiddleware(m, testLocale, logger)(GuardMiddleware(jwt.NewVerifier(testSecret), logger)(ok))
}

func TestGuardMiddleware(t *testing.T) {
	m := newManager(t)

	valid, err := jwt.GenerateToken("u1", time.Hour, testSecret)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken("u1", -time.Minute, testSecret)
	require.NoError(t, err)
	forged, err := jwt.GenerateToken("u1", time.Hour, "other-secret")
	require.NoError(t, err)

	tests := []struct {
		name         string
		method       string
		path         string
		token        string
		wantStatus   int
		wantLocation string
	}{
		{"protected without session", http.MethodGet, "/tours", "", http.StatusFound, "/"},
		{"protected with valid token", http.MethodGet, "/tours", valid, http.StatusOK, ""},
		{"protected with expired token", http.MethodGet, "/tours", expired, http.StatusFound, "/"},
		{"protected with forged token", http.MethodGet, "/users", forged, http.StatusFound, "/"},
		{"protected with garbage token", http.MethodGet, "/tours", "not-a-jwt", http.StatusFound, "/"},
		{"protected action redirects with see other", http.MethodPost, "/tours", "", http.StatusSeeOther, "/"},
		{"protected api answers 401", http.MethodGet, "/api/price-range", "", http.StatusUnauthorized, ""},
		{"login page while signed in", http.MethodGet, "/", valid, http.StatusFound, "/dashboard"},
		{"login page anonymous", http.MethodGet, "/", "", http.StatusOK, ""},
		{"otp page while signed in", http.MethodPost, "/verify-otp", valid, http.StatusSeeOther, "/dashboard"},
		{"register page with expired token", http.MethodGet, "/register", expired, http.StatusOK, ""},
		{"exempt while signed in", http.MethodGet, "/newPassword", valid, http.StatusOK, ""},
		{"exempt anonymous", http.MethodGet, "/resetPassword", "", http.StatusOK, ""},
		{"health", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"trailing slash", http.MethodGet, "/dashboard/", "", http.StatusFound, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(sessionCookie(t, m, tt.token))
			}
			rec := httptest.NewRecorder()

			guarded(m).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestGuardMiddleware_ClearsStaleToken(t *testing.T) {
	m := newManager(t)
	expired, err := jwt.GenerateToken("u1", -time.Minute, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/tours", nil)
	req.AddCookie(sessionCookie(t, m, expired))
	rec := httptest.NewRecorder()

	guarded(m).ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	s, err := m.Load(next)
	require.NoError(t, err)
	assert.Empty(t, s.AuthToken())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, RoutePublicOnly, Classify("/"))
	assert.Equal(t, RoutePublicOnly, Classify("/verify-otp/"))
	assert.Equal(t, RouteExempt, Classify("/newPassword"))
	assert.Equal(t, RouteInfrastructure, Classify("/ws"))
	assert.Equal(t, RouteProtected, Classify("/terms-conditions"))
}

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	var seenID string
	h := LoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r)
		setUserID(r, "u42")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tours?page=2", nil))

	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"warning"`)
	assert.Contains(t, buf.String(), `"user":"u42"`)
	assert.Contains(t, buf.String(), `"query":"page=2"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware("https://admin.example.com", "GET,POST", "Content-Type")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/tours", nil)
	preflight.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	foreign := httptest.NewRequest(http.MethodGet, "/tours", nil)
	foreign.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, foreign)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionMiddleware_Locale(t *testing.T) {
	m := newManager(t)
	var seen string
	h := SessionMiddleware(m, testLocale, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := session.FromContext(r.Context())
		require.NoError(t, err)
		seen = s.ID()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
}
