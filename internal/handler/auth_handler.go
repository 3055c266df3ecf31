package handler

import (
	"net/http"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/middleware"
	"tour-admin-server/internal/service"
	"tour-admin-server/internal/state"
	"tour-admin-server/internal/websocket"
	"tour-admin-server/pkg/response"

	"github.com/sirupsen/logrus"
)

const verifyOTPPath = "/verify-otp"

type AuthHandler struct {
	authService *service.AuthService
	registry    *state.Registry
	wsManager   *websocket.Manager
	logger      *logrus.Logger
}

func NewAuthHandler(authService *service.AuthService, registry *state.Registry, wsManager *websocket.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		registry:    registry,
		wsManager:   wsManager,
		logger:      logger,
	}
}

type AuthData struct {
	Auth       state.AuthView `json:"auth"`
	Language   string         `json:"language"`
	RedirectTo string         `json:"redirectTo,omitempty"`
	Token      string         `json:"token,omitempty"`
}

// Page serves the data behind the public auth pages.
func (h *AuthHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	s := syncAuth(storeFor(h.registry, sess), sess)
	saveSession(w, r, sess, h.logger)
	response.Success(w, AuthData{
		Auth:     state.View(s.Auth),
		Language: s.UI.Language,
		Token:    r.URL.Query().Get("token"),
	})
}

// Login runs the password step. The session only ever holds pending
// credentials afterwards; the OTP step promotes them.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	out, errBody := h.authService.Login(r.Context(), domain.LoginRequest{
		Email:    p.Get("email"),
		Password: p.Get("password"),
	})
	if errBody != nil {
		writeResult(w, service.Result{Error: errBody})
		return
	}

	if err := sess.SetPending(out.Token, out.User); err != nil {
		h.logger.WithError(err).Error("failed to store pending login")
		response.InternalError(w, "Could not store login")
		return
	}
	s := h.registry.Dispatch(sess.ID(), state.PasswordVerified{Token: out.Token, User: out.User})
	saveSession(w, r, sess, h.logger)

	response.Success(w, AuthData{
		Auth:       state.View(s.Auth),
		Language:   s.UI.Language,
		RedirectTo: verifyOTPPath,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	store := h.registry.Get(sess.ID())
	syncAuth(store, sess)

	out, errBody := h.authService.VerifyOTP(r.Context(), sess.PendingToken(), domain.VerifyOTPRequest{Code: p.Get("code")})
	if errBody != nil {
		writeResult(w, service.Result{Error: errBody})
		return
	}

	user := out.User
	if user == nil {
		user = sess.PendingUser()
	}
	sess.SetAuthToken(out.Token)
	sess.ClearPending()
	s := store.Dispatch(state.OTPVerified{Token: out.Token, User: user})
	saveSession(w, r, sess, h.logger)

	response.Success(w, AuthData{
		Auth:       state.View(s.Auth),
		Language:   s.UI.Language,
		RedirectTo: middleware.DashboardPath,
	})
}

// Logout always clears local state, whatever the backend answers, and tells
// every open tab of the session to reload.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	if errBody := h.authService.Logout(r.Context(), sess.AuthToken()); errBody != nil {
		h.logger.WithField("status", errBody.Status).Warn("backend logout failed, clearing session anyway")
	}

	sid := sess.ID()
	h.registry.Dispatch(sid, state.LoggedOut{})
	if msg, err := websocket.NewMessage(websocket.TypeReload, websocket.ReloadPayload{Reason: "logout", Location: middleware.LoginPath}); err == nil {
		if err := h.wsManager.BroadcastToSession(sid, msg); err != nil {
			h.logger.WithError(err).Debug("reload broadcast failed")
		}
	}
	h.registry.Remove(sid)

	if err := sess.Destroy(w, r); err != nil {
		h.logger.WithError(err).Error("failed to destroy session")
	}
	response.Redirect(w, r, middleware.LoginPath)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res := h.authService.Register(r.Context(), domain.RegisterRequest{
		FirstName: p.Get("firstName"),
		LastName:  p.Get("lastName"),
		Email:     p.Get("email"),
		Password:  p.Get("password"),
	})
	if res.Error != nil {
		writeResult(w, res)
		return
	}
	response.Created(w, res.Data)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	res := h.authService.ForgotPassword(r.Context(), domain.ForgotPasswordRequest{Email: p.Get("email")})
	if res.Error != nil {
		writeResult(w, res)
		return
	}
	response.Message(w, "If the account exists, a reset link is on its way")
}

// ResetPassword takes the emailed token from the form, or from the link's
// query string when the form does not repeat it.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	token := p.Get("token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	res := h.authService.ResetPassword(r.Context(), domain.ResetPasswordRequest{
		Token:    token,
		Password: p.Get("password"),
	})
	if res.Success {
		res.Data = AuthData{RedirectTo: middleware.LoginPath}
	}
	writeResult(w, res)
}
