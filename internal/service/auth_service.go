package service

import (
	"context"
	"encoding/json"
	"net/http"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const authPath = "/api/auth"

// AuthService talks to the backend's auth endpoints. It keeps no state of
// its own: handlers move the returned tokens into the session store.
type AuthService struct {
	factory  *restclient.Factory
	validate *validator.Validate
	logger   *logrus.Entry
}

func NewAuthService(factory *restclient.Factory, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AuthService{
		factory:  factory,
		validate: newValidator(),
		logger:   logger.WithField("component", "auth"),
	}
}

// Login runs the password step. A successful answer only yields pending
// credentials; the caller must not treat them as an authenticated session.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, *ErrorBody) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	res := s.factory.Resource(authPath, "").Do(ctx, http.MethodPost, "login", req, localeOptions(ctx)...)
	if !res.OK() {
		return nil, remoteError(res.Error)
	}

	var out domain.LoginResponse
	if err := json.Unmarshal(unwrapData(res.Data), &out); err != nil || out.Token == "" {
		return nil, &ErrorBody{Status: http.StatusBadGateway, Message: "login response carried no token"}
	}
	return &out, nil
}

// VerifyOTP sends the code with the pending token as bearer. When the backend
// does not mint a new token the pending one is promoted.
func (s *AuthService) VerifyOTP(ctx context.Context, pendingToken string, req domain.VerifyOTPRequest) (*domain.VerifyOTPResponse, *ErrorBody) {
	if pendingToken == "" {
		return nil, &ErrorBody{Status: http.StatusUnauthorized, Message: "no pending login"}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	res := s.factory.Resource(authPath, pendingToken).Do(ctx, http.MethodPost, "verify-otp", req, localeOptions(ctx)...)
	if !res.OK() {
		return nil, remoteError(res.Error)
	}

	var out domain.VerifyOTPResponse
	if err := json.Unmarshal(unwrapData(res.Data), &out); err != nil {
		s.logger.WithError(err).Debug("verify-otp response not decodable, promoting pending token")
	}
	if out.Token == "" {
		out.Token = pendingToken
	}
	return &out, nil
}

// Logout notifies the backend. Callers clear local state regardless of the
// outcome; a 401 here just means the token had already expired.
func (s *AuthService) Logout(ctx context.Context, token string) *ErrorBody {
	if token == "" {
		return nil
	}

	res := s.factory.Resource(authPath, token).Do(ctx, http.MethodPost, "logout", nil, localeOptions(ctx)...)
	if res.OK() || res.Error.IsUnauthorized() {
		return nil
	}
	s.logger.WithField("kind", res.Error.Kind).Warn("backend logout failed")
	return remoteError(res.Error)
}

func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) Result {
	if err := s.validate.Struct(req); err != nil {
		return Result{Error: validationError(err)}
	}
	return fromRemote(s.factory.Resource(authPath, "").Do(ctx, http.MethodPost, "register", req, localeOptions(ctx)...))
}

func (s *AuthService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) Result {
	if err := s.validate.Struct(req); err != nil {
		return Result{Error: validationError(err)}
	}
	return fromRemote(s.factory.Resource(authPath, "").Do(ctx, http.MethodPost, "forgot-password", req, localeOptions(ctx)...))
}

func (s *AuthService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) Result {
	if err := s.validate.Struct(req); err != nil {
		return Result{Error: validationError(err)}
	}
	return fromRemote(s.factory.Resource(authPath, "").Do(ctx, http.MethodPost, "reset-password", req, localeOptions(ctx)...))
}

// unwrapData returns the inner object of a {"data": {...}} envelope, or raw
// unchanged.
func unwrapData(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		return envelope.Data
	}
	return raw
}
