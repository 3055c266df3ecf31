package service

import (
	"context"
	"net/http"
	"testing"

	"tour-admin-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_TwoStepLogin(t *testing.T) {
	backend, factory := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			w.Write([]byte(`{"data":{"token":"pending-abc","user":{"id":"u1","email":"ana@example.com"},"requiresOtp":true}}`))
		case "/api/auth/verify-otp":
			w.Write([]byte(`{"user":{"id":"u1","email":"ana@example.com"}}`))
		}
	})
	svc := NewAuthService(factory, quietLogger())
	ctx := context.Background()

	login, errBody := svc.Login(ctx, domain.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.Nil(t, errBody)
	assert.Equal(t, "pending-abc", login.Token)
	assert.Equal(t, "u1", login.User.ID)

	verified, errBody := svc.VerifyOTP(ctx, login.Token, domain.VerifyOTPRequest{Code: "123456"})
	require.Nil(t, errBody)
	assert.Equal(t, "pending-abc", verified.Token, "pending token is promoted when no new one is issued")

	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].Auth)
	assert.Equal(t, "Bearer pending-abc", calls[1].Auth)
	assert.JSONEq(t, `{"code":"123456"}`, calls[1].Body)
}

func TestAuthService_VerifyOTPRejections(t *testing.T) {
	backend, factory := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid code"}`))
	})
	svc := NewAuthService(factory, quietLogger())

	_, errBody := svc.VerifyOTP(context.Background(), "", domain.VerifyOTPRequest{Code: "1234"})
	require.NotNil(t, errBody)
	assert.Equal(t, http.StatusUnauthorized, errBody.Status)

	_, errBody = svc.VerifyOTP(context.Background(), "pending", domain.VerifyOTPRequest{Code: "12ab"})
	require.NotNil(t, errBody)
	assert.Equal(t, http.StatusBadRequest, errBody.Status)
	assert.Empty(t, backend.Calls())

	_, errBody = svc.VerifyOTP(context.Background(), "pending", domain.VerifyOTPRequest{Code: "123456"})
	require.NotNil(t, errBody)
	assert.Equal(t, http.StatusUnauthorized, errBody.Status)
	assert.Equal(t, "invalid code", errBody.Message)
}

func TestAuthService_LogoutToleratesUnauthorized(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"expired token", http.StatusUnauthorized, false},
		{"backend down", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, factory := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{}`))
			})

			errBody := NewAuthService(factory, quietLogger()).Logout(context.Background(), "tok")
			assert.Equal(t, tt.wantErr, errBody != nil)
		})
	}
}

func TestAuthService_AccountRecovery(t *testing.T) {
	tests := []struct {
		name       string
		call       func(svc *AuthService) Result
		wantStatus int
		wantPath   string
	}{
		{
			name: "register",
			call: func(svc *AuthService) Result {
				return svc.Register(context.Background(), domain.RegisterRequest{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Password: "longenough"})
			},
			wantStatus: http.StatusOK,
			wantPath:   "/api/auth/register",
		},
		{
			name: "register with short password",
			call: func(svc *AuthService) Result {
				return svc.Register(context.Background(), domain.RegisterRequest{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Password: "short"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "forgot password",
			call: func(svc *AuthService) Result {
				return svc.ForgotPassword(context.Background(), domain.ForgotPasswordRequest{Email: "ana@example.com"})
			},
			wantStatus: http.StatusOK,
			wantPath:   "/api/auth/forgot-password",
		},
		{
			name: "reset password without token",
			call: func(svc *AuthService) Result {
				return svc.ResetPassword(context.Background(), domain.ResetPasswordRequest{Password: "longenough"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "reset password",
			call: func(svc *AuthService) Result {
				return svc.ResetPassword(context.Background(), domain.ResetPasswordRequest{Token: "emailed", Password: "longenough"})
			},
			wantStatus: http.StatusOK,
			wantPath:   "/api/auth/reset-password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, factory := newBackend(t, nil)

			res := tt.call(NewAuthService(factory, quietLogger()))
			assert.Equal(t, tt.wantStatus, res.Status())

			calls := backend.Calls()
			if tt.wantPath == "" {
				assert.Empty(t, calls)
				return
			}
			require.Len(t, calls, 1)
			assert.Equal(t, http.MethodPost, calls[0].Method)
			assert.Equal(t, tt.wantPath, calls[0].Path)
		})
	}
}
