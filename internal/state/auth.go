package state

import "tour-admin-server/internal/domain"

// AuthState is one of Anonymous, PendingOTP or Authenticated. A session is
// never Authenticated without having gone through PendingOTP first, except
// when restored from an already verified cookie.
type AuthState interface {
	isAuthState()
}

type Anonymous struct{}

// PendingOTP holds the credentials returned by the password step.
type PendingOTP struct {
	Token string
	User  *domain.User
}

type Authenticated struct {
	Token string
	User  *domain.User
}

func (Anonymous) isAuthState()     {}
func (PendingOTP) isAuthState()    {}
func (Authenticated) isAuthState() {}

type PasswordVerified struct {
	Token string
	User  *domain.User
}

// OTPVerified may carry a new token; an empty one keeps the pending token.
type OTPVerified struct {
	Token string
	User  *domain.User
}

type LoggedOut struct{}

// SessionRestored rebuilds auth state from a verified session cookie.
type SessionRestored struct {
	Token string
	User  *domain.User
}

func (PasswordVerified) isAction() {}
func (OTPVerified) isAction()      {}
func (LoggedOut) isAction()        {}
func (SessionRestored) isAction()  {}

func ReduceAuth(s AuthState, action Action) AuthState {
	if s == nil {
		s = Anonymous{}
	}

	switch a := action.(type) {
	case PasswordVerified:
		if a.Token == "" {
			return s
		}
		return PendingOTP{Token: a.Token, User: a.User}

	case OTPVerified:
		pending, ok := s.(PendingOTP)
		if !ok {
			return s
		}
		next := Authenticated{Token: pending.Token, User: pending.User}
		if a.Token != "" {
			next.Token = a.Token
		}
		if a.User != nil {
			next.User = a.User
		}
		return next

	case LoggedOut:
		return Anonymous{}

	case SessionRestored:
		if a.Token == "" {
			return Anonymous{}
		}
		user := a.User
		if current, ok := s.(Authenticated); ok && user == nil && current.Token == a.Token {
			user = current.User
		}
		return Authenticated{Token: a.Token, User: user}
	}

	return s
}

// AuthView is the flat shape the dashboard front end reads.
type AuthView struct {
	User            *domain.User `json:"user"`
	Token           *string      `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	PendingToken    *string      `json:"pendingToken"`
	PendingUser     *domain.User `json:"pendingUser"`
	RequiresOTP     bool         `json:"requiresOtp"`
}

func View(s AuthState) AuthView {
	switch a := s.(type) {
	case PendingOTP:
		token := a.Token
		return AuthView{PendingToken: &token, PendingUser: a.User, RequiresOTP: true}
	case Authenticated:
		token := a.Token
		return AuthView{User: a.User, Token: &token, IsAuthenticated: true}
	}
	return AuthView{}
}
