package domain

import "time"

// User is the dashboard operator as returned by the backend's auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      *RoleRef  `json:"role,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=60"`
	LastName  string `json:"lastName" validate:"required,max=60"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the password step's answer. The token in it is not yet a
// usable session: the OTP step has to succeed first.
type LoginResponse struct {
	Token       string `json:"token"`
	User        *User  `json:"user"`
	RequiresOTP *bool  `json:"requiresOtp,omitempty"`
}

type VerifyOTPRequest struct {
	Code string `json:"code" validate:"required,numeric,min=4,max=8"`
}

// VerifyOTPResponse may carry a fresh token; when it does not, the pending
// token from the password step is promoted as is.
type VerifyOTPResponse struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type UserInput struct {
	FirstName string `json:"firstName,omitempty" validate:"required,max=60"`
	LastName  string `json:"lastName,omitempty" validate:"required,max=60"`
	Email     string `json:"email,omitempty" validate:"required,email"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
	RoleID    string `json:"roleId,omitempty" validate:"required"`
}
