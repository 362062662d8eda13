package domain

import (
	"strings"

	"github.com/Apurer/admin-dashboard/internal/shared/validation"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Roles known to the dashboard.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleGuest     = "guest"
)

// DefaultRole is applied when the backend omits a role.
const DefaultRole = RoleGuest

// Identity is the signed-in user as reported by the session endpoint.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	// HasToken marks identities resolved through a stored bearer token.
	HasToken bool `json:"-"`
}

// DisplayName prefers the full name, then first/last, then the email.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(i.FirstName + " " + i.LastName); name != "" {
		return name
	}
	return i.Email
}

// WithDefaultRole returns a copy whose empty role is replaced by fallback.
func (i Identity) WithDefaultRole(fallback string) Identity {
	if strings.TrimSpace(i.Role) == "" {
		i.Role = fallback
	}
	return i
}

// Credentials is the sign-in form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate checks the form before it is sent.
func (c Credentials) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	return validation.Struct(c)
}

// SignUpForm is the registration form.
type SignUpForm struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// Validate checks the form before it is sent.
func (f SignUpForm) Validate() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	return validation.Struct(f)
}

// SessionResult is the backend's answer to the who-am-I call.
type SessionResult struct {
	Success bool
	User    *Identity
}

// LoginResult is the backend's answer to a sign-in or registration.
type LoginResult struct {
	Success bool
	Token   string
	Message string
}

// PasswordRecovery asks the backend to mail a reset link.
type PasswordRecovery struct {
	Email string `json:"email" validate:"required,email"`
}

// Validate checks the form before it is sent.
func (r PasswordRecovery) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.Struct(r)
}

// PasswordReset sets a new password using the token from a reset link.
type PasswordReset struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate checks the form before it is sent.
func (r PasswordReset) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	return validation.Struct(r)
}

// EmailVerification confirms an address with the token from a verification
// mail.
type EmailVerification struct {
	Token string `json:"token" validate:"required"`
}

// Validate checks the form before it is sent.
func (v EmailVerification) Validate() error {
	v.Token = strings.TrimSpace(v.Token)
	return validation.Struct(v)
}

// AccountResult is the backend's answer to an account maintenance request.
type AccountResult struct {
	Success bool
	Message string
}
