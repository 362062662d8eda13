package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Apurer/admin-dashboard/internal/shared/validation"
)

var ErrEmptyID = errors.New("user id is required")

// Account statuses known to the dashboard.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

// Roles assignable from the user form.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleGuest     = "guest"
)

// ID is the backend's opaque user identifier. Numeric ids are accepted and
// kept in their decimal form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// ParseID trims raw and rejects empty ids.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyID
	}
	return ID(raw), nil
}

// User is a managed account as listed by the backend.
type User struct {
	ID        ID         `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role,omitempty"`
	Status    string     `json:"status,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Input is the create/edit form.
type Input struct {
	Name   string `json:"name" validate:"min=2"`
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required"`
	Status string `json:"status" validate:"required"`
	Phone  string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// NewInput returns a form preset like the create dialog: role user, active.
func NewInput(name, email string) Input {
	return Input{Name: name, Email: email, Role: RoleUser, Status: StatusActive}
}

// Normalize trims every field.
func (in Input) Normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	in.Status = strings.TrimSpace(in.Status)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// Validate checks the form before it is sent.
func (in Input) Validate() error {
	return validation.Struct(in.Normalize())
}

// FromUser prefills the edit form.
func FromUser(u User) Input {
	return Input{Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status, Phone: u.Phone}
}

// StatusChange moves a user to another account status.
type StatusChange struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended pending"`
}

// Validate checks the form before it is sent.
func (c StatusChange) Validate() error {
	c.Status = strings.TrimSpace(c.Status)
	return validation.Struct(c)
}

// Stats counts the users matching a search, overall and per role and status.
type Stats struct {
	Total    int            `json:"total"`
	ByRole   map[string]int `json:"byRole,omitempty"`
	ByStatus map[string]int `json:"byStatus,omitempty"`
}

// Page is one server-sized page of users plus the total match count.
type Page struct {
	List  []User
	Total int
}
