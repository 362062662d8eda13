package application

import (
	"github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// Async operation types owned by the auth slice.
const (
	OpCheckSession = "auth/checkSession"
	OpSignIn       = "auth/signIn"
	OpSignUp       = "auth/signUp"
	OpSignOut      = "auth/signOut"

	OpForgotPassword = "auth/forgotPassword"
	OpResetPassword  = "auth/resetPassword"
	OpVerifyEmail    = "auth/verifyEmail"
)

// State is the session slice. User is nil unless Status is Authenticated.
type State struct {
	User   *domain.Identity
	Status domain.Status
	Error  string

	latestCheck uint64
}

// InitialState is the session at application start.
func InitialState() State {
	return State{Status: domain.StatusLoading}
}

// LatestCheck is the request id of the most recently issued session check.
func (s State) LatestCheck() uint64 { return s.latestCheck }

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool { return s.Status == domain.StatusAuthenticated && s.User != nil }

// SessionResolved settles the session to an identity or to signed out. A
// resolution older than the latest issued check is ignored.
type SessionResolved struct {
	RequestID uint64
	User      *domain.Identity
}

func (SessionResolved) ActionType() string { return OpCheckSession + "/resolved" }

// SignedOut forces the session to Unauthenticated.
type SignedOut struct{}

func (SignedOut) ActionType() string { return OpSignOut + "/done" }

// Reduce applies auth actions.
func Reduce(s State, action state.Action) State {
	switch a := action.(type) {
	case state.Pending:
		switch a.Type {
		case OpCheckSession:
			if a.RequestID > s.latestCheck {
				s.latestCheck = a.RequestID
			}
			if s.Status != domain.StatusAuthenticated {
				s.Status = domain.StatusLoading
				s.User = nil
			}
		case OpSignIn, OpSignUp, OpForgotPassword, OpResetPassword, OpVerifyEmail:
			s.Error = ""
		}
	case SessionResolved:
		if a.RequestID < s.latestCheck {
			return s
		}
		if a.User == nil {
			s.User = nil
			s.Status = domain.StatusUnauthenticated
			return s
		}
		user := *a.User
		s.User = &user
		s.Status = domain.StatusAuthenticated
		s.Error = ""
	case state.Rejected:
		switch a.Type {
		case OpSignIn, OpSignUp:
			s.Error = errorText(a.Err)
			if s.User == nil {
				s.Status = domain.StatusUnauthenticated
			}
		case OpForgotPassword, OpResetPassword, OpVerifyEmail:
			s.Error = errorText(a.Err)
		}
	case SignedOut:
		s.User = nil
		s.Status = domain.StatusUnauthenticated
		s.Error = ""
	}
	return s
}

// Selectors.

func SelectUser(s State) *domain.Identity { return s.User }

func SelectStatus(s State) domain.Status { return s.Status }

func SelectAuthenticated(s State) bool { return s.Authenticated() }

func SelectLoading(s State) bool { return s.Status == domain.StatusLoading }
