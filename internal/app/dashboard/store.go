package dashboard

import (
	"log/slog"

	authapp "github.com/Apurer/admin-dashboard/internal/domains/auth/application"
	uiapp "github.com/Apurer/admin-dashboard/internal/domains/ui/application"
	userapp "github.com/Apurer/admin-dashboard/internal/domains/users/application"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// State is the process-wide state tree. Each slice is reduced independently;
// there are no cross-slice transactions.
type State struct {
	Auth  authapp.State
	Users userapp.State
	UI    uiapp.State
}

// InitialState has the session loading, an empty first users page, and no
// feedback showing.
func InitialState() State {
	return State{
		Auth:  authapp.InitialState(),
		Users: userapp.InitialState(),
		UI:    uiapp.InitialState(),
	}
}

// RootReducer hands every action to each slice reducer.
func RootReducer(users userapp.Reducer) state.Reducer[State] {
	return func(s State, action state.Action) State {
		s.Auth = authapp.Reduce(s.Auth, action)
		s.Users = users.Reduce(s.Users, action)
		s.UI = uiapp.Reduce(s.UI, action)
		return s
	}
}

// NewStore builds the store with the action logger installed.
func NewStore(cfg Config, logger *slog.Logger, mw ...state.Middleware[State]) *state.Store[State] {
	middleware := append([]state.Middleware[State]{state.Logger[State](logger)}, mw...)
	return state.New(
		RootReducer(userapp.Reducer{DiscardStale: cfg.DiscardStale}),
		InitialState(),
		state.WithMiddleware(middleware...),
	)
}

// Slice getters used by the services.

func (a *App) authState() authapp.State { return a.Store.State().Auth }

func (a *App) usersState() userapp.State { return a.Store.State().Users }

func (a *App) uiState() uiapp.State { return a.Store.State().UI }
