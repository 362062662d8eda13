package application

import (
	"github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// State is the UI feedback slice.
type State struct {
	SidebarOpen   bool
	Snackbar      domain.Snackbar
	ConfirmDialog domain.ConfirmDialog
	Notifications []domain.Notification
}

// InitialState has the sidebar open and nothing showing.
func InitialState() State {
	return State{
		SidebarOpen:   true,
		Snackbar:      domain.Snackbar{Severity: domain.SeverityInfo},
		ConfirmDialog: domain.ClosedDialog(),
		Notifications: []domain.Notification{},
	}
}

type (
	ShowSnackbar struct {
		Message  string
		Severity domain.Severity
	}
	HideSnackbar      struct{}
	ShowConfirmDialog struct {
		Options  domain.ConfirmOptions
		ActionID string
	}
	HideConfirmDialog  struct{}
	AddNotification    struct{ Notification domain.Notification }
	RemoveNotification struct{ ID string }
	ClearNotifications struct{}
	ToggleSidebar      struct{}
	SetSidebarOpen     struct{ Open bool }
)

func (ShowSnackbar) ActionType() string       { return "ui/showSnackbar" }
func (HideSnackbar) ActionType() string       { return "ui/hideSnackbar" }
func (ShowConfirmDialog) ActionType() string  { return "ui/showConfirmDialog" }
func (HideConfirmDialog) ActionType() string  { return "ui/hideConfirmDialog" }
func (AddNotification) ActionType() string    { return "ui/addNotification" }
func (RemoveNotification) ActionType() string { return "ui/removeNotification" }
func (ClearNotifications) ActionType() string { return "ui/clearNotifications" }
func (ToggleSidebar) ActionType() string      { return "ui/toggleSidebar" }
func (SetSidebarOpen) ActionType() string     { return "ui/setSidebarOpen" }

// Reduce applies UI feedback actions.
func Reduce(s State, action state.Action) State {
	switch a := action.(type) {
	case ShowSnackbar:
		severity := a.Severity
		if severity == "" {
			severity = domain.SeverityInfo
		}
		s.Snackbar = domain.Snackbar{Open: true, Message: a.Message, Severity: severity}
	case HideSnackbar:
		s.Snackbar.Open = false
	case ShowConfirmDialog:
		opts := a.Options.WithDefaults()
		s.ConfirmDialog = domain.ConfirmDialog{
			Open:         true,
			Title:        opts.Title,
			Message:      opts.Message,
			ActionID:     a.ActionID,
			ConfirmText:  opts.ConfirmText,
			CancelText:   opts.CancelText,
			ConfirmColor: opts.ConfirmColor,
		}
	case HideConfirmDialog:
		s.ConfirmDialog.Open = false
	case AddNotification:
		list := make([]domain.Notification, 0, len(s.Notifications)+1)
		list = append(list, s.Notifications...)
		s.Notifications = append(list, a.Notification)
	case RemoveNotification:
		list := make([]domain.Notification, 0, len(s.Notifications))
		for _, n := range s.Notifications {
			if n.ID != a.ID {
				list = append(list, n)
			}
		}
		s.Notifications = list
	case ClearNotifications:
		s.Notifications = []domain.Notification{}
	case ToggleSidebar:
		s.SidebarOpen = !s.SidebarOpen
	case SetSidebarOpen:
		s.SidebarOpen = a.Open
	}
	return s
}

// Selectors.

func SelectSnackbar(s State) domain.Snackbar { return s.Snackbar }

func SelectConfirmDialog(s State) domain.ConfirmDialog { return s.ConfirmDialog }

func SelectNotifications(s State) []domain.Notification { return s.Notifications }

func SelectSidebarOpen(s State) bool { return s.SidebarOpen }
