package application

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// Feedback dispatches snackbar, notification, and sidebar changes.
type Feedback struct {
	dispatcher state.Dispatcher
	now        func() time.Time
}

func NewFeedback(dispatcher state.Dispatcher) (*Feedback, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	return &Feedback{dispatcher: dispatcher, now: time.Now}, nil
}

// ShowSnackbar replaces whatever the snackbar currently shows.
func (f *Feedback) ShowSnackbar(message string, severity domain.Severity) {
	f.dispatcher.Dispatch(ShowSnackbar{Message: message, Severity: severity})
}

// HideSnackbar closes the snackbar and keeps its message.
func (f *Feedback) HideSnackbar() { f.dispatcher.Dispatch(HideSnackbar{}) }

func (f *Feedback) Success(message string) { f.ShowSnackbar(message, domain.SeveritySuccess) }

func (f *Feedback) Error(message string) { f.ShowSnackbar(message, domain.SeverityError) }

func (f *Feedback) Warning(message string) { f.ShowSnackbar(message, domain.SeverityWarning) }

func (f *Feedback) Info(message string) { f.ShowSnackbar(message, domain.SeverityInfo) }

// Fail shows err as an error snackbar using its user-facing message.
func (f *Feedback) Fail(err error) {
	if err == nil {
		return
	}
	f.Error(apperrors.Message(err))
}

// Notify appends a notification and returns its id.
func (f *Feedback) Notify(title, message string, severity domain.Severity) string {
	id := uuid.NewString()
	f.dispatcher.Dispatch(AddNotification{Notification: domain.Notification{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Message:   message,
		Severity:  severity,
		CreatedAt: f.now(),
	}})
	return id
}

func (f *Feedback) RemoveNotification(id string) { f.dispatcher.Dispatch(RemoveNotification{ID: id}) }

func (f *Feedback) ClearNotifications() { f.dispatcher.Dispatch(ClearNotifications{}) }

func (f *Feedback) ToggleSidebar() { f.dispatcher.Dispatch(ToggleSidebar{}) }

func (f *Feedback) SetSidebarOpen(open bool) { f.dispatcher.Dispatch(SetSidebarOpen{Open: open}) }
