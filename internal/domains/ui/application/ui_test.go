package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
	"github.com/Apurer/admin-dashboard/internal/state"
)

func newUI(t *testing.T) (*Feedback, *Confirmer, *state.Store[State]) {
	t.Helper()
	st := state.New[State](Reduce, InitialState())
	feedback, err := NewFeedback(st)
	require.NoError(t, err)
	confirmer, err := NewConfirmer(st, st.State)
	require.NoError(t, err)
	return feedback, confirmer, st
}

func TestSnackbar_LastWriteWinsAndHideKeepsMessage(t *testing.T) {
	feedback, _, st := newUI(t)

	feedback.Success("User created")
	feedback.Error("Delete failed")
	require.Equal(t, domain.Snackbar{Open: true, Message: "Delete failed", Severity: domain.SeverityError}, st.State().Snackbar)

	feedback.HideSnackbar()
	require.Equal(t, domain.Snackbar{Open: false, Message: "Delete failed", Severity: domain.SeverityError}, st.State().Snackbar)

	feedback.ShowSnackbar("plain", "")
	require.Equal(t, domain.SeverityInfo, st.State().Snackbar.Severity)

	feedback.Fail(&apperrors.HTTPError{Status: 403})
	require.Equal(t, "You do not have permission to perform this action.", st.State().Snackbar.Message)
}

func TestConfirm_RunsActionThenHides(t *testing.T) {
	_, confirmer, st := newUI(t)
	ran := 0
	id := confirmer.Request(domain.ConfirmOptions{Title: "Delete user", Message: "Are you sure?"}, func(context.Context) error {
		ran++
		require.True(t, st.State().ConfirmDialog.Open, "action runs before the dialog closes")
		return nil
	})

	dialog := st.State().ConfirmDialog
	require.True(t, dialog.Open)
	require.Equal(t, id, dialog.ActionID)
	require.Equal(t, "Confirm", dialog.ConfirmText)
	require.Equal(t, "Cancel", dialog.CancelText)
	require.Equal(t, "error", dialog.ConfirmColor)

	require.NoError(t, confirmer.Confirm(context.Background()))
	require.Equal(t, 1, ran)
	require.False(t, st.State().ConfirmDialog.Open)
	require.Zero(t, confirmer.Pending())

	require.ErrorIs(t, confirmer.Confirm(context.Background()), ErrNoPendingAction)
	require.Equal(t, 1, ran)
}

func TestConfirm_CancelSkipsAction(t *testing.T) {
	_, confirmer, st := newUI(t)
	ran := false
	confirmer.Request(domain.ConfirmOptions{Title: "Delete"}, func(context.Context) error {
		ran = true
		return nil
	})

	confirmer.Cancel()
	require.False(t, ran)
	require.False(t, st.State().ConfirmDialog.Open)
	require.Equal(t, "Delete", st.State().ConfirmDialog.Title)
	require.Zero(t, confirmer.Pending())
}

func TestConfirm_NewRequestReplacesPending(t *testing.T) {
	_, confirmer, _ := newUI(t)
	var ran []string
	confirmer.Request(domain.ConfirmOptions{Title: "first"}, func(context.Context) error {
		ran = append(ran, "first")
		return nil
	})
	confirmer.Request(domain.ConfirmOptions{Title: "second", ConfirmText: "Delete"}, func(context.Context) error {
		ran = append(ran, "second")
		return errors.New("backend down")
	})
	require.Equal(t, 1, confirmer.Pending())

	require.EqualError(t, confirmer.Confirm(context.Background()), "backend down")
	require.Equal(t, []string{"second"}, ran)
}

func TestNotifications_AddRemoveClear(t *testing.T) {
	feedback, _, st := newUI(t)
	first := feedback.Notify("Import", "3 users imported", domain.SeveritySuccess)
	second := feedback.Notify("Export", "ready", domain.SeverityInfo)
	assert.NotEqual(t, first, second)
	require.Len(t, st.State().Notifications, 2)

	feedback.RemoveNotification(first)
	require.Len(t, st.State().Notifications, 1)
	require.Equal(t, second, st.State().Notifications[0].ID)

	feedback.ClearNotifications()
	require.Empty(t, st.State().Notifications)
}

func TestSidebar(t *testing.T) {
	feedback, _, st := newUI(t)
	require.True(t, SelectSidebarOpen(st.State()))
	feedback.ToggleSidebar()
	require.False(t, st.State().SidebarOpen)
	feedback.SetSidebarOpen(true)
	require.True(t, st.State().SidebarOpen)
}

func TestParseSeverity(t *testing.T) {
	require.Equal(t, domain.SeverityWarning, domain.ParseSeverity(" Warning "))
	require.Equal(t, domain.SeverityInfo, domain.ParseSeverity("loud"))
}
