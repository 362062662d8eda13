package application

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// ErrNoPendingAction is returned by Confirm when the open dialog has no
// registered action, or no dialog is open.
var ErrNoPendingAction = errors.New("no pending confirmation")

// Action runs when a confirmation is accepted.
type Action func(ctx context.Context) error

// Confirmer owns the pending-action table behind the confirm dialog. The
// dialog state only carries the action id.
type Confirmer struct {
	mu         sync.Mutex
	pending    map[string]Action
	dispatcher state.Dispatcher
	current    func() State
}

// NewConfirmer wires the table to the store. current returns the UI slice.
func NewConfirmer(dispatcher state.Dispatcher, current func() State) (*Confirmer, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if current == nil {
		return nil, errors.New("state getter is required")
	}
	return &Confirmer{pending: map[string]Action{}, dispatcher: dispatcher, current: current}, nil
}

// Request opens the dialog for action and returns the action id. A request
// replaces any dialog still open; its action is dropped.
func (c *Confirmer) Request(opts domain.ConfirmOptions, action Action) string {
	id := uuid.NewString()
	c.mu.Lock()
	clear(c.pending)
	if action != nil {
		c.pending[id] = action
	}
	c.mu.Unlock()
	c.dispatcher.Dispatch(ShowConfirmDialog{Options: opts, ActionID: id})
	return id
}

// Confirm runs the pending action of the open dialog, then hides it. The
// dialog is hidden even if the action fails.
func (c *Confirmer) Confirm(ctx context.Context) error {
	dialog := c.current().ConfirmDialog
	if !dialog.Open {
		return ErrNoPendingAction
	}
	c.mu.Lock()
	action, ok := c.pending[dialog.ActionID]
	delete(c.pending, dialog.ActionID)
	c.mu.Unlock()

	var err error
	if ok {
		err = action(ctx)
	} else {
		err = ErrNoPendingAction
	}
	c.dispatcher.Dispatch(HideConfirmDialog{})
	return err
}

// Cancel hides the dialog without running its action.
func (c *Confirmer) Cancel() {
	id := c.current().ConfirmDialog.ActionID
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
	c.dispatcher.Dispatch(HideConfirmDialog{})
}

// Pending reports how many actions await a decision.
func (c *Confirmer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
