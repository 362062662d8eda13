package application

import (
	"context"
	"errors"

	"github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	"github.com/Apurer/admin-dashboard/internal/domains/users/ports"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// Transfers runs the file operations of the users view.
type Transfers struct {
	transfer   ports.Transfer
	dispatcher state.Dispatcher
	current    func() State
}

func NewTransfers(transfer ports.Transfer, dispatcher state.Dispatcher, current func() State) (*Transfers, error) {
	if transfer == nil {
		return nil, errors.New("users transfer is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if current == nil {
		return nil, errors.New("state getter is required")
	}
	return &Transfers{transfer: transfer, dispatcher: dispatcher, current: current}, nil
}

// Export downloads every user matching the current search and sort. The slice
// is not touched.
func (t *Transfers) Export(ctx context.Context, filename string) ([]byte, error) {
	return t.transfer.Export(ctx, t.current().Filters.Normalize(), filename)
}

// UploadAvatar replaces a user's avatar and refreshes the listed copy.
func (t *Transfers) UploadAvatar(ctx context.Context, id domain.ID, avatar domain.Avatar) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.ErrEmptyID
	}
	return state.RunAsync(ctx, t.dispatcher, OpAvatar, id, func(ctx context.Context) (domain.User, error) {
		return t.transfer.UploadAvatar(ctx, id, avatar)
	})
}
