package ports

import (
	"context"

	"github.com/Apurer/admin-dashboard/internal/domains/users/domain"
)

// API is the backend's user-management surface.
type API interface {
	List(ctx context.Context, filters domain.Filters) (domain.Page, error)
	Get(ctx context.Context, id domain.ID) (domain.User, error)
	Create(ctx context.Context, in domain.Input) (domain.User, error)
	Update(ctx context.Context, id domain.ID, in domain.Input) (domain.User, error)
	Delete(ctx context.Context, id domain.ID) error
	BulkDelete(ctx context.Context, ids []domain.ID) error
	SetStatus(ctx context.Context, id domain.ID, status string) (domain.User, error)
	Stats(ctx context.Context, filters domain.Filters) (domain.Stats, error)
}

// Transfer moves files in and out of the user endpoints.
type Transfer interface {
	// Export returns every user matching filters' search and sort as CSV.
	// A non-empty filename also persists the file.
	Export(ctx context.Context, filters domain.Filters, filename string) ([]byte, error)
	UploadAvatar(ctx context.Context, id domain.ID, avatar domain.Avatar) (domain.User, error)
}
