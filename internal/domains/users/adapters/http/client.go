package http

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Apurer/admin-dashboard/internal/clients/http/api"
	"github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	"github.com/Apurer/admin-dashboard/internal/domains/users/ports"
)

// Backend paths of the user endpoints.
const (
	PathUsers      = "/users"
	PathBulkDelete = "/users/bulk-delete"
	PathExport     = "/users/export"
	PathStats      = "/users/stats"
)

var (
	_ ports.API      = (*Client)(nil)
	_ ports.Transfer = (*Client)(nil)
)

// Client talks to the user endpoints through the shared API client.
type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) (*Client, error) {
	if apiClient == nil {
		return nil, errors.New("api client is required")
	}
	return &Client{api: apiClient}, nil
}

// ListEnvelope is the canonical list response.
type ListEnvelope struct {
	List       []domain.User `json:"list"`
	Pagination struct {
		TotalCount int `json:"totalCount"`
	} `json:"pagination"`
}

func userPath(id domain.ID) string {
	return fmt.Sprintf("%s/%s", PathUsers, url.PathEscape(string(id)))
}

func (c *Client) List(ctx context.Context, filters domain.Filters) (domain.Page, error) {
	var env ListEnvelope
	if err := c.api.Get(ctx, PathUsers, filters.Query(), &env); err != nil {
		return domain.Page{}, err
	}
	list := env.List
	if list == nil {
		list = []domain.User{}
	}
	total := env.Pagination.TotalCount
	if total < 0 {
		total = 0
	}
	return domain.Page{List: list, Total: total}, nil
}

func (c *Client) Get(ctx context.Context, id domain.ID) (domain.User, error) {
	var user domain.User
	if err := c.api.Get(ctx, userPath(id), nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) Create(ctx context.Context, in domain.Input) (domain.User, error) {
	var user domain.User
	if err := c.api.Post(ctx, PathUsers, in, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) Update(ctx context.Context, id domain.ID, in domain.Input) (domain.User, error) {
	var user domain.User
	if err := c.api.Put(ctx, userPath(id), in, &user); err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		user.ID = id
	}
	return user, nil
}

func (c *Client) Delete(ctx context.Context, id domain.ID) error {
	return c.api.Delete(ctx, userPath(id), nil, nil)
}

func (c *Client) BulkDelete(ctx context.Context, ids []domain.ID) error {
	return c.api.Post(ctx, PathBulkDelete, map[string][]domain.ID{"ids": ids}, nil)
}

func (c *Client) SetStatus(ctx context.Context, id domain.ID, status string) (domain.User, error) {
	var user domain.User
	if err := c.api.Patch(ctx, userPath(id)+"/status", domain.StatusChange{Status: status}, &user); err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		user.ID = id
		user.Status = status
	}
	return user, nil
}

// Stats sends the search only; paging and sort do not change the counts.
func (c *Client) Stats(ctx context.Context, filters domain.Filters) (domain.Stats, error) {
	query := map[string]any{}
	if filters.Search != "" {
		query["search"] = filters.Search
	}
	var stats domain.Stats
	if err := c.api.Get(ctx, PathStats, query, &stats); err != nil {
		return domain.Stats{}, err
	}
	stats.Total = max(stats.Total, 0)
	return stats, nil
}

func (c *Client) Export(ctx context.Context, filters domain.Filters, filename string) ([]byte, error) {
	query := filters.Query()
	delete(query, "page")
	delete(query, "limit")
	return c.api.Download(ctx, PathExport, query, filename)
}

func (c *Client) UploadAvatar(ctx context.Context, id domain.ID, avatar domain.Avatar) (domain.User, error) {
	if avatar.Content == nil {
		return domain.User{}, errors.New("avatar content is required")
	}
	var user domain.User
	err := c.api.Upload(ctx, userPath(id)+"/avatar", api.Fields{
		"avatar": api.File{Name: avatar.Name, ContentType: avatar.ContentType, Reader: avatar.Content},
	}, &user)
	if err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		user.ID = id
	}
	return user, nil
}
