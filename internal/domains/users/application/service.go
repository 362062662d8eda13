package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	"github.com/Apurer/admin-dashboard/internal/domains/users/ports"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// ErrNoSelection is returned by RemoveMany when no ids are given.
var ErrNoSelection = errors.New("no users selected")

// Service runs the user operations and reduces their outcome into the users
// slice.
type Service struct {
	api        ports.API
	dispatcher state.Dispatcher
	current    func() State
}

// NewService wires the slice. current returns the slice as held by the store.
func NewService(api ports.API, dispatcher state.Dispatcher, current func() State) (*Service, error) {
	if api == nil {
		return nil, errors.New("users api is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if current == nil {
		return nil, errors.New("state getter is required")
	}
	return &Service{api: api, dispatcher: dispatcher, current: current}, nil
}

// State returns the slice as currently held by the store.
func (s *Service) State() State { return s.current() }

// FetchList loads the page described by the current filters.
func (s *Service) FetchList(ctx context.Context) (domain.Page, error) {
	filters := s.current().Filters.Normalize()
	return state.RunAsync(ctx, s.dispatcher, OpFetchList, filters, func(ctx context.Context) (domain.Page, error) {
		return s.api.List(ctx, filters)
	})
}

// FetchByID loads one user into Current; the list is untouched.
func (s *Service) FetchByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.ErrEmptyID
	}
	return state.RunAsync(ctx, s.dispatcher, OpFetchByID, id, func(ctx context.Context) (domain.User, error) {
		return s.api.Get(ctx, id)
	})
}

// Create validates in and creates the user, prepending it to the list.
func (s *Service) Create(ctx context.Context, in domain.Input) (domain.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}
	return state.RunAsync(ctx, s.dispatcher, OpCreate, in, func(ctx context.Context) (domain.User, error) {
		return s.api.Create(ctx, in)
	})
}

// Update validates in and replaces the user in place.
func (s *Service) Update(ctx context.Context, id domain.ID, in domain.Input) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.ErrEmptyID
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}
	return state.RunAsync(ctx, s.dispatcher, OpUpdate, id, func(ctx context.Context) (domain.User, error) {
		user, err := s.api.Update(ctx, id, in)
		if err != nil {
			return domain.User{}, err
		}
		if user.ID == "" {
			user.ID = id
		}
		return user, nil
	})
}

// SetStatus moves one user to status and replaces it in place.
func (s *Service) SetStatus(ctx context.Context, id domain.ID, status string) (domain.User, error) {
	if id == "" {
		return domain.User{}, domain.ErrEmptyID
	}
	change := domain.StatusChange{Status: strings.TrimSpace(status)}
	if err := change.Validate(); err != nil {
		return domain.User{}, err
	}
	return state.RunAsync(ctx, s.dispatcher, OpSetStatus, id, func(ctx context.Context) (domain.User, error) {
		user, err := s.api.SetStatus(ctx, id, change.Status)
		if err != nil {
			return domain.User{}, err
		}
		if user.ID == "" {
			user.ID = id
		}
		return user, nil
	})
}

// FetchStats loads the counts for the current search into Stats.
func (s *Service) FetchStats(ctx context.Context) (domain.Stats, error) {
	filters := s.current().Filters.Normalize()
	return state.RunAsync(ctx, s.dispatcher, OpStats, filters, func(ctx context.Context) (domain.Stats, error) {
		return s.api.Stats(ctx, filters)
	})
}

// Remove deletes one user.
func (s *Service) Remove(ctx context.Context, id domain.ID) error {
	if id == "" {
		return domain.ErrEmptyID
	}
	_, err := state.RunAsync(ctx, s.dispatcher, OpRemove, id, func(ctx context.Context) (domain.ID, error) {
		if err := s.api.Delete(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	})
	return err
}

// RemoveMany deletes several users in one request.
func (s *Service) RemoveMany(ctx context.Context, ids []domain.ID) error {
	unique := make([]domain.ID, 0, len(ids))
	seen := make(map[domain.ID]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return ErrNoSelection
	}
	_, err := state.RunAsync(ctx, s.dispatcher, OpRemoveMany, unique, func(ctx context.Context) ([]domain.ID, error) {
		if err := s.api.BulkDelete(ctx, unique); err != nil {
			return nil, fmt.Errorf("bulk delete %d users: %w", len(unique), err)
		}
		return unique, nil
	})
	return err
}

func (s *Service) SetPage(page int) { s.dispatcher.Dispatch(SetPage{Page: page}) }

func (s *Service) SetLimit(limit int) { s.dispatcher.Dispatch(SetLimit{Limit: limit}) }

func (s *Service) SetSearch(search string) { s.dispatcher.Dispatch(SetSearch{Search: search}) }

func (s *Service) SetSort(sort domain.Sort) { s.dispatcher.Dispatch(SetSort{Sort: sort}) }

func (s *Service) SetFilters(patch FiltersPatch) { s.dispatcher.Dispatch(SetFilters{Patch: patch}) }

// SetCurrent opens a user for viewing or editing.
func (s *Service) SetCurrent(user domain.User) { s.dispatcher.Dispatch(SetCurrent{User: user}) }

func (s *Service) ClearCurrent() { s.dispatcher.Dispatch(ClearCurrent{}) }

func (s *Service) ClearError() { s.dispatcher.Dispatch(ClearError{}) }
