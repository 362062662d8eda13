package application

import (
	"github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// Async operation types owned by the users slice.
const (
	OpFetchList  = "users/fetchList"
	OpFetchByID  = "users/fetchById"
	OpCreate     = "users/create"
	OpUpdate     = "users/update"
	OpRemove     = "users/remove"
	OpRemoveMany = "users/removeMany"
	OpAvatar     = "users/uploadAvatar"
	OpSetStatus  = "users/setStatus"
	OpStats      = "users/fetchStats"
)

// Status is the lifecycle of the slice's latest operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is the users slice. List keeps server order; Total is the server
// count and never negative.
type State struct {
	List    []domain.User
	Total   int
	Filters domain.Filters
	Status  Status
	Error   *apperrors.ErrorInfo
	Current *domain.User
	// Stats is the latest summary fetched for the current search.
	Stats *domain.Stats

	latestFetch uint64
}

// InitialState is an empty first page.
func InitialState() State {
	return State{List: []domain.User{}, Filters: domain.DefaultFilters(), Status: StatusIdle}
}

// LatestFetch is the request id of the most recently issued list fetch.
func (s State) LatestFetch() uint64 { return s.latestFetch }

// Filter mutators. They change Filters only and never trigger a fetch.
type (
	SetPage    struct{ Page int }
	SetLimit   struct{ Limit int }
	SetSearch  struct{ Search string }
	SetSort    struct{ Sort domain.Sort }
	SetFilters struct{ Patch FiltersPatch }
)

// FiltersPatch merges the non-nil fields into the current filters.
type FiltersPatch struct {
	Page   *int
	Limit  *int
	Search *string
	Sort   *domain.Sort
}

func (SetPage) ActionType() string    { return "users/setPage" }
func (SetLimit) ActionType() string   { return "users/setLimit" }
func (SetSearch) ActionType() string  { return "users/setSearch" }
func (SetSort) ActionType() string    { return "users/setSort" }
func (SetFilters) ActionType() string { return "users/setFilters" }

// Current entity and error mutators.
type (
	SetCurrent   struct{ User domain.User }
	ClearCurrent struct{}
	ClearError   struct{}
)

func (SetCurrent) ActionType() string   { return "users/setCurrent" }
func (ClearCurrent) ActionType() string { return "users/clearCurrent" }
func (ClearError) ActionType() string   { return "users/clearError" }

// Reducer reduces users actions. With DiscardStale a list settlement whose
// request id is not the latest issued is ignored; without it the last
// settlement wins regardless of issue order.
type Reducer struct {
	DiscardStale bool
}

// Reduce is the default reducer, discarding stale list fetches.
func Reduce(s State, action state.Action) State {
	return Reducer{DiscardStale: true}.Reduce(s, action)
}

func isOp(typ string) bool {
	switch typ {
	case OpFetchList, OpFetchByID, OpCreate, OpUpdate, OpRemove, OpRemoveMany, OpAvatar, OpSetStatus, OpStats:
		return true
	}
	return false
}

func (r Reducer) Reduce(s State, action state.Action) State {
	switch a := action.(type) {
	case state.Pending:
		if !isOp(a.Type) {
			return s
		}
		if a.Type == OpFetchList && a.RequestID > s.latestFetch {
			s.latestFetch = a.RequestID
		}
		s.Status = StatusLoading
		s.Error = nil
	case state.Rejected:
		if !isOp(a.Type) || r.stale(s, a.Type, a.RequestID) {
			return s
		}
		s.Status = StatusFailed
		s.Error = apperrors.Normalize(a.Err)
	case state.Fulfilled[domain.Page]:
		if a.Type != OpFetchList || r.stale(s, a.Type, a.RequestID) {
			return s
		}
		s.List = append([]domain.User{}, a.Payload.List...)
		s.Total = max(a.Payload.Total, 0)
		s.Status = StatusSucceeded
	case state.Fulfilled[domain.User]:
		switch a.Type {
		case OpFetchByID:
			user := a.Payload
			s.Current = &user
		case OpCreate:
			s = prepend(s, a.Payload)
		case OpUpdate, OpAvatar, OpSetStatus:
			s = replace(s, a.Payload)
		default:
			return s
		}
		s.Status = StatusSucceeded
	case state.Fulfilled[domain.Stats]:
		if a.Type != OpStats {
			return s
		}
		stats := a.Payload
		s.Stats = &stats
		s.Status = StatusSucceeded
	case state.Fulfilled[domain.ID]:
		if a.Type != OpRemove {
			return s
		}
		s = removeIDs(s, []domain.ID{a.Payload})
		s.Status = StatusSucceeded
	case state.Fulfilled[[]domain.ID]:
		if a.Type != OpRemoveMany {
			return s
		}
		s = removeIDs(s, a.Payload)
		s.Status = StatusSucceeded
	case SetPage:
		s.Filters.Page = max(a.Page, 1)
	case SetLimit:
		if a.Limit > 0 {
			s.Filters.Limit = a.Limit
			s.Filters.Page = domain.DefaultPage
		}
	case SetSearch:
		if s.Filters.Search != a.Search {
			s.Filters.Search = a.Search
			s.Filters.Page = domain.DefaultPage
		}
	case SetSort:
		s.Filters.Sort = a.Sort
	case SetFilters:
		s.Filters = mergeFilters(s.Filters, a.Patch)
	case SetCurrent:
		user := a.User
		s.Current = &user
	case ClearCurrent:
		s.Current = nil
	case ClearError:
		s.Error = nil
	}
	return s
}

func (r Reducer) stale(s State, typ string, requestID uint64) bool {
	return r.DiscardStale && typ == OpFetchList && requestID != s.latestFetch
}

func prepend(s State, user domain.User) State {
	list := make([]domain.User, 0, len(s.List)+1)
	list = append(list, user)
	for _, u := range s.List {
		if u.ID != user.ID {
			list = append(list, u)
		}
	}
	if limit := s.Filters.Limit; limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	s.List = list
	s.Total++
	return s
}

func replace(s State, user domain.User) State {
	for i, u := range s.List {
		if u.ID == user.ID {
			list := append([]domain.User{}, s.List...)
			list[i] = user
			s.List = list
			break
		}
	}
	if s.Current != nil && s.Current.ID == user.ID {
		current := user
		s.Current = &current
	}
	return s
}

// removeIDs drops ids from the list and lowers Total by one per id, even for
// ids no longer listed, without going below zero.
func removeIDs(s State, ids []domain.ID) State {
	drop := make(map[domain.ID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	list := make([]domain.User, 0, len(s.List))
	for _, u := range s.List {
		if _, ok := drop[u.ID]; !ok {
			list = append(list, u)
		}
	}
	s.List = list
	s.Total = max(s.Total-len(drop), 0)
	if s.Current != nil {
		if _, ok := drop[s.Current.ID]; ok {
			s.Current = nil
		}
	}
	return s
}

func mergeFilters(f domain.Filters, p FiltersPatch) domain.Filters {
	if p.Page != nil {
		f.Page = max(*p.Page, 1)
	}
	if p.Limit != nil && *p.Limit > 0 {
		f.Limit = *p.Limit
	}
	if p.Search != nil {
		f.Search = *p.Search
	}
	if p.Sort != nil {
		f.Sort = *p.Sort
	}
	return f
}

// Selectors.

func SelectList(s State) []domain.User { return s.List }

func SelectTotal(s State) int { return s.Total }

func SelectFilters(s State) domain.Filters { return s.Filters }

func SelectCurrent(s State) *domain.User { return s.Current }

func SelectLoading(s State) bool { return s.Status == StatusLoading }

func SelectError(s State) *apperrors.ErrorInfo { return s.Error }

func SelectPageCount(s State) int { return s.Filters.PageCount(s.Total) }
