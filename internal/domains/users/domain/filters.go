package domain

import "strings"

// Default pagination values.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageSizeOptions are the limits offered by list views.
var PageSizeOptions = []int{5, 10, 25, 50, 100}

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sort orders the list by one field. The zero value leaves ordering to the
// backend.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// IsZero reports whether no sort field is set.
func (s Sort) IsZero() bool { return strings.TrimSpace(s.Field) == "" }

// Filters are the list query parameters.
type Filters struct {
	Page   int
	Limit  int
	Search string
	Sort   Sort
}

// DefaultFilters is the first page with the default limit.
func DefaultFilters() Filters {
	return Filters{Page: DefaultPage, Limit: DefaultLimit}
}

// Normalize clamps page and limit into range and tidies sort.
func (f Filters) Normalize() Filters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	f.Sort.Field = strings.TrimSpace(f.Sort.Field)
	switch strings.ToLower(strings.TrimSpace(f.Sort.Order)) {
	case SortDesc:
		f.Sort.Order = SortDesc
	default:
		f.Sort.Order = SortAsc
	}
	if f.Sort.Field == "" {
		f.Sort = Sort{}
	}
	return f
}

// Query renders the filters as list endpoint query parameters.
func (f Filters) Query() map[string]any {
	f = f.Normalize()
	q := map[string]any{
		"page":  f.Page,
		"limit": f.Limit,
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q["search"] = search
	}
	if !f.Sort.IsZero() {
		q["sort"] = f.Sort
	}
	return q
}

// PageCount is the number of pages needed for total items.
func (f Filters) PageCount(total int) int {
	f = f.Normalize()
	if total <= 0 {
		return 0
	}
	return (total + f.Limit - 1) / f.Limit
}
