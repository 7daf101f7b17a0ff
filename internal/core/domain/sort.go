package domain

import (
	"strings"
)

// SortField is a dog attribute the upstream search can order by.
type SortField string

const (
	SortByBreed SortField = "breed"
	SortByName  SortField = "name"
	SortByAge   SortField = "age"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort is a "field:order" search ordering.
type Sort struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort is applied when a search does not ask for an order.
var DefaultSort = Sort{Field: SortByBreed, Order: Asc}

// String renders the upstream form, e.g. "breed:asc".
func (s Sort) String() string {
	return string(s.Field) + ":" + string(s.Order)
}

// IsZero reports whether no sort was chosen.
func (s Sort) IsZero() bool {
	return s.Field == "" && s.Order == ""
}

// ParseSort parses "field" or "field:order". An empty string yields
// DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}
	field, order, found := strings.Cut(raw, ":")
	s := Sort{Field: SortField(strings.ToLower(field)), Order: Asc}
	if found {
		s.Order = SortOrder(strings.ToLower(order))
	}
	if err := s.Validate(); err != nil {
		return Sort{}, err
	}
	return s, nil
}

// Validate checks field and order against the supported values.
func (s Sort) Validate() error {
	switch s.Field {
	case SortByBreed, SortByName, SortByAge:
	default:
		return InvalidArgument("sort field must be breed, name or age, got %q", s.Field)
	}
	switch s.Order {
	case Asc, Desc:
	default:
		return InvalidArgument("sort order must be asc or desc, got %q", s.Order)
	}
	return nil
}
