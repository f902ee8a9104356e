package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/speakeval/pkg/query"
)

// PageRequest represents a client request for a page of data with optional search and sorting.
type PageRequest struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Search   *string           `json:"search,omitempty"`
	Sort     []query.SortField `json:"sort,omitempty"`
}

// Normalize adjusts the request to ensure valid pagination values based on the config.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
}

// Offset calculates the number of records to skip based on page and page size.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

var (
	ErrInvalidPage   = errors.New("page and page_size must be integers")
	ErrInvalidSort   = errors.New("invalid sort field")
	ErrSearchTooLong = errors.New("search term too long")
)

// Sortable resolves client sort names to the fields a listing can order by.
// *query.ProjectionMap satisfies it.
type Sortable interface {
	Lookup(name string) (string, bool)
}

// PageRequestFromQuery parses page, page_size, search and sort from URL
// query values. Sort is comma-separated with a "-" prefix for descending;
// each name must resolve through sortable, and repeats keep the first
// occurrence. A nil sortable accepts sort names as given.
// The result is normalized according to cfg.
func PageRequestFromQuery(values url.Values, cfg Config, sortable Sortable) (PageRequest, error) {
	page, err := queryInt(values, "page")
	if err != nil {
		return PageRequest{}, err
	}
	pageSize, err := queryInt(values, "page_size")
	if err != nil {
		return PageRequest{}, err
	}

	search, err := parseSearch(values.Get("search"), cfg.MaxSearchLength)
	if err != nil {
		return PageRequest{}, err
	}

	sort, err := resolveSort(query.ParseSortFields(values.Get("sort")), sortable)
	if err != nil {
		return PageRequest{}, err
	}

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
		Sort:     sort,
	}

	req.Normalize(cfg)
	return req, nil
}

func queryInt(values url.Values, key string) (int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidPage, key, v)
	}
	return n, nil
}

// parseSearch trims the term; a blank term means no search. A zero limit
// is unbounded.
func parseSearch(raw string, limit int) (*string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if limit > 0 && utf8.RuneCountInString(s) > limit {
		return nil, fmt.Errorf("%w: max %d characters", ErrSearchTooLong, limit)
	}
	return &s, nil
}

func resolveSort(fields []query.SortField, sortable Sortable) ([]query.SortField, error) {
	if sortable == nil || len(fields) == 0 {
		return fields, nil
	}

	seen := make(map[string]bool, len(fields))
	resolved := make([]query.SortField, 0, len(fields))
	for _, f := range fields {
		name, ok := sortable.Lookup(f.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSort, f.Field)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		resolved = append(resolved, query.SortField{Field: name, Descending: f.Descending})
	}
	return resolved, nil
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
