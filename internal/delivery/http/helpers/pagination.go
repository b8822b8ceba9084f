package helpers

import (
	"net/http"
	"strconv"
	"time"

	"eventplanner/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// ParsePagination reads page and per_page from the request query string,
// clamps them to valid ranges, and returns domain.PaginationParams.
// Invalid or missing values fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	page := DefaultPage
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			page = v
		}
	}
	pageSize := DefaultPageSize
	if s := r.URL.Query().Get("per_page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			pageSize = min(v, MaxPageSize)
		}
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

// ParseDateRange reads start_time and end_time (YYYY-MM-DD) from the query string.
// Missing values leave the bound unset; a malformed one is a validation error.
func ParseDateRange(r *http.Request) (domain.DateRange, error) {
	var rng domain.DateRange
	var errs []domain.FieldError
	parse := func(name string) *time.Time {
		s := r.URL.Query().Get(name)
		if s == "" {
			return nil
		}
		t, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: name, Msg: "must be a date in YYYY-MM-DD format"})
			return nil
		}
		return &t
	}
	rng.Start = parse("start_time")
	rng.End = parse("end_time")
	if err := domain.NewValidationError(errs); err != nil {
		return domain.DateRange{}, err
	}
	return rng, nil
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"current_page"`
	PageSize   int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size, and total count.
// TotalPages is computed as ceiling(total / pageSize); if pageSize is 0, TotalPages is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
