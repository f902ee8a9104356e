package pagination_test

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/JaimeStill/speakeval/pkg/pagination"
	"github.com/JaimeStill/speakeval/pkg/query"
)

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "15")

	cfg := pagination.Config{}
	err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE"})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.DefaultPageSize != 15 {
		t.Errorf("DefaultPageSize = %d, want 15", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", cfg.MaxPageSize)
	}
}

func TestConfig_Finalize_DefaultExceedsMax(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() should reject default_page_size > max_page_size")
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 50}

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantSearch   string
		wantSorts    int
	}{
		{"defaults", "", 1, 20, "", 0},
		{"explicit", "page=3&page_size=10", 3, 10, "", 0},
		{"clamped", "page=0&page_size=500", 1, 50, "", 0},
		{"search and sort", "search=algebra&sort=-CreatedAt,Title", 1, 20, "algebra", 2},
		{"blank search", "search=%20%20", 1, 20, "", 0},
		{"trimmed search", "search=%20algebra%20", 1, 20, "algebra", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req, err := pagination.PageRequestFromQuery(values, cfg, nil)
			if err != nil {
				t.Fatalf("PageRequestFromQuery() error = %v", err)
			}

			if req.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", req.Page, tt.wantPage)
			}
			if req.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", req.PageSize, tt.wantPageSize)
			}
			if tt.wantSearch == "" && req.Search != nil {
				t.Errorf("Search = %q, want nil", *req.Search)
			}
			if tt.wantSearch != "" && (req.Search == nil || *req.Search != tt.wantSearch) {
				t.Errorf("Search = %v, want %q", req.Search, tt.wantSearch)
			}
			if len(req.Sort) != tt.wantSorts {
				t.Errorf("len(Sort) = %d, want %d", len(req.Sort), tt.wantSorts)
			}
		})
	}
}

func TestPageRequestFromQuery_ResolvesSort(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 50, MaxSearchLength: 10}
	projection := query.NewProjectionMap("public", "exams", "e").
		Project("title", "Title").
		Project("created_at", "CreatedAt")

	values, _ := url.ParseQuery("sort=-created_at,title,-CreatedAt")
	req, err := pagination.PageRequestFromQuery(values, cfg, projection)
	if err != nil {
		t.Fatalf("PageRequestFromQuery() error = %v", err)
	}

	want := []query.SortField{
		{Field: "CreatedAt", Descending: true},
		{Field: "Title"},
	}
	if !reflect.DeepEqual(req.Sort, want) {
		t.Errorf("Sort = %+v, want %+v", req.Sort, want)
	}
}

func TestPageRequestFromQuery_Errors(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 50, MaxSearchLength: 10}
	projection := query.NewProjectionMap("public", "exams", "e").Project("title", "Title")

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"unknown sort", "sort=password", pagination.ErrInvalidSort},
		{"unknown descending sort", "sort=title,-rank", pagination.ErrInvalidSort},
		{"page not a number", "page=first", pagination.ErrInvalidPage},
		{"page size not a number", "page_size=10x", pagination.ErrInvalidPage},
		{"search too long", "search=" + strings.Repeat("é", 11), pagination.ErrSearchTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			_, err := pagination.PageRequestFromQuery(values, cfg, projection)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Finalize_SearchLength(t *testing.T) {
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.MaxSearchLength != 100 {
		t.Errorf("MaxSearchLength = %d, want 100", cfg.MaxSearchLength)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"empty", 0, 10, 1},
		{"exact", 20, 10, 2},
		{"remainder", 21, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult[string](nil, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantPages)
			}
			if result.Data == nil {
				t.Error("Data = nil, want empty slice")
			}
		})
	}
}
