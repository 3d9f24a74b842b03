package explore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hackcrew/service_layer/internal/errors"
)

func intPtr(v int) *int { return &v }

func newService(t *testing.T) *Service {
	t.Helper()
	items, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return New(items)
}

func TestEmbeddedCatalog(t *testing.T) {
	items, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) < 2 || items[0].ID != 1 || items[0].DaysLeft != 13 || items[1].Platform != "ETHGlobal" {
		t.Fatalf("unexpected catalog head: %+v", items[:2])
	}
}

func TestSearchQueryAI(t *testing.T) {
	svc := newService(t)
	page, err := svc.Search(Query{Query: "AI"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Pagination.Total != 2 {
		t.Fatalf("total = %d, want 2", page.Pagination.Total)
	}
	for _, h := range page.Data {
		if h.ID != 1 && h.ID != 2 {
			t.Fatalf("unexpected match %d %q", h.ID, h.Name)
		}
	}
	if page.Pagination.Page != 1 || page.Pagination.Limit != 10 || page.Pagination.TotalPages != 1 || page.Pagination.HasMore {
		t.Fatalf("pagination = %+v", page.Pagination)
	}
}

func TestSearchPagination(t *testing.T) {
	svc := newService(t)

	first, err := svc.Search(Query{Query: "ai", Page: intPtr(1), Limit: intPtr(1)})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(first.Data) != 1 || first.Data[0].ID != 1 || !first.Pagination.HasMore {
		t.Fatalf("page 1 = %+v", first)
	}

	second, err := svc.Search(Query{Query: "ai", Page: intPtr(2), Limit: intPtr(1)})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(second.Data) != 1 || second.Data[0].ID != 2 {
		t.Fatalf("page 2 data = %+v", second.Data)
	}
	if second.Pagination.TotalPages != 2 || second.Pagination.HasMore {
		t.Fatalf("page 2 pagination = %+v", second.Pagination)
	}

	beyond, _ := svc.Search(Query{Query: "ai", Page: intPtr(5), Limit: intPtr(1)})
	if beyond.Data == nil || len(beyond.Data) != 0 {
		t.Fatalf("page past the end must be an empty list, got %#v", beyond.Data)
	}
}

func TestSearchFilters(t *testing.T) {
	svc := newService(t)
	page, err := svc.Search(Query{Filters: " online , BLOCKCHAIN"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, h := range page.Data {
		if h.Mode != "Online" && h.ID != 2 {
			t.Fatalf("unexpected filter match: %+v", h)
		}
	}
	if page.Pagination.Total != 5 {
		t.Fatalf("total = %d, want 5", page.Pagination.Total)
	}
}

func TestSearchRejectsBadPaging(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Search(Query{Page: intPtr(0)}); !errors.IsValidation(err) {
		t.Fatalf("page 0: %v", err)
	}
	if _, err := svc.Search(Query{Limit: intPtr(0)}); !errors.IsValidation(err) {
		t.Fatalf("limit 0: %v", err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte("- id: 42\n  name: Local Jam\n  platform: Self\n  mode: Online\n  tags: [Fun]\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	items, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 1 || items[0].ID != 42 {
		t.Fatalf("items = %+v", items)
	}
}
