package domain

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestBuildMenuTree(t *testing.T) {
	menus := []Menu{
		{ID: "3", Label: "Cities", ParentID: strPtr("1"), Order: 2},
		{ID: "1", Label: "Catalog", Order: 1},
		{ID: "2", Label: "Tours", ParentID: strPtr("1"), Order: 1},
		{ID: "4", Label: "Users", Order: 0},
		{ID: "5", Label: "Orphan", ParentID: strPtr("missing"), Order: 5},
	}

	tree := BuildMenuTree(menus)

	if len(tree) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(tree))
	}
	if tree[0].Label != "Users" || tree[1].Label != "Catalog" || tree[2].Label != "Orphan" {
		t.Errorf("unexpected root order: %s, %s, %s", tree[0].Label, tree[1].Label, tree[2].Label)
	}

	catalog := tree[1]
	if len(catalog.Children) != 2 {
		t.Fatalf("expected 2 children under Catalog, got %d", len(catalog.Children))
	}
	if catalog.Children[0].Label != "Tours" || catalog.Children[1].Label != "Cities" {
		t.Errorf("children not ordered: %s, %s", catalog.Children[0].Label, catalog.Children[1].Label)
	}
}

func TestBuildMenuTree_CycleStaysVisible(t *testing.T) {
	menus := []Menu{
		{ID: "a", Label: "Reports", ParentID: strPtr("b"), Order: 2},
		{ID: "b", Label: "Sales", ParentID: strPtr("a"), Order: 1},
		{ID: "c", Label: "Home", Order: 0},
	}

	tree := BuildMenuTree(menus)

	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].Label != "Home" || tree[1].Label != "Reports" {
		t.Fatalf("unexpected roots: %s, %s", tree[0].Label, tree[1].Label)
	}
	reports := tree[1]
	if len(reports.Children) != 1 || reports.Children[0].Label != "Sales" {
		t.Fatalf("expected Sales under Reports, got %d children", len(reports.Children))
	}
	if len(reports.Children[0].Children) != 0 {
		t.Errorf("cycle was not cut: Sales still has %d children", len(reports.Children[0].Children))
	}
}

func TestNewPageQuery(t *testing.T) {
	tests := []struct {
		name            string
		page, limit     string
		wantPage, wantL int
	}{
		{"defaults", "", "", DefaultPage, DefaultLimit},
		{"explicit", "3", "25", 3, 25},
		{"garbage", "x", "-4", DefaultPage, DefaultLimit},
		{"clamped", "1", "1000", 1, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewPageQuery(tt.page, tt.limit, "")
			if q.Page != tt.wantPage || q.Limit != tt.wantL {
				t.Errorf("NewPageQuery() = %+v, want page=%d limit=%d", q, tt.wantPage, tt.wantL)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	q := PageQuery{Page: 2, Limit: 10}

	tests := []struct {
		name      string
		raw       string
		wantTotal int
		wantItems string
	}{
		{"bare array", `[{"id":"1"},{"id":"2"}]`, 2, `[{"id":"1"},{"id":"2"}]`},
		{"data envelope", `{"data":[{"id":"1"}],"total":41}`, 41, `[{"id":"1"}]`},
		{"items with meta", `{"items":[{"id":"9"}],"meta":{"total":7}}`, 7, `[{"id":"9"}]`},
		{"empty", ``, 0, `[]`},
		{"unexpected scalar", `"nope"`, 0, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := ParsePage(json.RawMessage(tt.raw), q)
			if page.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", page.Total, tt.wantTotal)
			}
			if string(page.Items) != tt.wantItems {
				t.Errorf("Items = %s, want %s", page.Items, tt.wantItems)
			}
			if page.Page != 2 || page.Limit != 10 {
				t.Errorf("page/limit not carried over: %+v", page)
			}
		})
	}
}

func TestCountryLocalizedName(t *testing.T) {
	c := Country{Name: "Mexico", Translations: map[string]string{"es": "México"}}

	if got := c.LocalizedName("ES"); got != "México" {
		t.Errorf("LocalizedName(ES) = %q", got)
	}
	if got := c.LocalizedName("fr"); got != "Mexico" {
		t.Errorf("LocalizedName(fr) = %q", got)
	}
}
