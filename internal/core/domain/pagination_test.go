package domain_test

import (
	"testing"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// render flattens page items into ints, using 0 for an ellipsis.
func render(items []domain.PageItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		if it.Ellipsis {
			out = append(out, 0)
			continue
		}
		out = append(out, it.Page)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{10000, 20, 500},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := domain.TotalPages(c.total, c.size); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.size, got, c.want)
		}
	}
}

func TestCurrentPageAndOffset(t *testing.T) {
	if got := domain.CurrentPage(0, 20); got != 1 {
		t.Errorf("CurrentPage(0) = %d, want 1", got)
	}
	if got := domain.CurrentPage(40, 20); got != 3 {
		t.Errorf("CurrentPage(40) = %d, want 3", got)
	}
	if got := domain.CurrentPage(39, 20); got != 2 {
		t.Errorf("CurrentPage(39) = %d, want 2", got)
	}
	if got := domain.OffsetForPage(3, 20); got != 40 {
		t.Errorf("OffsetForPage(3) = %d, want 40", got)
	}
	if got := domain.OffsetForPage(0, 20); got != 0 {
		t.Errorf("OffsetForPage(0) = %d, want 0", got)
	}
}

func TestPageNumbers(t *testing.T) {
	cases := []struct {
		name           string
		current, total int
		want           []int
	}{
		{"no pages", 1, 0, []int{}},
		{"single page", 1, 1, []int{1}},
		{"first of many", 1, 20, []int{1, 2, 3, 0, 20}},
		{"middle", 10, 20, []int{1, 0, 8, 9, 10, 11, 12, 0, 20}},
		{"near start has no gap", 4, 10, []int{1, 2, 3, 4, 5, 6, 0, 10}},
		{"last", 20, 20, []int{1, 0, 18, 19, 20}},
		{"all fit", 3, 5, []int{1, 2, 3, 4, 5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := render(domain.PageNumbers(c.current, c.total))
			if !equalInts(got, c.want) {
				t.Errorf("PageNumbers(%d, %d) = %v, want %v", c.current, c.total, got, c.want)
			}
		})
	}
}

func TestPageNumbers_MarksCurrent(t *testing.T) {
	for _, it := range domain.PageNumbers(5, 9) {
		if it.Current != (it.Page == 5) {
			t.Errorf("page %d current=%v", it.Page, it.Current)
		}
	}
}

func TestNewPageInfo(t *testing.T) {
	info := domain.NewPageInfo(40, 20, 95)
	if info.CurrentPage != 3 || info.TotalPages != 5 {
		t.Fatalf("unexpected page info: %+v", info)
	}
	if len(info.Pages) != 5 {
		t.Errorf("expected 5 page items, got %d", len(info.Pages))
	}
}
