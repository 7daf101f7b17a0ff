package domain

// PageSize is the number of dogs shown per results page.
const PageSize = 20

// pageNeighbours is how many pages either side of the current one are
// listed before collapsing into an ellipsis.
const pageNeighbours = 2

// PageInfo summarizes where a result page sits in the full result set.
type PageInfo struct {
	From        int        `json:"from"`
	Size        int        `json:"size"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	Pages       []PageItem `json:"pages"`
}

// PageItem is either a page number or an ellipsis marker.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// TotalPages returns ceil(total/size).
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// CurrentPage returns the 1-based page that starts at offset from.
func CurrentPage(from, size int) int {
	if from < 0 || size <= 0 {
		return 1
	}
	return from/size + 1
}

// OffsetForPage returns the offset of a 1-based page.
func OffsetForPage(page, size int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * size
}

// PageNumbers lists the first and last page plus every page within two of
// current, with an ellipsis wherever numbers are skipped, e.g.
// [1 … 4 5 6 7 8 … 20].
func PageNumbers(current, total int) []PageItem {
	var items []PageItem
	prev := 0
	for i := 1; i <= total; i++ {
		if i != 1 && i != total && (i < current-pageNeighbours || i > current+pageNeighbours) {
			continue
		}
		if prev != 0 && i-prev > 1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: i, Current: i == current})
		prev = i
	}
	return items
}

// NewPageInfo builds pagination metadata for a result page.
func NewPageInfo(from, size, total int) PageInfo {
	current := CurrentPage(from, size)
	pages := TotalPages(total, size)
	return PageInfo{
		From:        from,
		Size:        size,
		CurrentPage: current,
		TotalPages:  pages,
		Pages:       PageNumbers(current, pages),
	}
}
