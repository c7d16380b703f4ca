// Package pagination derives page windows over an in-memory collection. Paging is done
// entirely on the client; the backend always returns the full collection.
package pagination

import "fmt"

// TotalPages returns ceil(itemCount/pageSize), or 0 when there is nothing to page.
func TotalPages(itemCount, pageSize int) int {
	if itemCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (itemCount + pageSize - 1) / pageSize
}

// NavigablePages is TotalPages with an empty collection counted as one empty page.
func NavigablePages(itemCount, pageSize int) int {
	total := TotalPages(itemCount, pageSize)
	if total == 0 {
		return 1
	}
	return total
}

// WindowOf returns items[pageIndex*pageSize : pageIndex*pageSize+pageSize] clipped to the
// slice bounds. Out-of-range pages yield an empty window.
func WindowOf[T any](items []T, pageIndex, pageSize int) []T {
	if pageIndex < 0 || pageSize <= 0 {
		return []T{}
	}
	start := pageIndex * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end]
}

// Clamp keeps pageIndex inside [0, NavigablePages-1].
func Clamp(pageIndex, itemCount, pageSize int) int {
	if pageIndex < 0 {
		return 0
	}
	last := NavigablePages(itemCount, pageSize) - 1
	if pageIndex > last {
		return last
	}
	return pageIndex
}

// Previous moves one page back, stopping at the first page.
func Previous(pageIndex int) int {
	if pageIndex <= 0 {
		return 0
	}
	return pageIndex - 1
}

// Next moves one page forward, stopping at the last page.
func Next(pageIndex, itemCount, pageSize int) int {
	return Clamp(pageIndex+1, itemCount, pageSize)
}

// View summarises the page state for rendering navigation controls.
type View struct {
	Index       int  `json:"index"`
	Size        int  `json:"size"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewView builds a View for the given state.
func NewView(pageIndex, itemCount, pageSize int) View {
	index := Clamp(pageIndex, itemCount, pageSize)
	navigable := NavigablePages(itemCount, pageSize)
	return View{
		Index:       index,
		Size:        pageSize,
		TotalPages:  TotalPages(itemCount, pageSize),
		TotalItems:  itemCount,
		HasPrevious: index > 0,
		HasNext:     index < navigable-1,
	}
}

// Label renders the one-based "Page i of n" caption.
func (v View) Label() string {
	total := v.TotalPages
	if total == 0 {
		total = 1
	}
	return fmt.Sprintf("Page %d of %d", v.Index+1, total)
}
