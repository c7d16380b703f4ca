package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestWindowsPartitionCollection(t *testing.T) {
	for n := 0; n <= 31; n++ {
		for pageSize := 1; pageSize <= 7; pageSize++ {
			items := sequence(n)
			seen := make(map[int]int, n)
			total := 0
			for page := 0; page < TotalPages(n, pageSize); page++ {
				window := WindowOf(items, page, pageSize)
				total += len(window)
				for _, item := range window {
					seen[item]++
				}
			}
			require.Equal(t, n, total, "n=%d pageSize=%d", n, pageSize)
			for _, item := range items {
				require.Equal(t, 1, seen[item], "item %d in n=%d pageSize=%d", item, n, pageSize)
			}
		}
	}
}

func TestLastWindowLength(t *testing.T) {
	for n := 1; n <= 31; n++ {
		for pageSize := 1; pageSize <= 7; pageSize++ {
			want := n % pageSize
			if want == 0 {
				want = pageSize
			}
			window := WindowOf(sequence(n), TotalPages(n, pageSize)-1, pageSize)
			require.Len(t, window, want, "n=%d pageSize=%d", n, pageSize)
		}
	}
}

func TestWindowOfOutOfRange(t *testing.T) {
	items := sequence(5)
	assert.Empty(t, WindowOf(items, 5, 1))
	assert.Empty(t, WindowOf(items, 1, 5))
	assert.Empty(t, WindowOf(items, -1, 2))
	assert.Empty(t, WindowOf(items, 0, 0))
	assert.Equal(t, []int{2, 3}, WindowOf(items, 1, 2))
}

func TestWindowOfDoesNotAliasAppends(t *testing.T) {
	items := sequence(6)
	window := WindowOf(items, 0, 2)
	window = append(window, 99)
	assert.Equal(t, 2, items[2], "appending to a window must not overwrite the next page")
	assert.Len(t, window, 3)
}

func TestNavigationClampsAtBoundaries(t *testing.T) {
	assert.Equal(t, 0, Previous(0))
	assert.Equal(t, 1, Previous(2))

	assert.Equal(t, 1, Next(0, 15, 10))
	assert.Equal(t, 1, Next(1, 15, 10))
	assert.Equal(t, 0, Next(0, 0, 10))

	assert.Equal(t, 0, Clamp(-3, 15, 10))
	assert.Equal(t, 1, Clamp(9, 15, 10))
	assert.Equal(t, 0, Clamp(4, 0, 10))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, NavigablePages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
}

func TestNewView(t *testing.T) {
	view := NewView(1, 25, 10)
	assert.Equal(t, View{Index: 1, Size: 10, TotalPages: 3, TotalItems: 25, HasPrevious: true, HasNext: true}, view)
	assert.Equal(t, "Page 2 of 3", view.Label())

	empty := NewView(0, 0, 10)
	assert.False(t, empty.HasPrevious)
	assert.False(t, empty.HasNext)
	assert.Equal(t, "Page 1 of 1", empty.Label())
}
