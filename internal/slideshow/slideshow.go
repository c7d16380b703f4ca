// Package slideshow tracks the carousel position of every record card. Positions live in a
// side table keyed by record id so records stay plain data.
package slideshow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection indicates a slide direction other than next or previous.
var ErrInvalidDirection = errors.New("slideshow: invalid direction")

// Direction is the step applied to a card's slide index.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// ParseDirection accepts "next"/"previous" (and the short forms "prev", "+1", "-1").
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "next", "+1", "1":
		return Next, nil
	case "previous", "prev", "-1":
		return Previous, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, value)
	}
}

// Map is an immutable record-id → slide-index table. Methods that change it return a new Map.
type Map struct {
	indices map[string]int
}

// Index returns the slide shown for id, defaulting to 0 for cards never advanced. The stored
// index is reduced modulo imageCount in case the image list shrank.
func (m Map) Index(id string, imageCount int) int {
	if imageCount <= 0 {
		return 0
	}
	return modulo(m.indices[id], imageCount)
}

// Advance moves the card's index one step in direction, wrapping around the image list.
// With no images the map is returned unchanged.
func (m Map) Advance(id string, imageCount int, direction Direction) Map {
	if imageCount <= 0 {
		return m
	}
	next := modulo(m.indices[id]+int(direction), imageCount)
	indices := make(map[string]int, len(m.indices)+1)
	for key, value := range m.indices {
		indices[key] = value
	}
	indices[id] = next
	return Map{indices: indices}
}

// Without drops the entry for id.
func (m Map) Without(id string) Map {
	if _, ok := m.indices[id]; !ok {
		return m
	}
	indices := make(map[string]int, len(m.indices))
	for key, value := range m.indices {
		if key != id {
			indices[key] = value
		}
	}
	return Map{indices: indices}
}

// Len returns the number of cards with a recorded position.
func (m Map) Len() int {
	return len(m.indices)
}

// Entries returns a copy of the table.
func (m Map) Entries() map[string]int {
	entries := make(map[string]int, len(m.indices))
	for key, value := range m.indices {
		entries[key] = value
	}
	return entries
}

// Position renders the one-based "i / n" caption shown on a card.
func Position(index, imageCount int) string {
	if imageCount <= 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d", index+1, imageCount)
}

func modulo(value, n int) int {
	return ((value % n) + n) % n
}
