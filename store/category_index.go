package store

import (
	"sort"
	"strings"
)

// CategoryIndex maintains a reference count per distinct category and a
// sorted list of the names currently in use. It exists so "what are all
// categories" is an O(1) read instead of a full note scan on every
// render. Archived notes still count — archiving is a visibility filter,
// not deletion.
//
// Not safe for concurrent use on its own; the Collection's mutex guards
// it together with the note list.
type CategoryIndex struct {
	counts  map[string]int
	visible []string // sorted, names with count > 0
}

// NewCategoryIndex returns an empty index.
func NewCategoryIndex() *CategoryIndex {
	return &CategoryIndex{counts: make(map[string]int)}
}

// normalizeCategory trims whitespace; an empty result means "no
// category" and is never tracked.
func normalizeCategory(category string) string {
	return strings.TrimSpace(category)
}

// Track increments the count for a category, inserting it into the
// visible list on the 0→1 transition. No-op for absent categories.
func (ci *CategoryIndex) Track(category string) {
	name := normalizeCategory(category)
	if name == "" {
		return
	}

	ci.counts[name]++
	if ci.counts[name] == 1 {
		i := sort.SearchStrings(ci.visible, name)
		ci.visible = append(ci.visible, "")
		copy(ci.visible[i+1:], ci.visible[i:])
		ci.visible[i] = name
	}
}

// Untrack decrements the count, removing the name from the visible list
// and dropping the map entry when the count reaches zero.
func (ci *CategoryIndex) Untrack(category string) {
	name := normalizeCategory(category)
	if name == "" {
		return
	}

	count, ok := ci.counts[name]
	if !ok {
		return
	}

	if count <= 1 {
		delete(ci.counts, name)
		i := sort.SearchStrings(ci.visible, name)
		if i < len(ci.visible) && ci.visible[i] == name {
			ci.visible = append(ci.visible[:i], ci.visible[i+1:]...)
		}
		return
	}
	ci.counts[name] = count - 1
}

// Reconcile moves one reference from prev to next. Equal normalized
// names are a no-op so an unrelated note update never churns the index.
func (ci *CategoryIndex) Reconcile(prev, next string) {
	if normalizeCategory(prev) == normalizeCategory(next) {
		return
	}
	ci.Untrack(prev)
	ci.Track(next)
}

// Rebuild clears the index and re-tracks every note's category. Used
// after bulk replacement so the index can never drift from the notes.
func (ci *CategoryIndex) Rebuild(notes []Note) {
	ci.counts = make(map[string]int)
	ci.visible = ci.visible[:0]
	for _, n := range notes {
		ci.Track(n.Category)
	}
}

// Visible returns the sorted category names currently in use.
func (ci *CategoryIndex) Visible() []string {
	return append([]string(nil), ci.visible...)
}

// Count returns the reference count for a category name.
func (ci *CategoryIndex) Count(category string) int {
	return ci.counts[normalizeCategory(category)]
}
