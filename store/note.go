package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a mutation targets a note id that is not
// in the collection. Deletion is exempt — see Collection.Remove.
var ErrNotFound = errors.New("note not found")

// Kind discriminates the payload shape of a note.
type Kind string

const (
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
	KindRichText Kind = "richtext"
	KindImage    Kind = "image"
)

// Note is the unit of storage and sync. The id is immutable after
// creation; updated strictly increases with every successful mutation
// (required for last-writer-wins merging). ViewAs is a rendering hint
// only and never participates in merge decisions.
type Note struct {
	ID       string   `json:"id" msgpack:"id"`
	Kind     Kind     `json:"kind" msgpack:"kind"`
	Title    string   `json:"title" msgpack:"title"`
	Content  string   `json:"content,omitempty" msgpack:"content,omitempty"`
	Language string   `json:"language,omitempty" msgpack:"language,omitempty"` // code notes
	URL      string   `json:"url,omitempty" msgpack:"url,omitempty"`           // image notes
	Alt      string   `json:"alt,omitempty" msgpack:"alt,omitempty"`           // image notes
	Created  int64    `json:"created" msgpack:"created"`
	Updated  int64    `json:"updated" msgpack:"updated"`
	Category string   `json:"category,omitempty" msgpack:"category,omitempty"`
	Tags     []string `json:"tags,omitempty" msgpack:"tags,omitempty"`
	Archived bool     `json:"archived,omitempty" msgpack:"archived,omitempty"`
	Pinned   bool     `json:"pinned,omitempty" msgpack:"pinned,omitempty"`
	ViewAs   Kind     `json:"viewAs,omitempty" msgpack:"view_as,omitempty"`
}

// NoteInput carries a partial update. Nil pointer fields are left
// untouched by Collection.Update; on Create, nil fields take zero values.
type NoteInput struct {
	Kind     *Kind     `json:"kind,omitempty"`
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Language *string   `json:"language,omitempty"`
	URL      *string   `json:"url,omitempty"`
	Alt      *string   `json:"alt,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Archived *bool     `json:"archived,omitempty"`
	Pinned   *bool     `json:"pinned,omitempty"`
	ViewAs   *Kind     `json:"viewAs,omitempty"`
}

// apply overlays the input's set fields onto a copy of the note.
// ID, Created and Updated are never touched here — the collection owns
// those.
func (n Note) apply(input NoteInput) Note {
	if input.Kind != nil {
		n.Kind = *input.Kind
	}
	if input.Title != nil {
		n.Title = *input.Title
	}
	if input.Content != nil {
		n.Content = *input.Content
	}
	if input.Language != nil {
		n.Language = *input.Language
	}
	if input.URL != nil {
		n.URL = *input.URL
	}
	if input.Alt != nil {
		n.Alt = *input.Alt
	}
	if input.Category != nil {
		n.Category = strings.TrimSpace(*input.Category)
	}
	if input.Tags != nil {
		n.Tags = append([]string(nil), (*input.Tags)...)
	}
	if input.Archived != nil {
		n.Archived = *input.Archived
	}
	if input.Pinned != nil {
		n.Pinned = *input.Pinned
	}
	if input.ViewAs != nil {
		n.ViewAs = *input.ViewAs
	}
	return n
}

// HasTag reports whether the note carries the given tag.
// Tag order is irrelevant; the slice is treated as a set.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
