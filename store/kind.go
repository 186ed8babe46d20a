package store

import (
	"strings"

	"github.com/rohanthewiz/serr"
)

// KindHandler validates and normalizes one note variant. Handlers are
// selected through the kind discriminator — a dispatch table rather than
// a type hierarchy, so new variants register without touching the
// collection.
type KindHandler interface {
	Kind() Kind
	Validate(n *Note) error
	Normalize(n *Note)
}

var kindRegistry = map[Kind]KindHandler{}

// RegisterKind adds a handler to the registry. Later registrations for
// the same kind replace earlier ones.
func RegisterKind(h KindHandler) {
	kindRegistry[h.Kind()] = h
}

// HandlerFor returns the handler for a kind, or false when the kind is
// unrecognized. Import paths treat unrecognized kinds as text.
func HandlerFor(k Kind) (KindHandler, bool) {
	h, ok := kindRegistry[k]
	return h, ok
}

// RegisteredKinds returns the known discriminators, for diagnostics.
func RegisteredKinds() []Kind {
	kinds := make([]Kind, 0, len(kindRegistry))
	for k := range kindRegistry {
		kinds = append(kinds, k)
	}
	return kinds
}

func init() {
	RegisterKind(textKind{KindText})
	RegisterKind(textKind{KindMarkdown})
	RegisterKind(textKind{KindRichText})
	RegisterKind(codeKind{})
	RegisterKind(imageKind{})
}

// textKind covers the plain-content variants (text, markdown, richtext);
// they share payload shape and differ only in how the UI renders them.
type textKind struct {
	kind Kind
}

func (t textKind) Kind() Kind { return t.kind }

func (t textKind) Validate(n *Note) error { return nil }

func (t textKind) Normalize(n *Note) {
	n.Language = ""
	n.URL = ""
	n.Alt = ""
}

type codeKind struct{}

func (codeKind) Kind() Kind { return KindCode }

func (codeKind) Validate(n *Note) error { return nil }

func (codeKind) Normalize(n *Note) {
	if strings.TrimSpace(n.Language) == "" {
		n.Language = "plain"
	}
	n.URL = ""
	n.Alt = ""
}

type imageKind struct{}

func (imageKind) Kind() Kind { return KindImage }

func (imageKind) Validate(n *Note) error {
	if strings.TrimSpace(n.URL) == "" {
		return serr.New("image note requires a url")
	}
	return nil
}

func (imageKind) Normalize(n *Note) {
	n.Language = ""
}
