package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
)

// Collection is the authoritative in-process note set. Every mutation
// keeps the category index and the pending queue consistent inside the
// same critical section, so an observer can never see a note with a new
// category while the index still counts the old one.
//
// Mutations are purely local and never wait on the network — that is
// what makes the app usable offline. The sync coordinator drains the
// pending queue separately.
type Collection struct {
	mu      sync.Mutex
	clock   Clock
	notes   map[string]Note
	order   []string
	removed map[string]bool // ids deleted locally, not yet confirmed by the hub
	index   *CategoryIndex
	pending *PendingQueue
}

// NewCollection returns an empty collection stamped by the given clock.
func NewCollection(clock Clock) *Collection {
	return &Collection{
		clock:   clock,
		notes:   make(map[string]Note),
		removed: make(map[string]bool),
		index:   NewCategoryIndex(),
		pending: NewPendingQueue(),
	}
}

// Create builds a note from the input, assigns its id and timestamps,
// and marks it pending for push. The kind defaults to text.
func (c *Collection) Create(input NoteInput) (Note, error) {
	note := Note{Kind: KindText}.apply(input)
	if note.Kind == "" {
		note.Kind = KindText
	}

	handler, ok := HandlerFor(note.Kind)
	if !ok {
		return Note{}, serr.New("unknown note kind: " + string(note.Kind))
	}
	handler.Normalize(&note)
	if err := handler.Validate(&note); err != nil {
		return Note{}, serr.Wrap(err, "invalid note payload")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	note.ID = uuid.New().String()
	now := c.clock.Now()
	note.Created = now
	note.Updated = now

	c.notes[note.ID] = note
	c.order = append(c.order, note.ID)
	delete(c.removed, note.ID)
	c.index.Track(note.Category)
	c.pending.Mark(note.ID)

	return note, nil
}

// Update applies a partial update to an existing note. The new updated
// stamp is strictly greater than the previous one even when the wall
// clock has not advanced. Returns ErrNotFound when the id is absent.
func (c *Collection) Update(id string, input NoteInput) (Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}

	merged := existing.apply(input)
	handler, hok := HandlerFor(merged.Kind)
	if !hok {
		return Note{}, serr.New("unknown note kind: " + string(merged.Kind))
	}
	handler.Normalize(&merged)
	if err := handler.Validate(&merged); err != nil {
		return Note{}, serr.Wrap(err, "invalid note payload")
	}

	merged.ID = existing.ID
	merged.Created = existing.Created
	merged.Updated = NextTimestamp(c.clock, existing.Updated)

	c.notes[id] = merged
	c.index.Reconcile(existing.Category, merged.Category)
	c.pending.Mark(id)

	return merged, nil
}

// Remove deletes a note. Removing an absent id is a silent no-op:
// concurrent double-delete is a normal race, not an error. The id stays
// pending so the deletion propagates to the hub.
func (c *Collection) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	note, ok := c.notes[id]
	if !ok {
		return
	}

	delete(c.notes, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.removed[id] = true
	c.index.Untrack(note.Category)
	c.pending.Mark(id)
}

// Archive hides a note from default views without touching its
// category membership.
func (c *Collection) Archive(id string) (Note, error) {
	archived := true
	return c.Update(id, NoteInput{Archived: &archived})
}

// Unarchive restores an archived note.
func (c *Collection) Unarchive(id string) (Note, error) {
	archived := false
	return c.Update(id, NoteInput{Archived: &archived})
}

// ReplaceAll bulk-sets the collection — the merge commit path — and
// rebuilds the category index from scratch so there is a single source
// of truth. Pending membership survives, and an id with a live deletion
// tombstone is skipped: until the hub confirms the delete, a pull must
// not resurrect the note. Only ClearPending retires a tombstone.
func (c *Collection) ReplaceAll(notes []Note) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notes = make(map[string]Note, len(notes))
	c.order = make([]string, 0, len(notes))
	kept := make([]Note, 0, len(notes))
	for _, n := range notes {
		if c.removed[n.ID] {
			continue
		}
		c.notes[n.ID] = n
		c.order = append(c.order, n.ID)
		kept = append(kept, n)
	}
	c.index.Rebuild(kept)
}

// Import merges external notes into the live set under last-writer-wins
// — an import is an edit source like any other device, not a wholesale
// replacement. Each adopted note is marked pending so the import
// propagates to the hub; ties keep the live copy and tombstoned ids are
// skipped. Returns the number of notes adopted.
func (c *Collection) Import(notes []Note) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	adopted := 0
	for _, n := range notes {
		if c.removed[n.ID] {
			continue
		}
		existing, ok := c.notes[n.ID]
		if ok && existing.Updated >= n.Updated {
			continue
		}
		if ok {
			c.index.Reconcile(existing.Category, n.Category)
		} else {
			c.order = append(c.order, n.ID)
			c.index.Track(n.Category)
		}
		c.notes[n.ID] = n
		c.pending.Mark(n.ID)
		adopted++
	}
	return adopted
}

// AdoptCanonical replaces a note with the hub's canonical copy after a
// confirmed push. The server may have normalized fields; taking its
// version verbatim keeps both sides byte-identical. Does not mark the
// note pending — this is the one mutation that is already synced.
func (c *Collection) AdoptCanonical(n Note) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.notes[n.ID]
	if !ok {
		return
	}
	c.notes[n.ID] = n
	c.index.Reconcile(existing.Category, n.Category)
}

// Get returns a note by id.
func (c *Collection) Get(id string) (Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.notes[id]
	return n, ok
}

// All returns a copy of the notes in collection order.
func (c *Collection) All() []Note {
	c.mu.Lock()
	defer c.mu.Unlock()

	notes := make([]Note, 0, len(c.order))
	for _, id := range c.order {
		notes = append(notes, c.notes[id])
	}
	return notes
}

// Len returns the number of notes.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

// Categories returns the sorted visible category list.
func (c *Collection) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Visible()
}

// CategoryCount returns the reference count for one category.
func (c *Collection) CategoryCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Count(name)
}

// WasRemoved reports whether the id was deleted locally and the
// deletion has not yet been confirmed by the hub.
func (c *Collection) WasRemoved(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed[id]
}

// Pending queue accessors — all share the collection mutex so queue
// state is always observed consistently with the note it refers to.

// PendingDue returns the pending ids whose retry backoff has elapsed.
func (c *Collection) PendingDue(now time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Due(now)
}

// PendingFail records a failed push for an id.
func (c *Collection) PendingFail(id string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Fail(id, now)
}

// ClearPending removes an id from the queue after a confirmed push,
// dropping any deletion tombstone with it.
func (c *Collection) ClearPending(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Clear(id)
	delete(c.removed, id)
}

// PendingContains reports queue membership for an id.
func (c *Collection) PendingContains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Contains(id)
}

// PendingLen returns the number of pending ids.
func (c *Collection) PendingLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Len()
}

// PendingSnapshot returns the pending ids in FIFO order.
func (c *Collection) PendingSnapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Snapshot()
}
