package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"notesync/store"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Coordinator orchestrates sync between the local collection and the
// hub: it decides eligibility, pulls and merges the remote set, drains
// the pending queue, and delegates search. Every failure it sees is
// converted to observable state — a sync problem delays cross-device
// visibility but never blocks local note editing.
type Coordinator struct {
	col    *store.Collection
	client RemoteClient
	cfg    *Config

	// eligible is the "connected + authenticated" gate. Toggling it
	// off stops network activity immediately; local data and pending
	// membership are untouched so a later resume flushes exactly what
	// is still pending.
	eligible atomic.Bool

	// pulling makes Pull single-flight: an overlapping call is dropped,
	// not queued, relying on the next scheduled pull to converge.
	pulling atomic.Bool

	// searchGen discards stale search responses: a response is applied
	// only if its generation still matches the latest issued request.
	searchGen atomic.Int64

	mu            sync.Mutex
	lastSyncedAt  time.Time
	syncError     string
	searchResults []store.Note
	known         map[string]bool // ids confirmed to exist on the hub
}

// Status is the coordinator's observable state for UI display.
type Status struct {
	Eligible     bool       `json:"eligible"`
	InProgress   bool       `json:"in_progress"`
	LastSyncedAt *time.Time `json:"last_synced_at"` // nil if never synced
	SyncError    string     `json:"sync_error,omitempty"`
	PendingCount int        `json:"pending_count"`
}

// NewCoordinator wires a coordinator to a collection and remote client.
func NewCoordinator(col *store.Collection, client RemoteClient, cfg *Config) *Coordinator {
	return &Coordinator{
		col:    col,
		client: client,
		cfg:    cfg,
		known:  make(map[string]bool),
	}
}

// SetEligible toggles the sync gate. Never discards local data or
// pending queue membership.
func (co *Coordinator) SetEligible(eligible bool) {
	co.eligible.Store(eligible)
	logger.Info("Sync eligibility changed", "eligible", eligible)
}

// Eligible reports whether sync may touch the network.
func (co *Coordinator) Eligible() bool {
	return co.eligible.Load()
}

// Status returns the current sync state.
func (co *Coordinator) Status() Status {
	co.mu.Lock()
	defer co.mu.Unlock()

	st := Status{
		Eligible:     co.eligible.Load(),
		InProgress:   co.pulling.Load(),
		SyncError:    co.syncError,
		PendingCount: co.col.PendingLen(),
	}
	if !co.lastSyncedAt.IsZero() {
		t := co.lastSyncedAt
		st.LastSyncedAt = &t
	}
	return st
}

// Pull fetches the remote note set and merges it into the local
// collection under last-writer-wins. Single-flight: an overlapping
// call returns immediately. A failed pull records syncError and leaves
// local state untouched — it is read-only on local data until the
// merge commits via ReplaceAll.
func (co *Coordinator) Pull(ctx context.Context) error {
	if !co.eligible.Load() {
		return nil
	}
	if !co.pulling.CompareAndSwap(false, true) {
		return nil // Another pull is in flight; drop, don't queue
	}
	defer co.pulling.Store(false)

	remote, err := co.client.ListNotes(ctx, co.cfg.Tenant, co.cfg.Username)
	if err != nil {
		co.recordError(err)
		return serr.Wrap(err, "pull failed")
	}

	merged := store.Merge(co.col.All(), remote)
	co.col.ReplaceAll(merged)

	co.mu.Lock()
	for _, n := range remote {
		co.known[n.ID] = true
	}
	co.lastSyncedAt = time.Now()
	co.syncError = ""
	co.mu.Unlock()

	logger.Info("Pull merged remote notes",
		"remote_count", len(remote),
		"merged_count", len(merged),
	)
	return nil
}

// PushPending attempts every due pending id against the hub. One
// failing note never blocks the others and nothing is thrown out of
// this call: failures re-queue the id with backoff and move on.
func (co *Coordinator) PushPending(ctx context.Context) {
	if !co.eligible.Load() {
		return
	}

	now := time.Now()
	for _, id := range co.col.PendingDue(now) {
		if err := co.pushOne(ctx, id); err != nil {
			co.col.PendingFail(id, now)
			co.recordError(err)
			logger.LogErr(err, "failed to push pending note", "note_id", id)
		}
	}
}

// pushOne sends a single pending id: a deletion when the note was
// removed locally, otherwise create-or-update depending on whether the
// hub has seen the id. On success the local copy is replaced with the
// server-returned canonical note.
func (co *Coordinator) pushOne(ctx context.Context, id string) error {
	if co.col.WasRemoved(id) {
		if err := co.client.DeleteNote(ctx, id); err != nil {
			return err
		}
		co.col.ClearPending(id)
		co.mu.Lock()
		delete(co.known, id)
		co.mu.Unlock()
		return nil
	}

	note, ok := co.col.Get(id)
	if !ok {
		// No note and no tombstone: stale queue entry, drop it.
		co.col.ClearPending(id)
		return nil
	}

	co.mu.Lock()
	exists := co.known[id]
	co.mu.Unlock()

	var canonical store.Note
	var err error
	if exists {
		canonical, err = co.client.UpdateNote(ctx, id, note)
	} else {
		canonical, err = co.client.CreateNote(ctx, note)
	}
	if err != nil {
		return err
	}

	co.col.AdoptCanonical(canonical)
	co.col.ClearPending(id)
	co.mu.Lock()
	co.known[canonical.ID] = true
	co.mu.Unlock()
	return nil
}

// Search delegates to the hub and applies the response only if no newer
// search has been issued meanwhile — a slow, stale response is
// discarded silently instead of overwriting fresher results.
func (co *Coordinator) Search(ctx context.Context, query string) ([]store.Note, error) {
	gen := co.searchGen.Add(1)

	if query == "" {
		co.mu.Lock()
		co.searchResults = nil
		co.mu.Unlock()
		return nil, nil
	}

	if !co.eligible.Load() {
		return nil, serr.New("sync is not eligible; remote search unavailable")
	}

	results, err := co.client.SearchNotes(ctx, co.cfg.Tenant, co.cfg.Username, query)
	if err != nil {
		co.recordError(err)
		return nil, serr.Wrap(err, "search failed")
	}

	// Generation check and assignment share the critical section so a
	// stale response can never overwrite a newer one applied in between.
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.searchGen.Load() != gen {
		logger.Debug("Discarding stale search response", "query", query)
		return nil, nil
	}
	co.searchResults = results
	return results, nil
}

// SearchResults returns the most recently applied search results.
func (co *Coordinator) SearchResults() []store.Note {
	co.mu.Lock()
	defer co.mu.Unlock()
	return append([]store.Note(nil), co.searchResults...)
}

// Run drives the background sync loop: an immediate first cycle, then
// one per configured interval until the context ends. The eligibility
// gate is re-checked every cycle.
func (co *Coordinator) Run(ctx context.Context) {
	co.runCycle(ctx)

	ticker := time.NewTicker(co.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			co.runCycle(ctx)
		}
	}
}

// runCycle is one health → pull → push pass. A failed health probe
// records the error and skips the cycle; per-id backoff inside the
// pending queue handles repeated push failures.
func (co *Coordinator) runCycle(ctx context.Context) {
	if !co.eligible.Load() {
		return
	}

	if err := co.client.Health(ctx); err != nil {
		co.recordError(err)
		logger.LogErr(err, "hub health check failed")
		return
	}

	if err := co.Pull(ctx); err != nil {
		logger.LogErr(err, "sync pull failed")
	}
	co.PushPending(ctx)
}

func (co *Coordinator) recordError(err error) {
	co.mu.Lock()
	co.syncError = err.Error()
	co.mu.Unlock()
}
