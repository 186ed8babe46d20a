package hub

import (
	"strings"
	"sync"

	"notesync/store"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// The hub keeps one note set per (tenant, user) scope. It is the
// authority clients converge toward: an upsert that arrives with an
// older timestamp than the stored copy loses, and the stored copy is
// returned as canonical. The hub never restamps client timestamps —
// clients own their clocks.

type scope struct {
	notes map[string]store.Note
}

var (
	mu     sync.Mutex
	scopes map[string]*scope
)

// Init prepares the hub's in-memory state and ensures its users table
// exists. Note scopes are loaded lazily on first access.
func Init() error {
	handle := store.DB()
	if handle == nil {
		return serr.New("state database not initialized")
	}

	if _, err := handle.Exec(CreateUsersTableSQL); err != nil {
		return serr.Wrap(err, "failed to create users table")
	}

	mu.Lock()
	scopes = make(map[string]*scope)
	mu.Unlock()

	logger.Info("Hub initialized")
	return nil
}

// scopeKey builds the storage key for a tenant+user note set. Tenant
// and username are validated at registration to exclude the separator.
func scopeKey(tenant, user string) string {
	return "hub_notes_" + tenant + "/" + user
}

// getScope returns the scope for tenant+user, loading it from
// persistence on first touch. Caller must hold mu.
func getScope(tenant, user string) (*scope, error) {
	if scopes == nil {
		return nil, serr.New("hub not initialized")
	}

	key := scopeKey(tenant, user)
	if sc, ok := scopes[key]; ok {
		return sc, nil
	}

	sc := &scope{notes: make(map[string]store.Note)}

	rec, err := store.LoadStateAt(key)
	if err != nil {
		return nil, serr.Wrap(err, "failed to load hub scope", "tenant", tenant, "user", user)
	}
	if rec != nil {
		for _, n := range rec.Notes {
			sc.notes[n.ID] = n
		}
	}

	scopes[key] = sc
	return sc, nil
}

// persistScope writes a scope's notes back to storage. Caller must
// hold mu.
func persistScope(tenant, user string, sc *scope) error {
	notes := make([]store.Note, 0, len(sc.notes))
	for _, n := range sc.notes {
		notes = append(notes, n)
	}
	store.SortNotes(notes)

	rec := &store.StateRecord{Notes: notes}
	if err := store.SaveStateAt(scopeKey(tenant, user), rec); err != nil {
		return serr.Wrap(err, "failed to persist hub scope", "tenant", tenant, "user", user)
	}
	return nil
}

// ListNotes returns all notes in the scope in canonical order.
func ListNotes(tenant, user string) ([]store.Note, error) {
	mu.Lock()
	defer mu.Unlock()

	sc, err := getScope(tenant, user)
	if err != nil {
		return nil, err
	}

	notes := make([]store.Note, 0, len(sc.notes))
	for _, n := range sc.notes {
		notes = append(notes, n)
	}
	store.SortNotes(notes)
	return notes, nil
}

// UpsertNote stores a client's note under last-writer-wins and returns
// the canonical copy. If the stored note is strictly newer the client's
// version is rejected without error — the stored note comes back so the
// client can adopt it. Ties keep the stored copy.
func UpsertNote(tenant, user string, n store.Note) (store.Note, error) {
	if n.ID == "" {
		return store.Note{}, serr.New("note id is required")
	}

	mu.Lock()
	defer mu.Unlock()

	sc, err := getScope(tenant, user)
	if err != nil {
		return store.Note{}, err
	}

	if existing, ok := sc.notes[n.ID]; ok && existing.Updated >= n.Updated {
		logger.Debug("Upsert lost to stored note",
			"note_id", n.ID, "stored_updated", existing.Updated, "incoming_updated", n.Updated)
		return existing, nil
	}

	sc.notes[n.ID] = n
	if err := persistScope(tenant, user, sc); err != nil {
		return store.Note{}, err
	}
	return n, nil
}

// DeleteNote removes a note from the scope. Deleting an id the hub has
// never seen succeeds — double-delete across devices is a normal race.
func DeleteNote(tenant, user, id string) error {
	mu.Lock()
	defer mu.Unlock()

	sc, err := getScope(tenant, user)
	if err != nil {
		return err
	}

	if _, ok := sc.notes[id]; !ok {
		return nil
	}

	delete(sc.notes, id)
	return persistScope(tenant, user, sc)
}

// SearchNotes returns scope notes whose title, content, category, or
// tags contain the query, case-insensitively, in canonical order.
func SearchNotes(tenant, user, query string) ([]store.Note, error) {
	mu.Lock()
	defer mu.Unlock()

	sc, err := getScope(tenant, user)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matches := make([]store.Note, 0)
	for _, n := range sc.notes {
		if q == "" || noteMatches(n, q) {
			matches = append(matches, n)
		}
	}
	store.SortNotes(matches)
	return matches, nil
}

func noteMatches(n store.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	if strings.Contains(strings.ToLower(n.Category), q) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
