package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidFormat is returned when persisted or imported state cannot
// be decoded. The HTTP import endpoint maps it to a boolean failure
// response; it is never allowed to escape as a panic.
var ErrInvalidFormat = errors.New("invalid state format")

// Persisted layout: one versioned record per storage key in a k/v
// table, with the schema version under a separate marker key so a
// loader can decide how to decode before touching the blob.
const (
	StateKey = "notesync_state"

	stateVersionSuffix = "_version"

	// StateVersion is the current record schema. Version "1" records
	// predate the kind discriminator and are decoded with kind
	// defaulting.
	StateVersion       = "2"
	stateVersionLegacy = "1"
)

// DDLCreateAppStateTable holds every persisted record, keyed like a
// browser storage area: one value per key, last write wins.
const DDLCreateAppStateTable = `
CREATE TABLE IF NOT EXISTS app_state (
    key        VARCHAR PRIMARY KEY,
    value      BLOB,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// StateRecord is the single persisted unit of local state. Categories
// is a cache of the index's visible list for fast cold starts — never
// a second source of truth; it is rebuilt from Notes on load.
type StateRecord struct {
	Notes            []Note   `json:"notes" msgpack:"notes"`
	Categories       []string `json:"categories" msgpack:"categories"`
	SearchQuery      string   `json:"searchQuery" msgpack:"search_query"`
	SelectedCategory string   `json:"selectedCategory" msgpack:"selected_category"`
	SortBy           string   `json:"sortBy" msgpack:"sort_by"`
	SortOrder        string   `json:"sortOrder" msgpack:"sort_order"`
}

var (
	db   *sql.DB
	dbMu sync.Mutex
)

// InitDB opens the DuckDB file backing local persistence and ensures
// the schema exists.
func InitDB(path string) error {
	dbMu.Lock()
	defer dbMu.Unlock()

	var err error
	db, err = sql.Open("duckdb", path)
	if err != nil {
		return serr.Wrap(err, "failed to open state database")
	}

	if _, err = db.Exec(DDLCreateAppStateTable); err != nil {
		return serr.Wrap(err, "failed to create app_state table")
	}

	logger.Info("State database ready", "path", path)
	return nil
}

// InitTestDB opens a throwaway database for tests.
func InitTestDB(path string) error {
	return InitDB(path)
}

// CloseDB closes the database connection.
func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if db != nil {
		db.Close()
		db = nil
	}
}

// DB exposes the underlying handle for packages that keep their own
// tables beside the state records (the hub's users table). Returns nil
// when persistence is not initialized.
func DB() *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()
	return db
}

// SaveState persists the record under the default storage key.
func SaveState(rec *StateRecord) error {
	return SaveStateAt(StateKey, rec)
}

// LoadState loads the record from the default storage key.
func LoadState() (*StateRecord, error) {
	return LoadStateAt(StateKey)
}

// SaveStateAt msgpack-encodes the record and writes it plus its version
// marker in one transaction, so a crash can never leave a record whose
// marker disagrees with its encoding.
func SaveStateAt(key string, rec *StateRecord) error {
	handle := DB()
	if handle == nil {
		return serr.New("state database not initialized")
	}

	blob, err := msgpack.Marshal(rec)
	if err != nil {
		return serr.Wrap(err, "failed to encode state record")
	}

	tx, err := handle.Begin()
	if err != nil {
		return serr.Wrap(err, "failed to begin state write")
	}
	defer tx.Rollback()

	upsert := `
		INSERT OR REPLACE INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`
	if _, err = tx.Exec(upsert, key, blob); err != nil {
		return serr.Wrap(err, "failed to write state record")
	}
	if _, err = tx.Exec(upsert, key+stateVersionSuffix, []byte(StateVersion)); err != nil {
		return serr.Wrap(err, "failed to write state version marker")
	}

	return tx.Commit()
}

// LoadStateAt reads a record by storage key. Returns nil, nil when the
// key has never been written (first run). A version-"1" record is
// accepted and upgraded in memory: notes without a kind become text.
func LoadStateAt(key string) (*StateRecord, error) {
	handle := DB()
	if handle == nil {
		return nil, serr.New("state database not initialized")
	}

	version, err := readStateValue(handle, key+stateVersionSuffix)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, nil // Never persisted
	}

	switch string(version) {
	case StateVersion, stateVersionLegacy:
	default:
		return nil, fmt.Errorf("%w: unknown state version %s", ErrInvalidFormat, version)
	}

	blob, err := readStateValue(handle, key)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, fmt.Errorf("%w: state version marker present but record missing", ErrInvalidFormat)
	}

	rec := &StateRecord{}
	if err := msgpack.Unmarshal(blob, rec); err != nil {
		return nil, fmt.Errorf("%w: failed to decode state record: %v", ErrInvalidFormat, err)
	}

	normalizeRecord(rec)
	return rec, nil
}

func readStateValue(handle *sql.DB, key string) ([]byte, error) {
	var value []byte
	err := handle.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, serr.Wrap(err, "failed to read app_state key "+key)
	}
	return value, nil
}

// normalizeRecord repairs what decoding alone cannot guarantee: legacy
// notes default to the text kind, unrecognized kinds fall back to text,
// and the category cache is rebuilt from the notes themselves.
func normalizeRecord(rec *StateRecord) {
	index := NewCategoryIndex()
	for i := range rec.Notes {
		if rec.Notes[i].Kind == "" {
			rec.Notes[i].Kind = KindText
		}
		if _, ok := HandlerFor(rec.Notes[i].Kind); !ok {
			logger.Debug("Unrecognized note kind on load, defaulting to text",
				"note_id", rec.Notes[i].ID, "kind", string(rec.Notes[i].Kind))
			rec.Notes[i].Kind = KindText
		}
		index.Track(rec.Notes[i].Category)
	}
	rec.Categories = index.Visible()
}
