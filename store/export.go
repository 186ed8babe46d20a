package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rohanthewiz/serr"
)

// ExportVersion identifies the export envelope schema.
const ExportVersion = "2.0"

// ExportEnvelope wraps the persisted state for file export. The date is
// informational; import decisions key off Version and the per-note kind
// discriminator.
type ExportEnvelope struct {
	Version    string      `json:"version"`
	ExportDate string      `json:"exportDate"`
	Data       StateRecord `json:"data"`
}

// NewEnvelope wraps a state record in the current export envelope.
func NewEnvelope(rec *StateRecord) ExportEnvelope {
	return ExportEnvelope{
		Version:    ExportVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Data:       *rec,
	}
}

// Export serializes the state record into the portable JSON envelope.
func Export(rec *StateRecord) ([]byte, error) {
	out, err := json.MarshalIndent(NewEnvelope(rec), "", "  ")
	if err != nil {
		return nil, serr.Wrap(err, "failed to encode export envelope")
	}
	return out, nil
}

// Import parses an export envelope. Legacy records lacking a kind
// discriminator default to text; structurally invalid input returns
// ErrInvalidFormat rather than panicking, and the caller surfaces that
// as a boolean failure. The category cache in the result is rebuilt
// from the notes, never trusted from the file.
func Import(raw []byte) (*StateRecord, error) {
	var env ExportEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: failed to parse import file: %v", ErrInvalidFormat, err)
	}

	if env.Version == "" {
		return nil, fmt.Errorf("%w: import file missing version", ErrInvalidFormat)
	}

	for _, n := range env.Data.Notes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: import contains a note without an id", ErrInvalidFormat)
		}
	}

	rec := env.Data
	normalizeRecord(&rec)
	return &rec, nil
}
