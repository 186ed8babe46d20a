package store

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExportImportRoundTrip(t *testing.T) {
	rec := &StateRecord{
		Notes: []Note{
			{ID: "1", Kind: KindMarkdown, Title: "readme", Created: 1, Updated: 2, Category: "docs"},
			{ID: "2", Kind: KindCode, Title: "snippet", Language: "go", Created: 3, Updated: 4},
		},
		SearchQuery: "rea",
		SortBy:      "updated",
	}

	raw, err := Export(rec)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var env ExportEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if env.Version != ExportVersion {
		t.Errorf("version = %q, want %q", env.Version, ExportVersion)
	}

	got, err := Import(raw)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(got.Notes) != 2 {
		t.Fatalf("imported %d notes, want 2", len(got.Notes))
	}
	if got.Notes[0].Kind != KindMarkdown || got.Notes[1].Language != "go" {
		t.Error("note payloads did not round-trip")
	}
	// Category cache is rebuilt from the notes, never trusted
	if len(got.Categories) != 1 || got.Categories[0] != "docs" {
		t.Errorf("categories = %v, want [docs]", got.Categories)
	}
}

func TestImportLegacyKindDefaultsToText(t *testing.T) {
	raw := []byte(`{
		"version": "1.0",
		"exportDate": "2024-01-01T00:00:00Z",
		"data": {
			"notes": [
				{"id": "old-1", "title": "pre-kind note", "created": 1, "updated": 1},
				{"id": "old-2", "kind": "hologram", "title": "unknown kind", "created": 2, "updated": 2}
			]
		}
	}`)

	got, err := Import(raw)
	if err != nil {
		t.Fatalf("Import of legacy file failed: %v", err)
	}
	for _, n := range got.Notes {
		if n.Kind != KindText {
			t.Errorf("note %s kind = %q, want text", n.ID, n.Kind)
		}
	}
}

func TestImportMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"missing version", `{"data": {"notes": []}}`},
		{"note without id", `{"version": "2.0", "data": {"notes": [{"title": "nameless"}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Import([]byte(tc.raw))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}
