package store

import (
	"errors"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func kindPtr(k Kind) *Kind    { return &k }

func TestCollectionCreate(t *testing.T) {
	clock := &fakeClock{now: 1000}
	col := NewCollection(clock)

	note, err := col.Create(NoteInput{
		Title:    strPtr("groceries"),
		Category: strPtr("  errands  "),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if note.ID == "" {
		t.Error("created note has no id")
	}
	if note.Kind != KindText {
		t.Errorf("kind = %s, want default text", note.Kind)
	}
	if note.Created != 1000 || note.Updated != 1000 {
		t.Errorf("timestamps = %d/%d, want 1000/1000", note.Created, note.Updated)
	}
	if note.Category != "errands" {
		t.Errorf("category = %q, want trimmed %q", note.Category, "errands")
	}
	if col.CategoryCount("errands") != 1 {
		t.Errorf("category count = %d, want 1", col.CategoryCount("errands"))
	}
	if !col.PendingContains(note.ID) {
		t.Error("created note not marked pending")
	}
}

func TestCollectionCreateImageRequiresURL(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	_, err := col.Create(NoteInput{Kind: kindPtr(KindImage), Title: strPtr("pic")})
	if err == nil {
		t.Fatal("image note without url should fail validation")
	}
}

func TestCollectionCreateCodeDefaultsLanguage(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, err := col.Create(NoteInput{Kind: kindPtr(KindCode), Title: strPtr("snippet")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if note.Language != "plain" {
		t.Errorf("language = %q, want default plain", note.Language)
	}
}

func TestCollectionUpdate(t *testing.T) {
	clock := &fakeClock{now: 1000}
	col := NewCollection(clock)

	note, _ := col.Create(NoteInput{Title: strPtr("a"), Category: strPtr("one")})

	// Frozen clock: updated must still advance
	got, err := col.Update(note.ID, NoteInput{
		Title:    strPtr("b"),
		Category: strPtr("two"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got.Updated <= note.Updated {
		t.Errorf("updated did not advance: %d -> %d", note.Updated, got.Updated)
	}
	if got.Created != note.Created {
		t.Errorf("created changed on update: %d -> %d", note.Created, got.Created)
	}
	if got.ID != note.ID {
		t.Errorf("id changed on update")
	}

	// Index must reflect the category move atomically
	if col.CategoryCount("one") != 0 {
		t.Errorf("old category count = %d, want 0", col.CategoryCount("one"))
	}
	if col.CategoryCount("two") != 1 {
		t.Errorf("new category count = %d, want 1", col.CategoryCount("two"))
	}
}

func TestCollectionUpdateUnknownID(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	_, err := col.Update("nope", NoteInput{Title: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update of unknown id err = %v, want ErrNotFound", err)
	}
}

func TestCollectionUpdatePartial(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, _ := col.Create(NoteInput{Title: strPtr("keep"), Content: strPtr("body")})

	got, err := col.Update(note.ID, NoteInput{Content: strPtr("new body")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Title != "keep" {
		t.Errorf("unset field changed: title = %q", got.Title)
	}
	if got.Content != "new body" {
		t.Errorf("content = %q, want new body", got.Content)
	}
}

func TestCollectionRemove(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, _ := col.Create(NoteInput{Title: strPtr("bye"), Category: strPtr("c")})
	col.ClearPending(note.ID) // simulate a confirmed push first

	col.Remove(note.ID)

	if _, ok := col.Get(note.ID); ok {
		t.Error("removed note still present")
	}
	if col.CategoryCount("c") != 0 {
		t.Errorf("category count after remove = %d, want 0", col.CategoryCount("c"))
	}
	if !col.WasRemoved(note.ID) {
		t.Error("removed note has no tombstone")
	}
	if !col.PendingContains(note.ID) {
		t.Error("deletion not marked pending")
	}

	// Double delete is a silent no-op
	col.Remove(note.ID)
	col.Remove("never-existed")
}

func TestCollectionArchiveKeepsCategory(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, _ := col.Create(NoteInput{Title: strPtr("a"), Category: strPtr("keep")})

	got, err := col.Archive(note.ID)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if !got.Archived {
		t.Error("note not archived")
	}
	if col.CategoryCount("keep") != 1 {
		t.Errorf("archived note left its category, count = %d", col.CategoryCount("keep"))
	}

	got, err = col.Unarchive(note.ID)
	if err != nil {
		t.Fatalf("Unarchive failed: %v", err)
	}
	if got.Archived {
		t.Error("note still archived")
	}
}

func TestCollectionReplaceAllKeepsPending(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, _ := col.Create(NoteInput{Title: strPtr("local edit")})

	col.ReplaceAll([]Note{
		{ID: note.ID, Kind: KindText, Title: "merged", Created: 1, Updated: 2, Category: "x"},
		{ID: "remote-1", Kind: KindText, Title: "from hub", Created: 1, Updated: 1},
	})

	if col.Len() != 2 {
		t.Fatalf("len after replace = %d, want 2", col.Len())
	}
	if !col.PendingContains(note.ID) {
		t.Error("pending membership lost across ReplaceAll")
	}
	if col.CategoryCount("x") != 1 {
		t.Errorf("index not rebuilt, count = %d", col.CategoryCount("x"))
	}
}

func TestCollectionReplaceAllRespectsTombstones(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, _ := col.Create(NoteInput{Title: strPtr("deleted here"), Category: strPtr("c")})
	col.Remove(note.ID)

	// The hub still carries the note until the delete is pushed; a bulk
	// replace with its copy must not bring it back.
	col.ReplaceAll([]Note{
		{ID: note.ID, Kind: KindText, Title: "hub copy", Created: 1, Updated: 1, Category: "c"},
		{ID: "remote-1", Kind: KindText, Title: "from hub", Created: 1, Updated: 1},
	})

	if _, ok := col.Get(note.ID); ok {
		t.Error("replace resurrected a locally deleted note")
	}
	if !col.WasRemoved(note.ID) {
		t.Error("tombstone cleared before the delete was confirmed")
	}
	if !col.PendingContains(note.ID) {
		t.Error("deletion no longer pending after replace")
	}
	if col.CategoryCount("c") != 0 {
		t.Errorf("skipped note still counted in index: %d", col.CategoryCount("c"))
	}
	if col.Len() != 1 {
		t.Fatalf("len after replace = %d, want 1", col.Len())
	}
}

func TestCollectionImportMergesIntoLive(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1000})

	onlyLive, _ := col.Create(NoteInput{Title: strPtr("only live")})
	liveWins, _ := col.Create(NoteInput{Title: strPtr("live copy")})
	fileWins, _ := col.Create(NoteInput{Title: strPtr("old live copy")})
	for _, id := range []string{onlyLive.ID, liveWins.ID, fileWins.ID} {
		col.ClearPending(id)
	}

	adopted := col.Import([]Note{
		{ID: liveWins.ID, Kind: KindText, Title: "stale file copy", Created: liveWins.Created, Updated: liveWins.Updated},
		{ID: fileWins.ID, Kind: KindText, Title: "newer file copy", Created: fileWins.Created, Updated: fileWins.Updated + 100, Category: "inbox"},
		{ID: "only-file", Kind: KindText, Title: "only in file", Created: 1, Updated: 1},
	})

	if adopted != 2 {
		t.Fatalf("adopted = %d, want 2", adopted)
	}
	if _, ok := col.Get(onlyLive.ID); !ok {
		t.Error("import dropped a live note absent from the file")
	}
	if got, _ := col.Get(liveWins.ID); got.Title != "live copy" {
		t.Errorf("tie did not keep the live copy: %q", got.Title)
	}
	if got, _ := col.Get(fileWins.ID); got.Title != "newer file copy" {
		t.Errorf("newer file copy not adopted: %q", got.Title)
	}
	if _, ok := col.Get("only-file"); !ok {
		t.Error("file-only note not adopted")
	}
	if col.CategoryCount("inbox") != 1 {
		t.Errorf("index not reconciled for adopted note: %d", col.CategoryCount("inbox"))
	}

	// Only adopted notes propagate to the hub
	if col.PendingContains(onlyLive.ID) || col.PendingContains(liveWins.ID) {
		t.Error("unadopted notes marked pending")
	}
	if !col.PendingContains(fileWins.ID) || !col.PendingContains("only-file") {
		t.Error("adopted notes not marked pending")
	}
}

func TestCollectionImportSkipsTombstonedIDs(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1000})

	note, _ := col.Create(NoteInput{Title: strPtr("gone")})
	col.Remove(note.ID)

	adopted := col.Import([]Note{
		{ID: note.ID, Kind: KindText, Title: "file copy", Created: 1, Updated: note.Updated + 100},
	})

	if adopted != 0 {
		t.Fatalf("adopted = %d, want 0", adopted)
	}
	if _, ok := col.Get(note.ID); ok {
		t.Error("import resurrected a locally deleted note")
	}
	if !col.WasRemoved(note.ID) {
		t.Error("tombstone cleared by import")
	}
}

func TestCollectionAdoptCanonical(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	note, _ := col.Create(NoteInput{Title: strPtr("draft"), Category: strPtr("a")})
	col.ClearPending(note.ID)

	canonical := note
	canonical.Title = "normalized"
	canonical.Category = "b"
	col.AdoptCanonical(canonical)

	got, _ := col.Get(note.ID)
	if got.Title != "normalized" {
		t.Errorf("title = %q, want normalized", got.Title)
	}
	if col.CategoryCount("a") != 0 || col.CategoryCount("b") != 1 {
		t.Errorf("index not reconciled: a=%d b=%d", col.CategoryCount("a"), col.CategoryCount("b"))
	}
	if col.PendingContains(note.ID) {
		t.Error("AdoptCanonical should not mark pending")
	}
}

func TestCollectionPendingAccounting(t *testing.T) {
	col := NewCollection(&fakeClock{now: 1})

	a, _ := col.Create(NoteInput{Title: strPtr("a")})
	b, _ := col.Create(NoteInput{Title: strPtr("b")})

	due := col.PendingDue(time.Now())
	if len(due) != 2 || due[0] != a.ID || due[1] != b.ID {
		t.Errorf("due = %v, want FIFO [%s %s]", due, a.ID, b.ID)
	}

	col.PendingFail(a.ID, time.Now())
	due = col.PendingDue(time.Now())
	if len(due) != 1 || due[0] != b.ID {
		t.Errorf("due after fail = %v, want only %s", due, b.ID)
	}

	col.ClearPending(a.ID)
	col.ClearPending(b.ID)
	if col.PendingLen() != 0 {
		t.Errorf("pending len = %d, want 0", col.PendingLen())
	}
}
