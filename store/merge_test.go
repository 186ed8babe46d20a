package store

import (
	"reflect"
	"testing"
)

func mkNote(id string, created, updated int64, title string) Note {
	return Note{ID: id, Kind: KindText, Title: title, Created: created, Updated: updated}
}

func TestMergeRemoteNewerWins(t *testing.T) {
	local := []Note{mkNote("a", 1, 5, "local")}
	remote := []Note{mkNote("a", 1, 9, "remote")}

	got := Merge(local, remote)
	if len(got) != 1 {
		t.Fatalf("merged len = %d, want 1", len(got))
	}
	if got[0].Title != "remote" {
		t.Errorf("title = %q, want remote (newer)", got[0].Title)
	}
}

func TestMergeLocalNewerWins(t *testing.T) {
	local := []Note{mkNote("a", 1, 9, "local")}
	remote := []Note{mkNote("a", 1, 5, "remote")}

	got := Merge(local, remote)
	if got[0].Title != "local" {
		t.Errorf("title = %q, want local (newer)", got[0].Title)
	}
}

func TestMergeTieKeepsLocal(t *testing.T) {
	local := []Note{mkNote("a", 1, 5, "local")}
	remote := []Note{mkNote("a", 1, 5, "remote")}

	got := Merge(local, remote)
	if got[0].Title != "local" {
		t.Errorf("title = %q, want local on tie", got[0].Title)
	}
}

func TestMergeAdoptsRemoteOnly(t *testing.T) {
	local := []Note{mkNote("a", 1, 1, "mine")}
	remote := []Note{
		mkNote("a", 1, 1, "mine"),
		mkNote("b", 2, 2, "other device"),
	}

	got := Merge(local, remote)
	if len(got) != 2 {
		t.Fatalf("merged len = %d, want 2", len(got))
	}
}

func TestMergePreservesLocalOnly(t *testing.T) {
	// A note the hub has never seen must survive every pull
	local := []Note{
		mkNote("a", 1, 1, "shared"),
		mkNote("offline", 2, 2, "created offline"),
	}
	remote := []Note{mkNote("a", 1, 1, "shared")}

	got := Merge(local, remote)
	if len(got) != 2 {
		t.Fatalf("merged len = %d, want 2", len(got))
	}

	found := false
	for _, n := range got {
		if n.ID == "offline" {
			found = true
		}
	}
	if !found {
		t.Error("local-only note dropped by merge")
	}
}

func TestMergeIdempotent(t *testing.T) {
	local := []Note{
		mkNote("a", 1, 5, "la"),
		mkNote("b", 2, 3, "lb"),
	}
	remote := []Note{
		mkNote("a", 1, 7, "ra"),
		mkNote("c", 3, 1, "rc"),
	}

	once := Merge(local, remote)
	twice := Merge(once, remote)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestMergeDeterministicOrder(t *testing.T) {
	local := []Note{
		mkNote("z", 5, 5, ""),
		mkNote("a", 5, 5, ""), // same stamps: id breaks the tie
		mkNote("m", 1, 9, ""),
	}

	got := Merge(local, nil)

	ids := make([]string, len(got))
	for i, n := range got {
		ids[i] = n.ID
	}
	want := []string{"m", "a", "z"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestSortNotesStable(t *testing.T) {
	notes := []Note{
		{ID: "b", Created: 2, Updated: 2},
		{ID: "a", Created: 1, Updated: 5},
		{ID: "c", Created: 2, Updated: 1},
	}
	SortNotes(notes)

	want := []string{"a", "c", "b"}
	for i, n := range notes {
		if n.ID != want[i] {
			t.Fatalf("sorted ids = %v at %d, want %v", n.ID, i, want)
		}
	}
}
