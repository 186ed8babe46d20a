package store

import (
	"sort"

	"github.com/rohanthewiz/logger"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Merge fuses a local and a remote note set under last-writer-wins at
// whole-note granularity. For each id present on both sides the copy
// with the greater updated stamp survives; an exact tie keeps the local
// copy, which makes the function idempotent — merging the result with
// the same remote set again changes nothing. Remote-only notes are
// adopted (created elsewhere, not yet seen here); local-only notes are
// kept (not yet pushed). A pure function of its inputs: neither slice
// is modified.
//
// The result is sorted by created ascending, then updated, then id, so
// merge output is reproducible regardless of input ordering.
func Merge(local, remote []Note) []Note {
	remoteByID := make(map[string]Note, len(remote))
	for _, rn := range remote {
		remoteByID[rn.ID] = rn
	}

	merged := make([]Note, 0, len(local)+len(remote))
	seen := make(map[string]bool, len(local))

	for _, ln := range local {
		seen[ln.ID] = true
		rn, ok := remoteByID[ln.ID]
		if !ok {
			merged = append(merged, ln)
			continue
		}
		if rn.Updated > ln.Updated {
			logDiscardedEdit(ln, rn)
			merged = append(merged, rn)
		} else {
			merged = append(merged, ln)
		}
	}

	for _, rn := range remote {
		if !seen[rn.ID] {
			merged = append(merged, rn)
		}
	}

	SortNotes(merged)
	return merged
}

// SortNotes orders notes by created ascending, updated ascending, then
// id — the stable order merge output and hub listings share.
func SortNotes(notes []Note) {
	sort.Slice(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Created != b.Created {
			return a.Created < b.Created
		}
		if a.Updated != b.Updated {
			return a.Updated < b.Updated
		}
		return a.ID < b.ID
	})
}

// logDiscardedEdit leaves an audit line when a remote edit overrides
// differing local content. Last-writer-wins discards silently by
// policy; the log is the only trace, so include a diff summary to make
// post-hoc diagnosis possible. Must never block or fail the merge.
func logDiscardedEdit(local, remote Note) {
	if local.Content == remote.Content {
		return
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(local.Content, remote.Content, false)

	var added, removed int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		}
	}

	logger.Info("Remote edit won note merge",
		"note_id", local.ID,
		"local_updated", local.Updated,
		"remote_updated", remote.Updated,
		"chars_added", added,
		"chars_removed", removed,
	)
}
