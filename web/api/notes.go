package api

import (
	"encoding/json"
	"net/http"

	"notesync/hub"
	"notesync/store"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

// Hub note endpoints. Scope (tenant, user) always comes from the
// validated token, never from query parameters, so a client can only
// ever see its own notes.

// ListNotes handles GET /api/v1/notes
// Returns the full note set for the authenticated scope in canonical
// order. Sync clients pull this and merge locally.
func ListNotes(ctx rweb.Context) error {
	tenant, user := CurrentScope(ctx)

	notes, err := hub.ListNotes(tenant, user)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to list notes"), "tenant", tenant, "user", user)
		return writeError(ctx, http.StatusInternalServerError, "failed to list notes")
	}

	return writeSuccess(ctx, http.StatusOK, notes)
}

// CreateNote handles POST /api/v1/notes
// Stores a client-authored note and returns the canonical copy. The
// client supplies the id and timestamps; the hub only arbitrates.
func CreateNote(ctx rweb.Context) error {
	tenant, user := CurrentScope(ctx)

	var note store.Note
	if err := json.Unmarshal(ctx.Request().Body(), &note); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if note.ID == "" {
		return writeError(ctx, http.StatusBadRequest, "id is required")
	}

	canonical, err := hub.UpsertNote(tenant, user, note)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to store note"), "note_id", note.ID)
		return writeError(ctx, http.StatusInternalServerError, "failed to store note")
	}

	logger.Info("Note stored", "note_id", canonical.ID, "tenant", tenant)
	return writeSuccess(ctx, http.StatusCreated, canonical)
}

// UpdateNote handles PUT /api/v1/notes/:id
// Last-writer-wins: if the stored copy is newer it is returned
// unchanged and the client is expected to adopt it.
func UpdateNote(ctx rweb.Context) error {
	tenant, user := CurrentScope(ctx)
	id := ctx.Request().Param("id")

	var note store.Note
	if err := json.Unmarshal(ctx.Request().Body(), &note); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if note.ID == "" {
		note.ID = id
	}
	if note.ID != id {
		return writeError(ctx, http.StatusBadRequest, "body id does not match path id")
	}

	canonical, err := hub.UpsertNote(tenant, user, note)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to update note"), "note_id", id)
		return writeError(ctx, http.StatusInternalServerError, "failed to update note")
	}

	return writeSuccess(ctx, http.StatusOK, canonical)
}

// DeleteNote handles DELETE /api/v1/notes/:id
// Succeeds even when the id is unknown — double-delete across devices
// is a normal race, not an error.
func DeleteNote(ctx rweb.Context) error {
	tenant, user := CurrentScope(ctx)
	id := ctx.Request().Param("id")

	if err := hub.DeleteNote(tenant, user, id); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to delete note"), "note_id", id)
		return writeError(ctx, http.StatusInternalServerError, "failed to delete note")
	}

	return writeSuccess(ctx, http.StatusOK, nil)
}

// SearchNotes handles GET /api/v1/notes/search?q=...
// Case-insensitive substring search over title, content, category, and
// tags within the authenticated scope.
func SearchNotes(ctx rweb.Context) error {
	tenant, user := CurrentScope(ctx)
	query := ctx.Request().QueryParam("q")

	notes, err := hub.SearchNotes(tenant, user, query)
	if err != nil {
		logger.LogErr(serr.Wrap(err, "search failed"), "tenant", tenant, "user", user)
		return writeError(ctx, http.StatusInternalServerError, "search failed")
	}

	return writeSuccess(ctx, http.StatusOK, notes)
}

// Health handles GET /api/v1/health
// Unauthenticated connectivity probe used by sync clients to decide
// eligibility.
func Health(ctx rweb.Context) error {
	return writeSuccess(ctx, http.StatusOK, map[string]string{"status": "ok"})
}
