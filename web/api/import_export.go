package api

import (
	"errors"
	"net/http"
	"time"

	"notesync/store"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

// ExportState handles GET /api/v1/export
// Serializes the local collection into the portable JSON envelope as a
// file download.
func ExportState(ctx rweb.Context) error {
	if localCollection == nil {
		return writeError(ctx, http.StatusConflict, "local collection not initialized")
	}

	rec := &store.StateRecord{
		Notes:      localCollection.All(),
		Categories: localCollection.Categories(),
	}

	filename := "notesync-export-" + time.Now().Format("20060102-150405") + ".json"
	ctx.Response().SetHeader("Content-Disposition", "attachment; filename="+filename)
	ctx.Response().SetHeader("Content-Type", "application/json")
	ctx.SetStatus(http.StatusOK)
	return ctx.WriteJSON(store.NewEnvelope(rec))
}

// ImportState handles POST /api/v1/import
// Merges the envelope's notes into the live collection under
// last-writer-wins and marks the adopted ones for push, so an import
// behaves like edits from another device rather than wiping live notes.
// A malformed file is a boolean failure, never a panic: the client gets
// {"success": false} with a 400 and local state is untouched. Notes
// without a kind discriminator (legacy exports) default to text.
func ImportState(ctx rweb.Context) error {
	if localCollection == nil {
		return writeError(ctx, http.StatusConflict, "local collection not initialized")
	}

	rec, err := store.Import(ctx.Request().Body())
	if err != nil {
		if errors.Is(err, store.ErrInvalidFormat) {
			logger.Info("Import rejected", "reason", err.Error())
			return writeError(ctx, http.StatusBadRequest, "invalid import file")
		}
		logger.LogErr(serr.Wrap(err, "import failed"))
		return writeError(ctx, http.StatusInternalServerError, "import failed")
	}

	adopted := localCollection.Import(rec.Notes)
	merged := &store.StateRecord{
		Notes:      localCollection.All(),
		Categories: localCollection.Categories(),
	}
	if err := store.SaveState(merged); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to persist imported state"))
	}

	logger.Info("Import applied", "file_count", len(rec.Notes), "adopted", adopted)
	return writeSuccess(ctx, http.StatusOK, map[string]int{"imported": adopted})
}
