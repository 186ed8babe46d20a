package api

import (
	"context"
	"encoding/json"
	"net/http"

	"notesync/store"
	"notesync/sync"

	"github.com/rohanthewiz/rweb"
)

// The local-app endpoints below operate on this device's collection and
// sync coordinator, wired in once at startup. nil means sync was not
// configured; status still answers so the UI can show "disabled".
var (
	localCollection *store.Collection
	coordinator     *sync.Coordinator
)

// SetLocal wires the local collection and coordinator into the API.
// Must be called before the server starts.
func SetLocal(col *store.Collection, co *sync.Coordinator) {
	localCollection = col
	coordinator = co
}

// LocalStatusView is a display-friendly snapshot for the status page.
type LocalStatusView struct {
	Eligible     bool
	InProgress   bool
	PendingCount int
	LastSynced   string
	SyncError    string
}

// LocalStatus flattens the coordinator status for HTML rendering.
// Safe to call when sync is not configured.
func LocalStatus() LocalStatusView {
	view := LocalStatusView{LastSynced: "never"}
	if coordinator == nil {
		return view
	}

	st := coordinator.Status()
	view.Eligible = st.Eligible
	view.InProgress = st.InProgress
	view.PendingCount = st.PendingCount
	view.SyncError = st.SyncError
	if st.LastSyncedAt != nil {
		view.LastSynced = st.LastSyncedAt.Format("2006-01-02 15:04:05")
	}
	return view
}

// SyncStatus handles GET /api/v1/sync/status
// Reports eligibility, last sync time, last error, and pending count.
func SyncStatus(ctx rweb.Context) error {
	if coordinator == nil {
		return writeSuccess(ctx, http.StatusOK, map[string]interface{}{
			"eligible": false,
			"enabled":  false,
		})
	}
	return writeSuccess(ctx, http.StatusOK, coordinator.Status())
}

// SyncNow handles POST /api/v1/sync/now
// Triggers an immediate pull-then-push cycle. An overlapping pull is
// skipped by the coordinator's single-flight guard.
func SyncNow(ctx rweb.Context) error {
	if coordinator == nil {
		return writeError(ctx, http.StatusConflict, "sync is not configured")
	}

	reqCtx := context.Background()
	if err := coordinator.Pull(reqCtx); err != nil {
		// Status carries the detail; the trigger itself succeeded
		return writeSuccess(ctx, http.StatusOK, coordinator.Status())
	}
	coordinator.PushPending(reqCtx)

	return writeSuccess(ctx, http.StatusOK, coordinator.Status())
}

// SyncEligibility handles POST /api/v1/sync/eligibility
// Toggles the sync gate without touching local data or the pending
// queue.
//
// Request body: { "eligible": true }
func SyncEligibility(ctx rweb.Context) error {
	if coordinator == nil {
		return writeError(ctx, http.StatusConflict, "sync is not configured")
	}

	var input struct {
		Eligible bool `json:"eligible"`
	}
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	coordinator.SetEligible(input.Eligible)
	return writeSuccess(ctx, http.StatusOK, coordinator.Status())
}
