package web

import (
	"net/http"

	"notesync/web/api"
	"notesync/web/pages"

	"github.com/rohanthewiz/rweb"
)

// setupRoutes configures all application routes
func setupRoutes(s *rweb.Server) {
	// Status page - HTML response
	s.Get("/status", func(ctx rweb.Context) error {
		ctx.Response().SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.WriteHTML(pages.StatusPage())
	})

	// Health check - unauthenticated so sync clients can probe
	s.Get("/api/v1/health", api.Health)

	// Auth endpoints
	s.Post("/api/v1/auth/register", api.Register)
	s.Post("/api/v1/auth/login", api.Login)
	s.Post("/api/v1/auth/refresh", authed(api.RefreshToken))

	// Hub note endpoints - scope comes from the token
	s.Get("/api/v1/notes", authed(api.ListNotes))
	s.Post("/api/v1/notes", authed(api.CreateNote))
	s.Put("/api/v1/notes/:id", authed(api.UpdateNote))
	s.Delete("/api/v1/notes/:id", authed(api.DeleteNote))
	s.Get("/api/v1/notes/search", authed(api.SearchNotes))

	// Local app endpoints - this device's collection and coordinator
	s.Get("/api/v1/sync/status", api.SyncStatus)
	s.Post("/api/v1/sync/now", api.SyncNow)
	s.Post("/api/v1/sync/eligibility", api.SyncEligibility)
	s.Get("/api/v1/export", api.ExportState)
	s.Post("/api/v1/import", api.ImportState)
}

// authed wraps a handler so it only runs for authenticated requests.
// JWTAuthMiddleware has already populated the context by the time the
// handler runs.
func authed(h rweb.Handler) rweb.Handler {
	return func(c rweb.Context) error {
		if !api.IsAuthenticated(c) {
			c.SetStatus(http.StatusUnauthorized)
			return c.WriteJSON(map[string]interface{}{
				"success": false,
				"error":   "authentication required",
			})
		}
		return h(c)
	}
}
