package web

import (
	"os"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// defaultAddress is used when NOTESYNC_LISTEN is not set
const defaultAddress = ":8000"

// NewServer creates and configures the RWeb server
func NewServer() *rweb.Server {
	address := os.Getenv("NOTESYNC_LISTEN")
	if address == "" {
		address = defaultAddress
	}

	s := rweb.NewServer(rweb.ServerOptions{
		Address: address,
		Verbose: true,
	})

	// Apply middleware
	s.Use(rweb.RequestInfo)          // Logs request info
	s.Use(SecurityHeadersMiddleware) // Security headers
	s.Use(JWTAuthMiddleware)         // Populates auth context, never blocks
	s.Use(LoggingMiddleware)         // Request logging

	setupRoutes(s)

	return s
}

// Run starts the server
func Run(s *rweb.Server) error {
	logger.Info("NoteSync server starting")
	return s.Run()
}
