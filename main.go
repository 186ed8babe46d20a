package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"notesync/hub"
	"notesync/store"
	"notesync/sync"
	"notesync/web"
	"notesync/web/api"

	"github.com/rohanthewiz/logger"
)

func main() {
	logLevel := os.Getenv("NOTESYNC_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.SetLogLevel(logLevel)

	dbPath := os.Getenv("NOTESYNC_DB_PATH")
	if dbPath == "" {
		dbPath = "notesync.db"
	}
	if err := store.InitDB(dbPath); err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer store.CloseDB()

	if err := hub.InitJWT(); err != nil {
		log.Fatal("Failed to initialize JWT: ", err)
	}
	if err := hub.Init(); err != nil {
		log.Fatal("Failed to initialize hub: ", err)
	}

	// Restore local state from the last run
	col := store.NewCollection(store.SystemClock{})
	rec, err := store.LoadState()
	if err != nil {
		log.Fatal("Failed to load local state: ", err)
	}
	if rec != nil {
		col.ReplaceAll(rec.Notes)
		logger.Info("Local state restored", "note_count", len(rec.Notes))
	}

	// Sync is optional; the app is fully functional offline
	cfg, err := sync.LoadConfig()
	if err != nil {
		log.Fatal("Invalid sync configuration: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var coordinator *sync.Coordinator
	if cfg.Enabled {
		client, err := sync.NewHTTPClient(cfg)
		if err != nil {
			log.Fatal("Failed to create sync client: ", err)
		}
		coordinator = sync.NewCoordinator(col, client, cfg)
		coordinator.SetEligible(true)
		go coordinator.Run(ctx)
		logger.Info("Sync enabled", "hub_url", cfg.HubURL, "interval", cfg.Interval.String())
	} else {
		logger.Info("Sync disabled; running offline")
	}

	api.SetLocal(col, coordinator)

	// Persist local state on shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down, persisting state")
		cancel()
		saveRec := &store.StateRecord{
			Notes:      col.All(),
			Categories: col.Categories(),
		}
		if err := store.SaveState(saveRec); err != nil {
			logger.LogErr(err, "failed to persist state on shutdown")
		}
		store.CloseDB()
		os.Exit(0)
	}()

	srv := web.NewServer()
	log.Fatal(web.Run(srv))
}
