package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/conorfennell/studyhall/internal/config"
	"github.com/conorfennell/studyhall/internal/storage"
	"github.com/conorfennell/studyhall/internal/sync"
	"github.com/conorfennell/studyhall/internal/web"
)

func main() {
	flags := config.Flags()
	syncOnStart := flags.Bool("sync-on-start", false, "Sync all registered deck sources before serving")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("Database opened", "path", cfg.DBPath)

	if *syncOnStart {
		if err := sync.Run(db, cfg.ReposDir); err != nil {
			slog.Error("Startup sync failed", "error", err)
		}
	}

	srv := web.NewServer(db, web.Config{
		ReviewQueueLimit: cfg.ReviewQueueLimit,
		MatchLimit:       cfg.MatchLimit,
		HoursPerDay:      cfg.HoursPerDay,
		ReposDir:         cfg.ReposDir,
	})

	slog.Info("Listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
