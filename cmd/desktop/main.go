// Package main provides the embedded backend server for the DocVault
// desktop shell. The UI communicates via REST/WebSocket on localhost.
package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/docvault/docvault/cmd/desktop/handlers"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db"
	"github.com/docvault/docvault/internal/logging"
	"github.com/docvault/docvault/internal/storage"
)

// appVersion is stamped by the desktop build; manifests carry it.
var appVersion = "dev"

func main() {
	cfg, err := config.Load(filepath.Join(config.DefaultDataDir(), config.ConfigFileName))
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logging.Init(os.Stdout, cfg.LogLevel, cfg.LogConsole)

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		logging.Error("failed to open database", err)
		os.Exit(1)
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		logging.Error("failed to initialize migrations", err)
		os.Exit(1)
	}
	if err := migrator.Up(); err != nil {
		logging.Error("failed to apply migrations", err)
		os.Exit(1)
	}

	repo := db.NewRepository(database.DB)
	defer repo.Close()

	files, err := storage.NewManager(cfg.AttachmentsDir, cfg.ThumbnailSize)
	if err != nil {
		logging.Error("failed to open attachment store", err)
		os.Exit(1)
	}

	hub := NewWSHub()
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"docvault-desktop"}`))
	})
	mux.HandleFunc("/ws", hub.HandleWS)

	categories := handlers.NewCategoryHandler(repo)
	categories.Register(mux)

	documents := handlers.NewDocumentHandler(repo)
	documents.Register(mux)

	attachments := handlers.NewAttachmentHandler(repo, files)
	attachments.Register(mux)

	search := handlers.NewSearchHandler(repo)
	search.Register(mux)

	archiveHandler := handlers.NewArchiveHandler(repo, files, appVersion, hub)
	archiveHandler.Register(mux)

	logging.Info("DocVault desktop server starting", map[string]interface{}{
		"addr":     cfg.ListenAddr,
		"data_dir": cfg.DataDir,
	})
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logging.Error("server stopped", err)
		os.Exit(1)
	}
}
