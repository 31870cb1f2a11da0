package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notekeeper/internal/auth"
	"notekeeper/internal/config"
	"notekeeper/internal/db"
	"notekeeper/internal/export"
	"notekeeper/internal/library"
	"notekeeper/internal/mailer"
	mcpserver "notekeeper/internal/mcp"
	"notekeeper/internal/scheduler"
	"notekeeper/internal/users"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	cfg := config.Load()

	// Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Context for startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	logger.Info("connecting to MongoDB", "uri", cfg.MongoURI)
	database, err := db.Connect(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	logger.Info("connected to MongoDB")

	// Mail
	mail, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	}, logger)
	if err != nil {
		log.Fatalf("failed to configure mail: %v", err)
	}

	// Wire dependencies
	libRepo := library.NewRepo(database)
	libSvc := library.NewService(libRepo, mail, logger)
	pdf := export.NewPDF()
	libHandler := library.NewHandler(libSvc, pdf, mail, logger)

	userRepo := users.NewRepo(database)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure indexes", "error", err)
	}
	userSvc := users.NewService(userRepo, mail, logger)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	userHandler := users.NewHandler(userSvc, tokens, logger)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(libSvc)

	// HTTP router
	mux := http.NewServeMux()
	protected := auth.RequireAuth(tokens)

	// Accounts
	mux.HandleFunc("POST /api/users", userHandler.Register)
	mux.HandleFunc("POST /api/users/login", userHandler.Login)
	mux.Handle("GET /api/users/me", protected(http.HandlerFunc(userHandler.Me)))
	mux.Handle("PUT /api/users/me", protected(http.HandlerFunc(userHandler.UpdateMe)))
	mux.Handle("DELETE /api/users/me", protected(http.HandlerFunc(userHandler.DeleteMe)))
	mux.Handle("GET /api/users/me/config", protected(http.HandlerFunc(userHandler.GetConfig)))
	mux.Handle("PUT /api/users/me/config", protected(http.HandlerFunc(userHandler.UpdateConfig)))

	// Library
	mux.Handle("GET /api/library", protected(http.HandlerFunc(libHandler.GetLibrary)))
	mux.Handle("DELETE /api/library", protected(http.HandlerFunc(libHandler.ClearLibrary)))
	mux.Handle("PUT /api/library/order", protected(http.HandlerFunc(libHandler.ReorderLibrary)))

	// Folders
	mux.Handle("GET /api/folders", protected(http.HandlerFunc(libHandler.DefaultFolder)))
	mux.Handle("GET /api/folders/{folder_id}", protected(http.HandlerFunc(libHandler.GetFolder)))
	mux.Handle("GET /api/folders/name/{folder_name}", protected(http.HandlerFunc(libHandler.SearchFolders)))
	mux.Handle("POST /api/folders", protected(http.HandlerFunc(libHandler.CreateFolder)))
	mux.Handle("PUT /api/folders/{folder_id}", protected(http.HandlerFunc(libHandler.UpdateFolder)))
	mux.Handle("DELETE /api/folders/{folder_id}", protected(http.HandlerFunc(libHandler.DeleteFolder)))

	// Notes
	mux.Handle("POST /api/notes", protected(http.HandlerFunc(libHandler.CreateNote)))
	mux.Handle("POST /api/notes/download", protected(http.HandlerFunc(libHandler.DownloadLibrary)))
	mux.Handle("GET /api/notes/{note_id}", protected(http.HandlerFunc(libHandler.GetNote)))
	mux.Handle("PUT /api/notes/{note_id}", protected(http.HandlerFunc(libHandler.UpdateNote)))
	mux.Handle("PUT /api/notes/{note_id}/move", protected(http.HandlerFunc(libHandler.MoveNote)))
	mux.Handle("PUT /api/notes/{note_id}/trash", protected(http.HandlerFunc(libHandler.TrashNote)))
	mux.Handle("PUT /api/notes/{note_id}/restore", protected(http.HandlerFunc(libHandler.RestoreNote)))
	mux.Handle("DELETE /api/notes/{note_id}", protected(http.HandlerFunc(libHandler.DeleteNote)))

	// Bin
	mux.Handle("GET /api/bin", protected(http.HandlerFunc(libHandler.GetBin)))
	mux.Handle("PUT /api/bin/restore", protected(http.HandlerFunc(libHandler.RestoreBin)))
	mux.Handle("DELETE /api/bin", protected(http.HandlerFunc(libHandler.PurgeBin)))
	mux.Handle("POST /api/bin/backup", protected(http.HandlerFunc(libHandler.BackupBin)))

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Background purge of expired trashed notes
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	if cfg.PurgeEnabled {
		sweeper := scheduler.NewSweeper(libSvc, libRepo, logger, cfg.PurgeInterval)
		go sweeper.Run(rootCtx)
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		rootCancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port)
	logger.Info("endpoints available",
		"api", "http://localhost:"+cfg.Port+"/api",
		"mcp", "http://localhost:"+cfg.Port+"/mcp",
	)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("server stopped")
}
