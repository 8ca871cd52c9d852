package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Churchillbones/clinical-note-quality/internal/api"
	"github.com/Churchillbones/clinical-note-quality/internal/auth"
	"github.com/Churchillbones/clinical-note-quality/internal/config"
	"github.com/Churchillbones/clinical-note-quality/internal/database"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

var (
	servePort   string
	migrateOnly bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the grading API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Server port (overrides config)")
	serveCmd.Flags().BoolVar(&migrateOnly, "migrate", false, "Run migrations and exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	client, err := newAzureClient(cfg)
	if err != nil {
		return err
	}

	// Persistence is optional; without DATABASE_URL grades are not stored
	// and embeddings are not cached.
	var db *database.DB
	pipeline := llm.Client(client)
	if cfg.Server.DatabaseURL != "" {
		log.Println("Running database migrations...")
		if err := database.Migrate(cfg.Server.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Println("Migrations complete")
		if migrateOnly {
			return nil
		}

		db, err = database.New(cmd.Context(), cfg.Server.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		pipeline = pipelineClient{
			Completer: client,
			Embedder:  database.NewCachedEmbedder(db, client, cfg.Azure.EmbeddingDeployment),
		}
	} else if migrateOnly {
		return fmt.Errorf("--migrate requires a database url")
	}

	var verifier *auth.Verifier
	if cfg.Server.AuthDomain != "" {
		verifier, err = auth.NewVerifier(auth.Config{
			Domain:   cfg.Server.AuthDomain,
			Audience: cfg.Server.AuthAudience,
		})
		if err != nil {
			return fmt.Errorf("failed to create auth verifier: %w", err)
		}
	} else {
		log.Println("WARNING: auth domain not configured, API is unauthenticated")
	}

	grader := buildGrader(cfg, pipeline, llm.NopEmitter{})
	server := api.NewServer(api.Config{
		Grader:       grader,
		DB:           db,
		AuthVerifier: verifier,
	})
	defer server.Close()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
