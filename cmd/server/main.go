package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"emergency-profile-agent/internal/config"
	"emergency-profile-agent/internal/core"
	"emergency-profile-agent/internal/db"
	httpserver "emergency-profile-agent/internal/http"
	"emergency-profile-agent/internal/llm"
	"emergency-profile-agent/internal/profile"
	"emergency-profile-agent/internal/rag"

	_ "github.com/lib/pq"
)

const notifyChannel = "turn_completed"

func main() {
	rootCmd := &cobra.Command{
		Use:   "emergency-profile-agent",
		Short: "Emergency medical profile agent API server",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reindexCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store := profile.NewStore(cfg.PatientJSONPath)
			if _, err := store.Load(); err != nil {
				// Malformed profile is reported but must not stop the
				// server; the chat still answers and handlers return
				// "profile unavailable".
				log.Error().Err(err).Msg("patient profile unavailable")
			}

			client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ModelName)
			if cfg.OpenAIAPIKey == "" {
				log.Warn().Msg("OPENAI_API_KEY not set; answers will be degraded")
			}

			var retriever rag.Retriever
			if cfg.RAGEnabled {
				embedder, err := rag.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel)
				if err != nil {
					log.Warn().Err(err).Msg("retrieval disabled")
				} else {
					retriever = rag.NewIndex(cfg.RAGIndexPath, embedder)
				}
			}

			var archive *db.Archive
			var notifier *db.Notifier
			if cfg.DatabaseURL != "" {
				dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := dbConn.PingContext(pingCtx); err != nil {
					return fmt.Errorf("ping database: %w", err)
				}
				if err := db.Migrate(context.Background(), dbConn); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				archive = db.NewArchive(dbConn)
				notifier = db.NewNotifier(dbConn, cfg.DatabaseURL, notifyChannel)
			} else {
				log.Info().Msg("DATABASE_URL not set; transcripts are in-memory only")
			}

			orch := core.NewOrchestrator(store, retriever, client, log)
			srv := httpserver.NewServer(cfg, store, orch, archive, notifier, log)

			e := echo.New()
			e.HideBanner = true
			e.Use(echomw.Recover())
			e.Use(echomw.RequestID())
			srv.RegisterRoutes(e)

			go func() {
				addr := ":" + cfg.Port
				log.Info().Str("addr", addr).Msg("listening")
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the retrieval index from the reference documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			embedder, err := rag.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			n, err := rag.BuildIndex(cmd.Context(), cfg.RAGDocsDir, cfg.RAGIndexPath, cfg.EmbedModel, embedder)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			log.Info().Int("chunks", n).Str("index", cfg.RAGIndexPath).Msg("index rebuilt")
			return nil
		},
	}
}
