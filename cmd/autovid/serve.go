package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/autovid/autovid-editor/internal/api"
	"github.com/autovid/autovid-editor/internal/config"
	"github.com/autovid/autovid-editor/internal/credits"
	"github.com/autovid/autovid-editor/internal/db"
	"github.com/autovid/autovid-editor/internal/download"
	"github.com/autovid/autovid-editor/internal/logging"
	"github.com/autovid/autovid-editor/internal/project"
	"github.com/autovid/autovid-editor/internal/timeline"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the editor HTTP API and export runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func serve(parent context.Context, cfg config.Config, out io.Writer) error {
	startTime := time.Now()

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportDir(), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another autovid server is already using " + cfg.DataDir())
	}
	defer lock.Unlock()

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting autovid editor", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(parent, repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  AutoVid editor %s\n", config.Version)
	fmt.Fprintf(out, "  API URL:    http://127.0.0.1:%d\n", cfg.Port())
	fmt.Fprintf(out, "  Auth Token: %s\n", authToken)
	fmt.Fprintln(out)

	var creditsClient credits.Client
	if cfg.CreditsURL() != "" {
		creditsClient = credits.NewHTTPClient(cfg.CreditsURL(), cfg.CreditsToken(), logger)
		logger.Info("credit service enabled", "base_url", cfg.CreditsURL())
	} else {
		creditsClient = credits.NewStubClient(logger)
		logger.Warn("no credit service configured, exports are not charged")
	}

	svc := project.NewService(repo, timeline.NewEngine(), creditsClient, logger,
		project.WithUploadMaxDuration(cfg.UploadMaxDuration()))

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := project.NewRunner(svc, repo, project.RunnerConfig{
		ExportDir:    cfg.ExportDir(),
		FrameRate:    cfg.ExportFPS(),
		PollInterval: cfg.ExportPollInterval(),
	}, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Service:        svc,
		Repository:     repo,
		Runner:         runner,
		Downloads:      download.NewServer(logger),
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
		StartTime:      startTime,
		Version:        config.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

type configStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// ensureAuthToken returns the stored API token, generating one on first run.
func ensureAuthToken(ctx context.Context, store configStore) (string, error) {
	existing, err := store.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := store.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
