package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/leadlens/leadlens/internal/di"
	"github.com/leadlens/leadlens/internal/ro"
)

// shutdownTimeout bounds draining in-flight analysis requests plus
// service teardown after SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the leadlens analysis server",
	Long: `Start the HTTP server that accepts analysis requests and dispatches them
across the configured AI providers with caching, rate limiting, and
priority failover.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// An empty path means no config file exists anywhere; the container
	// falls back to environment discovery.
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	container, err := di.NewContainer(configPath)
	if err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("failed to initialize services")
		return err
	}

	// Route global logging through the configured logger before any
	// service starts emitting.
	logger := di.MustInvoke[*di.LoggerService](container).Logger
	log.Logger = *logger
	zerolog.DefaultContextLogger = logger

	serverSvc, err := di.Invoke[*di.ServerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to build service graph")
		shutdownContainer(container)
		return err
	}
	server := serverSvc.Server

	// Hot-reload and circuit recovery run for the server's lifetime.
	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	di.MustInvoke[*di.ConfigService](container).StartWatching(watchCtx)
	di.MustInvoke[*di.CheckerService](container).Start()

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		defer close(done)

		sig, err := ro.WaitForShutdown(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("signal wait failed")
			return
		}

		log.Info().Str("signal", sig.String()).Msg("shutting down...")
		stopWatching()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := container.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	cfgSvc := di.MustInvoke[*di.ConfigService](container)
	log.Info().
		Str("listen", cfgSvc.Get().Server.Listen).
		Strs("providers", di.MustInvoke[*di.RouterService](container).Providers()).
		Msg("starting leadlens")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		shutdownContainer(container)
		return err
	}

	<-done
	log.Info().Msg("server stopped")

	return nil
}

// shutdownContainer tears the container down on startup failure paths,
// where the signal handler never gets to run.
func shutdownContainer(container *di.Container) {
	if err := container.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

// findConfigFile searches default locations for a config file. An empty
// result means no file exists and configuration comes from environment
// variables instead.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return findConfigInWithHome(".", home)
}

// findConfigIn returns the config path inside dir, or empty when absent.
func findConfigIn(dir string) string {
	p := filepath.Join(dir, defaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// findConfigInWithHome checks workDir first, then home/.config/leadlens/.
func findConfigInWithHome(workDir, home string) string {
	if p := findConfigIn(workDir); p != "" {
		return p
	}
	if home != "" {
		if p := findConfigIn(filepath.Join(home, ".config", "leadlens")); p != "" {
			return p
		}
	}
	return ""
}
