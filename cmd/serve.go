package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"qsmath/internal/config"
	"qsmath/internal/health"
	"qsmath/internal/server"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long:  `Serves /search, /execute, /plugins and /metrics. SIGHUP reloads the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	healthServer := health.New(cfg.HealthPort)
	go func() {
		if err := healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Health server failed", "error", err)
		}
	}()
	defer func() {
		if err := healthServer.Stop(); err != nil {
			slog.Error("Health server shutdown failed", "error", err)
		}
	}()

	manager, err := newManager(cfg)
	if err != nil {
		return err
	}

	searchServer, err := server.New(cfg, manager, version)
	if err != nil {
		return err
	}
	defer searchServer.Close()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           searchServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	healthServer.MarkReady(len(manager.Plugins()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case err := <-serverErr:
			return err
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				if configFile == "" {
					slog.Warn("No configuration file to reload")
					continue
				}
				slog.Info("Reloading configuration")
				healthServer.MarkNotReady()
				newCfg, err := config.Load(configFile)
				if err != nil {
					slog.Error("Failed to reload configuration", "error", err)
					healthServer.MarkReady(len(manager.Plugins()))
					continue
				}
				if err := searchServer.UpdateConfig(newCfg); err != nil {
					slog.Error("Failed to update server configuration", "error", err)
					healthServer.MarkReady(len(manager.Plugins()))
					continue
				}
				healthServer.MarkReady(len(manager.Plugins()))
				slog.Info("Configuration reloaded successfully")
			case syscall.SIGINT, syscall.SIGTERM:
				slog.Info("Shutting down server")
				healthServer.MarkNotReady()
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return httpServer.Shutdown(ctx)
			}
		}
	}
}
