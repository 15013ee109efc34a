package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pointer/internal/client"
	"pointer/internal/config"
	"pointer/internal/logging"
	"pointer/internal/observability"
	"pointer/internal/server"
	"pointer/internal/snapshot"
	"pointer/internal/store"
	"pointer/internal/terminal"
	"pointer/internal/watcher"
	"pointer/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveRoot  string
	serveWatch bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&serveRoot, "root", "", "project directory to import into the workspace")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "mirror external edits under --root")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveRoot != "" {
		cfg.Watcher.Root = serveRoot
	}
	if serveWatch {
		cfg.Watcher.Enabled = true
	}
	if err := setupLogging(cfg); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logging.Close()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	gateway := client.NewGatewayFromConfig(cfg, metrics)
	if len(gateway.Providers()) == 0 {
		logging.Warn("no providers registered")
	}

	st, err := store.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	snap := snapshot.New()
	ws := workspace.New(snap, workspace.Options{Gateway: gateway, Store: st, Recorder: metrics, Config: cfg})
	if err := ws.Restore(ctx); err != nil {
		logging.Warn("failed to restore workspace", "error", err)
	}

	mirror, err := startMirror(cfg, snap)
	if err != nil {
		return err
	}
	if mirror != nil {
		defer mirror.Stop()
	}

	srv := server.New(server.Deps{
		Config:    cfg,
		Gateway:   gateway,
		Workspace: ws,
		Terminal:  terminal.NewManager(),
		Metrics:   metrics,
		Gatherer:  registry,
		Status: func() map[string]any {
			status := map[string]any{"version": cfg.Version, "storage": cfg.Storage.Backend}
			if mirror != nil {
				status["watcher"] = mirror.Stats()
			}
			return status
		},
	})

	logging.Info("starting pointer", "version", cfg.Version, "providers", gateway.Providers())
	return srv.Run(ctx)
}

// startMirror imports the configured root and, when enabled, starts watching it.
func startMirror(cfg *config.Config, snap *snapshot.Snapshot) (*watcher.Mirror, error) {
	if cfg.Watcher.Root == "" {
		return nil, nil
	}
	mirror, err := watcher.NewMirror(cfg.Watcher.Root, snap, watcher.ConfigFrom(cfg.Watcher))
	if err != nil {
		return nil, fmt.Errorf("failed to open project root: %w", err)
	}
	if _, err := mirror.Import(); err != nil {
		return nil, fmt.Errorf("failed to import project root: %w", err)
	}
	if err := mirror.Start(); err != nil {
		return nil, fmt.Errorf("failed to watch project root: %w", err)
	}
	return mirror, nil
}
