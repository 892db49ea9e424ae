package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gametree-tools/gametree/internal/config"
	"github.com/gametree-tools/gametree/internal/server"
	"github.com/gametree-tools/gametree/pkg/cache"
)

// shutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluation API over HTTP",
		Long: `Serve the evaluation API over HTTP.

The server accepts tree snapshots as JSON and returns evaluation results
or rendered diagrams. Configuration comes from a TOML file (see
--config); flags override the file. All endpoints are stateless - each
request carries its full tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "gametree.toml", "path to TOML config file")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	artifacts, err := c.serverCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer artifacts.Close()

	srv := server.New(logger, artifacts, cfg.Cache.TTL.Duration)
	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// serverCache builds the configured cache backend.
func (c *CLI) serverCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	logger := loggerFromContext(ctx)
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Infof("artifact cache: redis at %s", cfg.RedisAddr)
		return rc, nil
	default:
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		logger.Infof("artifact cache: %s", dir)
		return fc, nil
	}
}
