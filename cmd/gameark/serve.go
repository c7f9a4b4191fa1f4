package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/gameark/api"
	"github.com/rushteam/gameark/imagery"
	"github.com/rushteam/gameark/logging"
)

func newServeCmd(load loadConfigFunc) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP recommendation service",
		Long: `Load the catalog and ratings, then serve the recommendation API.

Examples:
  gameark serve
  gameark serve --addr :9090 --watch
  GAMEARK_DATA__CATALOG_PATH=/data/games.csv gameark serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Data.Watch = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine, cleanup, err := buildEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := logging.With("server")
			images := imagery.New(cfg.Images, imagery.WithLogger(logging.With("imagery")))
			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      api.NewServer(cfg.API, engine, images).Router(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info().Str("addr", srv.Addr).Msg("http server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			if cfg.Data.Watch {
				g.Go(func() error { return engine.Watch(gctx) })
			}
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
				defer cancel()
				logger.Info().Msg("shutting down http server")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload data files when they change (overrides data.watch)")
	return cmd
}
