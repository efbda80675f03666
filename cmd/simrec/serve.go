package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/pipeline"
	"github.com/hyperjump/simrec/internal/recommend"
	"github.com/hyperjump/simrec/internal/server"
	"github.com/hyperjump/simrec/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Long: `Serves the recommendation API from the configured store.

With --watch (or pipeline.watch in the config), neighbor list files written to
the artifact directory are ingested as soon as they appear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := a.logger
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if watch || a.cfg.Pipeline.Watch {
				p := a.newPipeline(pipeline.WithStore(store))
				w := watcher.NewArtifactWatcher(ctx, a.cfg.Pipeline.ArtifactDir, p, watcher.WithLogger(logger))
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
				w.SyncExistingFiles()
				logger.Info("watching artifact directory", zap.String("path", a.cfg.Pipeline.ArtifactDir))
			}

			svc := recommend.NewService(store, recommend.OptionsFromConfig(a.cfg.Recommend), recommend.WithLogger(logger))
			srv := server.NewServer(svc, &a.cfg.Server, logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "ingest neighbor list files written to the artifact directory")
	return cmd
}
