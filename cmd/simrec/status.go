package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/cli"
	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/internal/storage"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store status and namespace sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			status := &cli.Status{
				Driver:      a.cfg.Store.Driver,
				Connected:   store.CheckConnection(ctx),
				Namespaces:  []cli.NamespaceStatus{},
				ArtifactDir: a.cfg.Pipeline.ArtifactDir,
			}
			if a.cfg.Store.Driver != config.DriverMemory {
				status.Path = a.cfg.Store.Path
			}
			if size, ok, err := storage.DiskUsage(a.cfg.Store); err != nil {
				a.logger.Debug("disk usage unavailable", zap.Error(err))
			} else if ok {
				status.DiskUsageBytes = &size
			}

			namespaces, err := store.ListNamespaces(ctx)
			if err != nil {
				return err
			}
			for _, ns := range namespaces {
				ids, err := store.ListItems(ctx, ns)
				if err != nil {
					return err
				}
				status.Namespaces = append(status.Namespaces, cli.NamespaceStatus{Name: ns, Items: len(ids)})
			}
			return cli.WriteStatus(cmd.OutOrStdout(), status, a.format)
		},
	}
}
