package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/simrec/internal/cli"
	"github.com/hyperjump/simrec/internal/recommend"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the recommendation store",
	}

	withService := func(run func(cmd *cobra.Command, svc *recommend.Service, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			svc := recommend.NewService(store, recommend.OptionsFromConfig(a.cfg.Recommend), recommend.WithLogger(a.logger))
			return run(cmd, svc, args)
		}
	}

	namespaces := &cobra.Command{
		Use:   "namespaces",
		Short: "List namespaces",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc *recommend.Service, _ []string) error {
			ds, err := svc.Datasets(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteList(cmd.OutOrStdout(), ds, a.format)
		}),
	}

	items := &cobra.Command{
		Use:   "items <namespace>",
		Short: "List item ids in a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, svc *recommend.Service, args []string) error {
			ids, err := svc.Items(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.WriteList(cmd.OutOrStdout(), ids, a.format)
		}),
	}

	var n int
	get := &cobra.Command{
		Use:   "get <namespace> <iid>",
		Short: "Show the recommendations for an item",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(cmd *cobra.Command, svc *recommend.Service, args []string) error {
			resp, err := svc.Recommend(cmd.Context(), recommend.RecommendRequest{Dataset: args[0], IID: args[1], N: n})
			if err != nil {
				return err
			}
			return cli.WriteRecommendations(cmd.OutOrStdout(), resp, a.format)
		}),
	}
	get.Flags().IntVarP(&n, "n", "n", 0, "number of recommendations (default recommend.default_n)")

	referrers := &cobra.Command{
		Use:   "referrers <namespace> <iid>",
		Short: "List the items that recommend an item",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(cmd *cobra.Command, svc *recommend.Service, args []string) error {
			resp, err := svc.Referrers(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return cli.WriteReferrers(cmd.OutOrStdout(), resp, a.format)
		}),
	}

	cmd.AddCommand(namespaces, items, get, referrers)
	return cmd
}
