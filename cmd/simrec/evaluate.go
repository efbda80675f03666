package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/simrec/internal/artifact"
	"github.com/hyperjump/simrec/internal/cli"
	"github.com/hyperjump/simrec/internal/evaluation"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var predictions, groundTruth, namespace string
	var cutoffs []int
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score neighbor lists with Recall@n and NDCG@n",
		Long: `Scores neighbor lists against a ground truth file mapping item id to related ids.
Predictions default to the namespace's neighbor lists in the artifact directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := predictions
			if path == "" {
				if namespace == "" {
					return fmt.Errorf("either --predictions or --namespace is required")
				}
				path = artifact.NeighborsFile(a.cfg.Pipeline.ArtifactDir, namespace, a.cfg.Similarity.TopN)
			}
			lists, err := artifact.ReadNeighbors(path)
			if err != nil {
				return err
			}
			gt, err := evaluation.LoadGroundTruth(groundTruth)
			if err != nil {
				return err
			}
			report, err := evaluation.Evaluate(evaluation.Predictions(lists), gt, cutoffs)
			if err != nil {
				return err
			}
			report.Namespace = namespace
			return cli.WriteReport(cmd.OutOrStdout(), report, a.format)
		},
	}
	cmd.Flags().StringVar(&predictions, "predictions", "", "neighbor lists JSON file")
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace whose neighbor lists to score")
	cmd.Flags().StringVar(&groundTruth, "ground-truth", "", "ground truth JSON file (required)")
	cmd.Flags().IntSliceVarP(&cutoffs, "n", "n", []int{5, 10, 20}, "cutoffs to score")
	_ = cmd.MarkFlagRequired("ground-truth")
	return cmd
}
