package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/simrec/internal/artifact"
	"github.com/hyperjump/simrec/internal/cli"
	"github.com/hyperjump/simrec/internal/pipeline"
)

func newEmbedCmd(a *app) *cobra.Command {
	var corpus, namespace string
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed a corpus into an embedding matrix",
		Long: `Reads a corpus of {"id", "contents"} records (JSON array or JSON lines),
embeds each item, and writes <ns>_embeddings.bin and <ns>_embedding_index.json
to the artifact directory. Texts over the token limit are chunked and averaged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			embedder := a.newEmbedder()
			defer embedder.Close()
			res, err := a.newPipeline(pipeline.WithEmbedder(embedder)).Embed(cmd.Context(), corpus, namespace)
			if err != nil {
				return err
			}
			return cli.WriteEmbedResult(cmd.OutOrStdout(), res, a.format)
		},
	}
	cmd.Flags().StringVar(&corpus, "corpus", "", "corpus file (required)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "dataset namespace (required)")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var namespace string
	var topN int
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build top-N neighbor lists from an embedding matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if topN > 0 {
				a.cfg.Similarity.TopN = topN
			}
			res, err := a.newPipeline().Build(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			return cli.WriteBuildResult(cmd.OutOrStdout(), res, a.format)
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "dataset namespace (required)")
	cmd.Flags().IntVarP(&topN, "top-n", "n", 0, "neighbors per item (default similarity.top_n)")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Load neighbor list files into the store",
		Long: `Loads one or more id -> [ids] JSON files into the store. Without --namespace the
namespace comes from each file name ("mathe_top20_recommendations.json" and
"mathe.json" both load into "mathe"). Existing items in the file are replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if namespace != "" && len(args) > 1 {
				return fmt.Errorf("--namespace applies to a single file")
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			p := a.newPipeline(pipeline.WithStore(store))
			for _, path := range args {
				n, err := p.Ingest(cmd.Context(), path, namespace)
				if err != nil {
					return err
				}
				ns := namespace
				if ns == "" {
					ns, _ = artifact.NamespaceFromFile(path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d items into namespace '%s' from %s.\n", n, ns, filepath.Base(path))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace (default: inferred from the file name)")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var corpus, namespace string
	var noIngest bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run embed, build and ingest for one namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			embedder := a.newEmbedder()
			defer embedder.Close()
			opts := []pipeline.Option{pipeline.WithEmbedder(embedder)}
			if !noIngest {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, pipeline.WithStore(store))
			}
			res, err := a.newPipeline(opts...).Run(cmd.Context(), corpus, namespace)
			if err != nil {
				return err
			}
			return cli.WriteRunResult(cmd.OutOrStdout(), res, a.format)
		},
	}
	cmd.Flags().StringVar(&corpus, "corpus", "", "corpus file (required)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "dataset namespace (required)")
	cmd.Flags().BoolVar(&noIngest, "no-ingest", false, "stop after writing the neighbor lists")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}
