// Package main is the simrec CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/cli"
	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/internal/embedding"
	"github.com/hyperjump/simrec/internal/pipeline"
	"github.com/hyperjump/simrec/internal/storage"
	"github.com/hyperjump/simrec/pkg/utils"
)

var version = "dev"

// app holds the state shared by every command after the root pre-run.
type app struct {
	configPath string
	debug      bool
	output     string

	cfg          *config.Config
	resolvedPath string
	format       cli.OutputFormat
	logger       *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "simrec",
		Short:         "Item-to-item similarity recommendations",
		Long:          "simrec embeds a text corpus, builds top-N similar item lists, stores them, and serves them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", string(cli.OutputText), "output format: text or json")

	root.AddCommand(
		newServeCmd(a),
		newEmbedCmd(a),
		newBuildCmd(a),
		newIngestCmd(a),
		newRunCmd(a),
		newEvaluateCmd(a),
		newStoreCmd(a),
		newStatusCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	format, err := cli.ParseOutputFormat(a.output)
	if err != nil {
		return err
	}
	a.format = format

	cwd, _ := os.Getwd()
	if _, err := config.LoadDotEnv(cwd); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, resolved, err := loadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.resolvedPath = resolved

	debugMode := cfg.Debug || a.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return nil
}

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence so commands run from a project directory use its
// config. A missing file yields defaults. Returns the path actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == config.DefaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func (a *app) openStore(ctx context.Context) (storage.RecommendationStore, error) {
	store, err := storage.Open(ctx, a.cfg.Store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func (a *app) newPipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(a.cfg, append([]pipeline.Option{pipeline.WithLogger(a.logger)}, opts...)...)
}

func (a *app) newEmbedder() embedding.Embedder {
	return embedding.NewFromConfig(a.cfg.Embedding, a.logger)
}
