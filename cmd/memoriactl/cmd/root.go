// Package cmd provides the CLI commands for memoriactl.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solace-labs/memoria/internal/config"
	"github.com/solace-labs/memoria/internal/embedtext"
	"github.com/solace-labs/memoria/internal/logging"
	"github.com/solace-labs/memoria/internal/memstore"
	"github.com/solace-labs/memoria/internal/semindex"
	"github.com/solace-labs/memoria/pkg/version"
)

var debugMode bool

// NewRootCmd creates the root command for the memoriactl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memoriactl",
		Short:   "Operate a memoria semantic memory store",
		Long:    `memoriactl initializes, inspects, and tails the audit log of a memoria data directory.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("memoriactl version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to stderr")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// openStore loads config rooted at dir, wires the embedder, semantic index,
// and orchestrator, and initializes the store. Callers must invoke the
// returned cleanup function, which shuts down the store and closes the log
// file, exactly once when done.
func openStore(ctx context.Context, dir string) (*memstore.Store, func(), error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.LogFilePath(),
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: debugMode,
	}
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)

	baseEmbedder := embedtext.NewHashEmbedder(cfg.SemanticIndex.Dimensions)
	cachedEmbedder := embedtext.NewCachedEmbedder(baseEmbedder, embedtext.DefaultCacheSize)

	idxCfg := semindex.Config{
		Dimensions:     cfg.SemanticIndex.Dimensions,
		MaxElements:    cfg.SemanticIndex.MaxElements,
		M:              cfg.SemanticIndex.M,
		EfConstruction: cfg.SemanticIndex.EfConstruction,
		EfSearch:       cfg.SemanticIndex.EfSearch,
	}
	idx := semindex.New(cachedEmbedder, idxCfg)

	s := memstore.New(cfg.DataDir, idx)
	if err := s.Init(ctx); err != nil {
		logCleanup()
		return nil, nil, fmt.Errorf("initialize store at %s: %w", cfg.DataDir, err)
	}

	cleanup := func() {
		_ = s.Shutdown()
		logCleanup()
	}

	return s, cleanup, nil
}
