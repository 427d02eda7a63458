package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solace-labs/memoria/internal/config"
)

func newInitCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a memoria data directory",
		Long:  `Creates the data directory, chunk storage, and audit log, then starts and immediately stops the orchestrator to verify the directory is usable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory to look for a .memoria.yaml in")
	return cmd
}

func runInit(cmd *cobra.Command, dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, cleanup, err := openStore(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer cleanup()

	stats := s.GetStats()
	fmt.Fprintf(cmd.OutOrStdout(), "initialized memoria data directory at %s\n", cfg.DataDir)
	fmt.Fprintf(cmd.OutOrStdout(), "chunks: %d  indexed: %d\n", stats.ChunkCount, stats.IndexedCount)
	return nil
}
