package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var dir string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show chunk and index counts for a data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := openStore(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer cleanup()

			stats := s.GetStats()
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "chunks:  %d\n", stats.ChunkCount)
			fmt.Fprintf(cmd.OutOrStdout(), "indexed: %d\n", stats.IndexedCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory to look for a .memoria.yaml in")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
