package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}

	cmd.AddCommand(newAuditTailCmd())
	return cmd
}

func newAuditTailCmd() *cobra.Command {
	var dir string
	var n int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the last N audit log lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := openStore(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer cleanup()

			lines, err := s.TailAuditLog(n)
			if err != nil {
				return fmt.Errorf("tail audit log: %w", err)
			}

			w := cmd.OutOrStdout()
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory to look for a .memoria.yaml in")
	cmd.Flags().IntVar(&n, "n", 20, "number of lines to print")
	return cmd
}
