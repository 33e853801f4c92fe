package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-collection document counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(dataDir)
			if err != nil {
				return err
			}
			names := reg.List()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no collections")
				return nil
			}
			for _, name := range names {
				e, ok := reg.Get(name)
				if !ok {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d document(s)\n", name, e.DocCount())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding collection snapshots")
	return cmd
}
