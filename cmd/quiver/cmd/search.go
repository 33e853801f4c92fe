package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cerplabs/quiver/internal/engine"
)

// isOutputTerminal reports whether f is a terminal, the same check the
// teacher's internal/ui package performs before choosing a rendering
// mode, used here to pick table output over JSON by default.
func isOutputTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newSearchCmd() *cobra.Command {
	var dataDir string
	var tolerance int
	var limit int
	var jsonOutput bool
	var facets []string

	cmd := &cobra.Command{
		Use:   "search <collection> <query>",
		Short: "Run a query against a collection and print ranked hits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(dataDir)
			if err != nil {
				return err
			}
			e, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("collection %q not found", args[0])
			}

			result := e.Search(engine.Query{
				Q:         args[1],
				Tolerance: tolerance,
				Limit:     limit,
				Facets:    facets,
			})

			useJSON := jsonOutput
			if !cmd.Flags().Changed("json") && !isOutputTerminal(os.Stdout) {
				useJSON = true
			}
			if useJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printResultTable(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding collection snapshots")
	cmd.Flags().IntVar(&tolerance, "tolerance", 0, "Fuzzy edit-distance tolerance (0-5)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum hits to return")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print raw JSON instead of a table")
	cmd.Flags().StringSliceVar(&facets, "facets", nil, "Facet fields to count")

	return cmd
}

func printResultTable(cmd *cobra.Command, result engine.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d hit(s), %v elapsed\n", result.Count, result.Elapsed)
	if len(result.Hits) == 0 {
		return
	}
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, hit := range result.Hits {
		fmt.Fprintf(out, "%-36s  %.4f\n", hit.ID, hit.Score)
	}
	for field, counts := range result.Facets {
		fmt.Fprintf(out, "\nfacet %s:\n", field)
		for value, count := range counts {
			fmt.Fprintf(out, "  %s: %d\n", value, count)
		}
	}
}
