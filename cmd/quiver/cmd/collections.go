package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cerplabs/quiver/internal/config"
	"github.com/cerplabs/quiver/internal/engine"
	"github.com/cerplabs/quiver/internal/registry"
)

// openRegistry loads the registry at the resolved data directory,
// honoring the --data-dir flag when set. Used by every offline
// (non-serve) subcommand, since quiver is both the server binary and
// an offline CLI client over the same on-disk collections (spec.md §1's
// "Binary: quiverd / quiver" split, collapsed to one binary here).
func openRegistry(dataDirFlag string) (*registry.Registry, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	return registry.NewRegistry(cfg.DataDir, slog.Default(), cfg.BM25.K1, cfg.BM25.B)
}

func newCollectionsCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage collections",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding collection snapshots")

	cmd.AddCommand(newCollectionsCreateCmd(&dataDir))
	cmd.AddCommand(newCollectionsListCmd(&dataDir))
	cmd.AddCommand(newCollectionsDropCmd(&dataDir))
	return cmd
}

func newCollectionsCreateCmd(dataDir *string) *cobra.Command {
	var schemaJSON string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection from a JSON schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw map[string]struct {
				Type      string `json:"type"`
				Facetable bool   `json:"facetable"`
				Sortable  bool   `json:"sortable"`
			}
			if err := json.Unmarshal([]byte(schemaJSON), &raw); err != nil {
				return fmt.Errorf("invalid --schema JSON: %w", err)
			}

			schema := make(engine.Schema, len(raw))
			for name, spec := range raw {
				var ft engine.FieldType
				switch spec.Type {
				case "string":
					ft = engine.FieldString
				case "number":
					ft = engine.FieldNumber
				case "boolean":
					ft = engine.FieldBool
				default:
					return fmt.Errorf("field %q: unknown type %q", name, spec.Type)
				}
				schema[name] = engine.FieldSpec{Type: ft, Facetable: spec.Facetable, Sortable: spec.Sortable}
			}

			reg, err := openRegistry(*dataDir)
			if err != nil {
				return err
			}
			if err := reg.Create(args[0], schema); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created collection %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaJSON, "schema", "", `JSON schema, e.g. {"title":{"type":"string"}}`)
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newCollectionsListCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(*dataDir)
			if err != nil {
				return err
			}
			for _, name := range reg.List() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newCollectionsDropCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(*dataDir)
			if err != nil {
				return err
			}
			if err := reg.Drop(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped collection %q\n", args[0])
			return nil
		},
	}
}
