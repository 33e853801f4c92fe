package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cerplabs/quiver/internal/engine"
)

func newDocsCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Add, update, or delete documents in a collection",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding collection snapshots")

	cmd.AddCommand(newDocsAddCmd(&dataDir))
	cmd.AddCommand(newDocsUpdateCmd(&dataDir))
	cmd.AddCommand(newDocsDeleteCmd(&dataDir))
	return cmd
}

func decodeDocFields(raw string) (map[string]engine.Value, error) {
	var asJSON map[string]any
	if err := json.Unmarshal([]byte(raw), &asJSON); err != nil {
		return nil, fmt.Errorf("invalid --doc JSON: %w", err)
	}
	fields := make(map[string]engine.Value, len(asJSON))
	for name, v := range asJSON {
		switch tv := v.(type) {
		case string:
			fields[name] = engine.StringValue(tv)
		case float64:
			fields[name] = engine.NumberValue(tv)
		case bool:
			fields[name] = engine.BoolValue(tv)
		case []any:
			strs := make([]string, 0, len(tv))
			for _, item := range tv {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("field %q: list elements must be strings", name)
				}
				strs = append(strs, s)
			}
			fields[name] = engine.StringListValue(strs)
		default:
			return nil, fmt.Errorf("field %q: unsupported JSON value type", name)
		}
	}
	return fields, nil
}

func newDocsAddCmd(dataDir *string) *cobra.Command {
	var docJSON string
	var id string

	cmd := &cobra.Command{
		Use:   "add <collection>",
		Short: "Add a document to a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := decodeDocFields(docJSON)
			if err != nil {
				return err
			}
			reg, err := openRegistry(*dataDir)
			if err != nil {
				return err
			}
			newID, err := reg.AddDocument(args[0], engine.Document{Fields: fields}, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), newID)
			return nil
		},
	}
	cmd.Flags().StringVar(&docJSON, "doc", "", "Document fields as a JSON object")
	cmd.Flags().StringVar(&id, "id", "", "Document id (generated if omitted)")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func newDocsUpdateCmd(dataDir *string) *cobra.Command {
	var docJSON string

	cmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Merge fields onto an existing document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := decodeDocFields(docJSON)
			if err != nil {
				return err
			}
			reg, err := openRegistry(*dataDir)
			if err != nil {
				return err
			}
			ok, err := reg.UpdateDocument(args[0], args[1], engine.Document{Fields: fields})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("document %q not found in %q", args[1], args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&docJSON, "doc", "", "Partial document fields as a JSON object")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func newDocsDeleteCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(*dataDir)
			if err != nil {
				return err
			}
			ok, err := reg.DeleteDocument(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("document %q not found in %q", args[1], args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}
