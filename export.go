package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"secret-notes/db"
	"secret-notes/models"
)

var (
	exportOwner  string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print notes to stdout without share password hashes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", cfg.Storage, err)
		}
		defer store.Close()

		_, all, err := store.Dump(cmd.Context())
		if err != nil {
			return err
		}
		return writeExport(cmd.OutOrStdout(), all, exportOwner, exportFormat)
	},
}

func writeExport(w io.Writer, all []models.Note, owner, format string) error {
	views := make([]models.NoteView, 0, len(all))
	for _, n := range all {
		if owner != "" && n.Owner != owner {
			continue
		}
		views = append(views, n.View())
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(views)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(views); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown export format %q (want json or yaml)", format)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "Only export notes of this user")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
}
