package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/quarryhq/quarry/models"
	"github.com/quarryhq/quarry/repository"
)

// snapshot is the export document: every item of both kinds, read fresh
// from disk at export time.
type snapshot struct {
	ExportedAt time.Time         `json:"exportedAt" yaml:"exportedAt"`
	Features   []*models.Feature `json:"features" yaml:"features"`
	Bugs       []*models.Bug     `json:"bugs" yaml:"bugs"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all work items to JSON or YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		features, err := featureRepo().List(repository.ListOptions{Sort: &repository.Sort{Field: "id"}})
		if err != nil {
			return fmt.Errorf("export features: %w", err)
		}
		bugs, err := bugRepo().List(repository.ListOptions{Sort: &repository.Sort{Field: "id"}})
		if err != nil {
			return fmt.Errorf("export bugs: %w", err)
		}

		snap := snapshot{
			ExportedAt: time.Now().UTC(),
			Features:   features.Items,
			Bugs:       bugs.Items,
		}

		format, _ := cmd.Flags().GetString("format")
		var data []byte
		switch format {
		case "json":
			data, err = json.MarshalIndent(snap, "", "  ")
		case "yaml":
			data, err = yaml.Marshal(snap)
		default:
			return fmt.Errorf("unsupported format %q; use json or yaml", format)
		}
		if err != nil {
			return fmt.Errorf("marshal export: %w", err)
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" || out == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write export to %s: %w", out, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Exported %d features, %d bugs to %s\n",
				len(snap.Features), len(snap.Bugs), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "json", "output format (json|yaml)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}
