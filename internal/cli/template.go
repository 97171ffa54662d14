package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var templateOut string

var templateCmd = &cobra.Command{
	Use:   "template <csv|geojson>",
	Short: "Download an upload template",
	Long: `Download an empty upload template with the columns the server expects.

Examples:
  terratrac template csv
  terratrac template geojson --out ./templates`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"csv", "geojson"},
	RunE:      runTemplate,
}

func init() {
	templateCmd.Flags().StringVarP(&templateOut, "out", "o", ".", "output directory")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	format := args[0]
	if format != "csv" && format != "geojson" {
		return fmt.Errorf("unsupported template format %q (use csv or geojson)", format)
	}

	tmpl, err := apiClient.DownloadTemplate(context.Background(), format)
	if err != nil {
		return apiError(err)
	}

	if err := os.MkdirAll(templateOut, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(templateOut, filepath.Base(tmpl.FileName))
	if err := os.WriteFile(path, tmpl.Content, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	fmt.Printf("Saved %s (%d bytes)\n", path, len(tmpl.Content))
	return nil
}
