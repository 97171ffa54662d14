package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/terratrac/terratrac-go/internal/client"
	"github.com/terratrac/terratrac-go/internal/export"
	"github.com/terratrac/terratrac-go/internal/farmview"
	"github.com/terratrac/terratrac-go/internal/upload"
)

var (
	farmsFileID   string
	farmsUserID   string
	farmsRisk     string
	farmsSite     string
	farmsOverlaps bool
	farmsExport   string
	farmsOutDir   string
	farmsNoChart  bool
)

var farmsCmd = &cobra.Command{
	Use:   "farms",
	Short: "List analysed farm plots",
	Long: `List farm plots with their EUDR risk level, low risk first, followed by a
breakdown of risk levels.

Examples:
  terratrac farms
  terratrac farms --file-id 42
  terratrac farms --file-id 42 --overlaps
  terratrac farms --risk high --site Kigali
  terratrac farms --export xlsx
  terratrac farms --file-id 42 --export geojson --out ./exports`,
	RunE: runFarms,
}

func init() {
	farmsCmd.Flags().StringVar(&farmsFileID, "file-id", "", "only plots from this uploaded file")
	farmsCmd.Flags().StringVar(&farmsUserID, "user-id", "", "only plots uploaded by this user")
	farmsCmd.Flags().StringVar(&farmsRisk, "risk", "", "filter by risk level (low, high, more_info_needed)")
	farmsCmd.Flags().StringVar(&farmsSite, "site", "", "filter by collection site")
	farmsCmd.Flags().BoolVar(&farmsOverlaps, "overlaps", false, "list plots overlapping other plots (needs --file-id)")
	farmsCmd.Flags().StringVar(&farmsExport, "export", "", "export to a file: xlsx, csv or geojson")
	farmsCmd.Flags().StringVar(&farmsOutDir, "out", ".", "directory for --export")
	farmsCmd.Flags().BoolVar(&farmsNoChart, "no-chart", false, "skip the risk breakdown")
}

func reviewURL(fileID string) string {
	return upload.ReviewURL(cfg.ServerURL, fileID)
}

func runFarms(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var format export.Format
	if farmsExport != "" {
		var err error
		if format, err = export.ParseFormat(farmsExport); err != nil {
			return err
		}
	}

	farms, err := fetchFarms(ctx)
	if err != nil {
		return apiError(err)
	}

	farms = farmview.Filter{Risk: farmsRisk, Site: farmsSite}.Apply(farms)
	farmview.SortByRisk(farms)

	if format != "" {
		return exportFarms(farms, format)
	}

	if len(farms) == 0 {
		fmt.Println("No farms found")
		return nil
	}

	fmt.Println(theme.FarmTable(farms))
	if !farmsNoChart && !farmsOverlaps {
		fmt.Println()
		fmt.Print(theme.RiskChart(farmview.Summarize(farms), 40))
	}
	if sites := farmview.Sites(farms); len(sites) > 1 && farmsSite == "" {
		fmt.Printf("\nSites: %d (filter with --site)\n", len(sites))
	}
	return nil
}

func fetchFarms(ctx context.Context) ([]client.Farm, error) {
	if farmsOverlaps {
		if farmsFileID == "" {
			return nil, fmt.Errorf("--overlaps needs --file-id")
		}
		return apiClient.ListOverlappingFarms(ctx, farmsFileID)
	}
	return apiClient.ListFarms(ctx, client.FarmQuery{FileID: farmsFileID, UserID: farmsUserID})
}

func exportFarms(farms []client.Farm, format export.Format) error {
	if len(farms) == 0 {
		return fmt.Errorf("no farms to export")
	}
	if err := os.MkdirAll(farmsOutDir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(farmsOutDir, export.FileName(store.Lang(), format, time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := export.Write(f, format, farms); err != nil {
		_ = f.Close()
		return fmt.Errorf("export farms: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	logger.Info("farms exported", "path", path, "count", len(farms), "format", format)
	fmt.Printf("Exported %d farm(s) to %s\n", len(farms), path)
	return nil
}
