package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terratrac/terratrac-go/internal/client"
	"github.com/terratrac/terratrac-go/internal/farmview"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show totals and the risk breakdown",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	var (
		files []client.UploadedFile
		farms []client.Farm
		sites []client.CollectionSite
	)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		files, err = apiClient.ListFiles(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		farms, err = apiClient.ListFarms(ctx, client.FarmQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		sites, err = apiClient.ListCollectionSites(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return apiError(err)
	}

	fmt.Printf("Files:  %d\n", len(files))
	fmt.Printf("Farms:  %d\n", len(farms))
	fmt.Printf("Sites:  %d\n\n", len(sites))
	fmt.Print(theme.RiskChart(farmview.Summarize(farms), 40))
	return nil
}
