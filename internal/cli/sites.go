package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List collection sites",
	Args:  cobra.NoArgs,
	RunE:  runSites,
}

func runSites(cmd *cobra.Command, args []string) error {
	sites, err := apiClient.ListCollectionSites(context.Background())
	if err != nil {
		return apiError(err)
	}
	if len(sites) == 0 {
		fmt.Println("No collection sites found")
		return nil
	}
	fmt.Println(theme.SiteTable(sites))
	return nil
}
