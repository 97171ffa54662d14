package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var revalidateCmd = &cobra.Command{
	Use:   "revalidate <file-id>",
	Short: "Re-run risk analysis for an uploaded file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRevalidate,
}

func runRevalidate(cmd *cobra.Command, args []string) error {
	n, err := apiClient.RevalidateFile(context.Background(), args[0])
	if err != nil {
		return apiError(err)
	}

	logger.Info("file revalidated", "file_id", args[0], "farms", n)
	fmt.Printf("Revalidated %d farm(s)\nReview: %s\n", n, reviewURL(args[0]))
	return nil
}
