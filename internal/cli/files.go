package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terratrac/terratrac-go/internal/client"
)

var filesCmd = &cobra.Command{
	Use:   "files [file-id]",
	Short: "List uploaded files or inspect one",
	Long: `List files uploaded to the server, or show a single file by ID.

Examples:
  terratrac files        # List all files
  terratrac files 42     # Show file 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFiles,
}

// apiError adds a login hint to authentication failures.
func apiError(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w (run 'terratrac auth login --token <token>')", err)
	}
	return err
}

func runFiles(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showFile(ctx, args[0])
	}

	files, err := apiClient.ListFiles(ctx)
	if err != nil {
		return apiError(err)
	}
	if len(files) == 0 {
		fmt.Println("No files uploaded yet")
		return nil
	}

	fmt.Println(theme.FileTable(files))
	fmt.Printf("%d file(s)\n", len(files))
	return nil
}

func showFile(ctx context.Context, id string) error {
	f, err := apiClient.GetFile(ctx, id)
	if err != nil {
		return apiError(err)
	}

	fmt.Printf("File: %s\n", f.FileName)
	fmt.Printf("  ID: %d\n", f.ID)
	fmt.Printf("  Uploaded by: %s\n", f.UploadedBy)
	fmt.Printf("  Uploaded: %s\n", f.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Review: %s\n", reviewURL(id))
	return nil
}
