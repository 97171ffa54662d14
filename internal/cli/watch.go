package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/terratrac/terratrac-go/internal/dropzone"
	"github.com/terratrac/terratrac-go/internal/ui"
	"github.com/terratrac/terratrac-go/internal/upload"
)

var (
	watchExisting bool
	watchPattern  string
	watchSettle   time.Duration
	watchLogOnly  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload files dropped into a folder",
	Long: `Watch a folder and upload every supported file dropped into it.

A file is picked up once it has stopped changing for the settle interval.
Hidden files, partial downloads and editor temp files are ignored.

Examples:
  terratrac watch ~/Drop
  terratrac watch ./inbox --existing
  terratrac watch ./inbox --pattern "*.{csv,geojson}"`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also upload matching files already in the folder")
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "file name pattern (default from TERRATRAC_DROP_PATTERN)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", dropzone.DefaultSettle, "quiet period before a file is picked up")
	watchCmd.Flags().BoolVar(&watchLogOnly, "log-only", false, "log dropped files without uploading")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	handler := dropzone.DropHandler(logger)
	if !watchLogOnly {
		sub := upload.NewSubmitter(apiClient, ui.NewPlainView(os.Stdout), submitOptions())
		handler = func(ctx context.Context, path string) error {
			out, err := sub.SubmitFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return err
			}
			if out.Kind != upload.Success {
				return errors.New(out.Message)
			}
			return nil
		}
	}

	pattern := watchPattern
	if pattern == "" {
		pattern = cfg.DropPattern
	}
	zone, err := dropzone.New(args[0], handler, dropzone.Options{
		Pattern: pattern,
		Settle:  watchSettle,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if watchExisting {
		n, err := zone.Existing(ctx)
		if err != nil {
			logger.Warn("some existing files failed", "error", err)
		}
		fmt.Printf("Processed %d existing file(s)\n", n)
	}

	if err := zone.Start(ctx); err != nil {
		return err
	}
	defer zone.Stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", zone.Dir())
	<-ctx.Done()

	s := zone.Stats()
	fmt.Printf("\nUploaded %d, failed %d, ignored %d\n", s.Dropped, s.Failed, s.Suppressed)
	return nil
}
