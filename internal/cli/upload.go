package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"

	"github.com/terratrac/terratrac-go/internal/parser"
	"github.com/terratrac/terratrac-go/internal/ui"
	"github.com/terratrac/terratrac-go/internal/upload"
)

var (
	uploadDryRun bool
	uploadOpen   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file|glob>...",
	Short: "Upload farm plot files for validation",
	Long: `Upload one or more farm plot files to the TerraTrac server.

Supported formats: csv, xlsx, xls and geojson, optionally xz-compressed
(farms.csv.xz). Files are uploaded one at a time. On success the review
page for the file is printed, or opened with --open.

Examples:
  terratrac upload farms.csv
  terratrac upload "plots/**/*.xlsx"
  terratrac upload farms.geojson --open
  terratrac upload farms.csv --dry-run`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{"tui": "true"},
	RunE:        runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "parse files and report without uploading")
	uploadCmd.Flags().BoolVar(&uploadOpen, "open", false, "open the review page in a browser after upload")
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// expandPaths resolves glob arguments. Plain paths pass through unchanged so
// a missing file still produces a clear error.
func expandPaths(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
			sort.Strings(matches)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func submitOptions() upload.Options {
	return upload.Options{
		BaseURL: cfg.ServerURL,
		Logger:  logger,
		Metrics: stats,
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	if uploadDryRun {
		return dryRun(paths)
	}

	if store.AuthToken() == "" {
		logger.Warn("no auth token set, the server will reject the upload; run 'terratrac auth login'")
	}

	ctx, cancel := signalContext()
	defer cancel()

	return uploadAll(ctx, paths, uploadOne)
}

// uploadAll submits paths in order. A cancelled upload ends the batch.
func uploadAll(ctx context.Context, paths []string, uploadFn func(context.Context, string) (bool, error)) error {
	var failed, done int
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		ok, err := uploadFn(ctx, path)
		done++
		if !ok {
			failed++
		}
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("upload cancelled after %d of %d files: %w", done, len(paths), err)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", filepath.Base(path), err)
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("upload cancelled after %d of %d files: %w", done, len(paths), ctx.Err())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
	}
	return nil
}

// uploadOne submits a single file and reports whether it was accepted.
func uploadOne(ctx context.Context, path string) (bool, error) {
	var (
		out    upload.Outcome
		err    error
		target string
	)

	if interactive() {
		var sub *upload.Submitter
		res, uerr := ui.RunUpload(ctx, filepath.Base(path), func(ctx context.Context, v upload.View) (upload.Outcome, error) {
			if sub == nil {
				sub = upload.NewSubmitter(apiClient, v, submitOptions())
			}
			return sub.SubmitFile(ctx, path)
		})
		if uerr != nil {
			return false, uerr
		}
		if res.Aborted {
			// ctrl+c in raw mode never reaches the signal handler.
			return res.Outcome != nil && res.Outcome.Kind == upload.Success, context.Canceled
		}
		if res.Outcome != nil {
			out = *res.Outcome
		}
		err, target = res.Err, res.Target
		if target != "" {
			fmt.Printf("Review: %s\n", target)
		}
	} else {
		view := ui.NewPlainView(os.Stdout)
		fmt.Printf("Uploading %s\n", filepath.Base(path))
		out, err = upload.NewSubmitter(apiClient, view, submitOptions()).SubmitFile(ctx, path)
		target = view.Target()
	}

	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			return false, fmt.Errorf("cannot upload: %w", err)
		}
		return false, err
	}
	if out.Kind != upload.Success {
		if !interactive() {
			return false, nil
		}
		return false, errors.New(out.Message)
	}

	if uploadOpen && target != "" {
		launcher.Open(target)
	}
	return true, nil
}

func dryRun(paths []string) error {
	var failed int
	for _, path := range paths {
		rec, err := parser.ParseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", filepath.Base(path), err)
			failed++
			continue
		}
		fmt.Printf("✓ %s → file_name=%s format=%s rows=%d bytes=%d\n",
			filepath.Base(path), rec.FileName, rec.Format, len(rec.Rows), len(rec.Content))
		if len(rec.Header) > 0 {
			fmt.Printf("  columns: %s\n", strings.Join(rec.Header, ", "))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files cannot be uploaded", failed, len(paths))
	}
	return nil
}
