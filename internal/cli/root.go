// Package cli provides the command-line interface for terratrac.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/terratrac/terratrac-go/internal/client"
	"github.com/terratrac/terratrac-go/internal/config"
	"github.com/terratrac/terratrac-go/internal/credentials"
	"github.com/terratrac/terratrac-go/internal/metrics"
	"github.com/terratrac/terratrac-go/internal/ui"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	plainFlag bool

	// Global state, set up before every command
	cfg         config.Config
	logger      *slog.Logger
	closeLogger func() error
	store       *credentials.Store
	apiClient   *client.Client
	stats       *metrics.Collector
	theme       = ui.DefaultTheme
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "terratrac",
	Short: "Upload farm plot files to TerraTrac",
	Long: `terratrac uploads farm plot files (csv, xlsx, xls, geojson) to a TerraTrac
server for EUDR risk validation, and lists what the server has analysed.

Files can be uploaded directly or dropped into a watched folder.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		// a full-screen view owns the terminal, so only warnings reach stderr
		stderrLevel := cfg.LogLevel
		if verbose {
			stderrLevel = slog.LevelDebug
		}
		if interactive() && cmd.Annotations["tui"] == "true" {
			stderrLevel = slog.LevelWarn
		}
		logger, closeLogger = config.SetupLogger(cfg.LogFile, min(cfg.LogLevel, stderrLevel), stderrLevel)
		slog.SetDefault(logger)

		var err error
		store, err = credentials.Load(cfg.CredentialsFile)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		store = store.WithOverrides(cfg.AuthToken, cfg.CSRFToken)

		apiClient = client.New(cfg.ServerURL, store, cfg.ClientTimeout)
		stats = metrics.NewCollector()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && stats != nil {
			if snap := stats.Snapshot(); snap.Upload != nil || snap.Parse != nil {
				fmt.Fprint(os.Stderr, theme.StatsTable(snap))
			}
		}
		if closeLogger != nil {
			if err := closeLogger(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// interactive reports whether the full-screen upload view can be used.
func interactive() bool {
	if plainFlag || cfg.Plain {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and timing stats")
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "line-based output even on a terminal")

	// Add subcommands
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(farmsCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(revalidateCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(langCmd)
}
