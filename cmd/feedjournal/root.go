package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"feedjournal/pkg/auth"
	"feedjournal/pkg/config"
	"feedjournal/pkg/feed"
	"feedjournal/pkg/logger"
	"feedjournal/pkg/metrics"
	"feedjournal/pkg/syncer"
	"feedjournal/pkg/ui"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	dryRun     bool

	// newCredentialManager opens the token stores; replaced in tests
	newCredentialManager = auth.NewManager
)

// rootCmd imports the handle's posts when called with arguments
var rootCmd = &cobra.Command{
	Use:   "feedjournal <handle> [page]",
	Short: "Import your posts into Day One, picking up where the last run stopped",
	Long: `feedjournal copies a user's posts from the feed API into Day One journal
entries. The identifier of the newest imported post is kept in a watermark
file, so each run only imports what was posted since the previous one.

Pages are fetched newest first starting at [page] (default 1). The run stops
at an empty page, at the first already-imported post (only when starting at
page 1) or when the API rate limit is reached. Replies are skipped.`,
	Example: `  # Import new posts
  feedjournal alice

  # Walk older history starting at page 5
  feedjournal alice 5

  # Print entries instead of creating them
  feedjournal alice --dry-run`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
	},
	RunE: runSync,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.feedjournal.yaml or $HOME/.feedjournal.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print entries instead of creating them (watermark is still updated)")

	rootCmd.SetVersionTemplate(`feedjournal {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// parseArgs returns the handle and the begin page
func parseArgs(args []string) (string, int, error) {
	handle := feed.SanitizeHandle(args[0])
	if !feed.IsValidHandle(handle) {
		return "", 0, fmt.Errorf("invalid handle %q", args[0])
	}

	page := 1
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p < 1 {
			return "", 0, fmt.Errorf("page must be a positive integer, got %q", args[1])
		}
		page = p
	}
	return handle, page, nil
}

// loadConfig loads the configuration with the global flags applied
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if dryRun {
		flags["exporter"] = config.BackendStdout
	}
	return config.Load(configFile, flags)
}

func runSync(cmd *cobra.Command, args []string) error {
	handle, page, err := parseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	if cfg.Feed.Token == "" {
		if manager, err := newCredentialManager(); err == nil {
			cfg.Feed.Token = manager.Token(auth.DefaultName)
		} else {
			log.WithError(err).Debug("Credential store unavailable, continuing without token")
		}
	}

	s, err := syncer.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Textfile != "" {
		registry = prometheus.NewRegistry()
		s.SetRecorder(metrics.NewCollector(registry))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := s.Run(ctx, handle, page)

	if registry != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
			log.WithError(err).Warn("Failed to write metrics")
		}
	}

	if runErr != nil {
		return runErr
	}

	log.InfoWithFields("Run complete", map[string]interface{}{
		"run_id":    res.RunID,
		"state":     res.Outcome.State,
		"exported":  res.Outcome.Exported,
		"watermark": res.Watermark,
	})
	return nil
}
