// Package cmd holds the dishcarbon command tree.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vbonduro/dishcarbon/internal/api"
	"github.com/vbonduro/dishcarbon/internal/config"
	"github.com/vbonduro/dishcarbon/internal/logging"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	apiURL   string
	logLevel string

	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "dishcarbon",
		Short: "Estimate the carbon footprint of dishes",
		Long: `dishcarbon estimates the carbon footprint of a dish from its name or a photo,
using a carbon estimation backend. Run "dishcarbon serve" for the web UI or
"dishcarbon tui" for the terminal UI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.cleanup != nil {
				a.cleanup()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "carbon estimation backend URL (overrides CARBON_API_URL)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(a),
		newEstimateCmd(a),
		newEstimateImageCmd(a),
		newHealthCmd(a),
		newHistoryCmd(a),
		newTUICmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init(cmd *cobra.Command) error {
	a.cfg = config.Load()
	if a.apiURL != "" {
		a.cfg.APIBaseURL = a.apiURL
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	} else if cmd.Name() != "serve" && a.cfg.LogFile == "" {
		// One-shot commands keep stderr for their own output.
		a.cfg.LogLevel = "warn"
	}

	logger, cleanup, err := logging.New(a.cfg.LogLevel, a.cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.cleanup = cleanup
	return nil
}

func (a *app) client() *api.Client {
	return api.NewClient(a.cfg.APIBaseURL,
		api.WithRateLimit(a.cfg.RequestsPerMinute),
		api.WithLogger(a.logger),
	)
}
