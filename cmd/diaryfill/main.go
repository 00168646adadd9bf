// Package main provides the diaryfill CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javajack/diaryfill/internal/config"
	"github.com/javajack/diaryfill/internal/logging"
)

// errNothingFilled makes `fill` exit with status 2 when the run changed nothing.
var errNothingFilled = errors.New("nothing to fill")

type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errNothingFilled):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "diaryfill",
		Short: "Fill blank diary cells from the nearest value above",
		Long: `diaryfill completes a monthly work diary workbook (.xlsx).

It picks the sheet for the current month (e.g. "日誌5月"), walks the rows dated
in this month up to today, skips holidays (marker 50 in column U) and copies the
nearest non-blank value above into blank cells of columns V, X, Y and AA.
Existing values are never overwritten.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		a.newServeCmd(),
		a.newFillCmd(),
		a.newDescribeCmd(),
		a.newValidateCmd(),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger
	return nil
}
