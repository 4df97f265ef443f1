package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/paveg/tablescope"
	"github.com/paveg/tablescope/internal/config"
	"github.com/paveg/tablescope/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// skipConfig marks commands that must run even when the config file is
// missing or invalid.
const skipConfig = "skip-config"

// app carries the state shared by every command of one invocation.
type app struct {
	cfgFile  string
	logLevel string

	settings *config.Settings
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tablescope",
		Short:         "Explore tabular datasets: pages, statistics, duplicates, densities and correlations",
		Long:          `tablescope loads a CSV, JSON, XLSX or Parquet dataset from a path or an http(s) URL and reports on it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.tablescope/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newShowCmd(a),
		newDescribeCmd(a),
		newDuplicatesCmd(a),
		newKDECmd(a),
		newCorrCmd(a),
		newExportCmd(a),
		newReportCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	s, err := config.Load(a.cfgFile)
	if err != nil {
		if cmd.Annotations[skipConfig] != "true" {
			return err
		}
		defaults := config.NewSettings()
		s = &defaults
	}
	a.settings = s

	level := s.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := logging.New(level, s.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger.Named("cli")
	return nil
}

// load reads a dataset with the configured HTTP timeout.
func (a *app) load(ctx context.Context, location string) (*tablescope.Dataset, error) {
	client := &http.Client{Timeout: time.Duration(a.settings.HTTPTimeoutSec) * time.Second}

	d, err := tablescope.Load(ctx, location,
		tablescope.WithLogger(a.logger),
		tablescope.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", location, err)
	}
	return d, nil
}
