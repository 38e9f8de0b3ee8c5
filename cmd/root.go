package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/epimodel/sirsim/sim"
	"github.com/epimodel/sirsim/sim/scenario"
)

var (
	inputPath   string // Path to the YAML parameter document
	outputDir   string // Directory receiving the report tables
	threads     int    // Worker pool size; <= 1 runs scenarios sequentially
	logLevel    string // Log verbosity level
	sqlitePath  string // Optional SQLite database receiving the report tables
	metricsPath string // Optional Prometheus textfile receiving run totals
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "sirsim",
	Short: "Agent-based stochastic SIR+D epidemic simulator",
}

// runOptions carries everything runSimulation needs, so tests can call it without flags.
type runOptions struct {
	input       string
	output      string
	threads     int
	sqlitePath  string
	metricsPath string
}

// runCmd executes every scenario of the input document
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenarios of a parameter document",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		opts := runOptions{
			input:       inputPath,
			output:      outputDir,
			threads:     threads,
			sqlitePath:  sqlitePath,
			metricsPath: metricsPath,
		}
		if err := runSimulation(opts); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runSimulation loads the config, runs every scenario and writes the output
// tables, summary manifest and optional metrics. Output of completed
// scenarios is committed even when a sibling scenario failed.
func runSimulation(opts runOptions) error {
	cfg, err := sim.LoadConfig(opts.input)
	if err != nil {
		return fmt.Errorf("config %s: %w", opts.input, err)
	}
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tables, err := openTables(opts)
	if err != nil {
		return err
	}

	// A single parameter set always runs on the calling goroutine.
	workers := opts.threads
	if !cfg.Multiple {
		workers = 1
	}
	runID := uuid.NewString()
	logrus.WithField("run_id", runID).Infof("Starting run of %d scenario(s), input=%s, output=%s",
		len(cfg.Scenarios), opts.input, opts.output)

	results, runErr := scenario.NewRunner(tables, workers).Run(cfg.Scenarios)
	if runErr != nil && !errors.Is(runErr, scenario.ErrAllScenariosFailed) {
		_ = tables.Cleanup()
		return runErr
	}
	if err := tables.Commit(); err != nil {
		return fmt.Errorf("commit output tables: %w", err)
	}

	for _, res := range scenario.Failed(results) {
		logrus.Warnf("Scenario %d produced no output: %v", res.Scenario, res.Err)
	}

	summary := scenario.NewSummary(runID, max(workers, 1), results)
	if err := summary.WriteFile(filepath.Join(opts.output, scenario.SummaryFile)); err != nil {
		return err
	}
	if opts.metricsPath != "" {
		metrics := scenario.NewMetrics()
		for _, res := range results {
			metrics.Observe(res)
		}
		if err := metrics.WriteTextfile(opts.metricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return runErr
}

func openTables(opts runOptions) (scenario.Tables, error) {
	csvTables, err := scenario.CreateCSVTables(opts.output)
	if err != nil {
		return nil, err
	}
	if opts.sqlitePath == "" {
		return csvTables, nil
	}
	sqliteTables, err := scenario.OpenSQLiteTables(opts.sqlitePath)
	if err != nil {
		_ = csvTables.Cleanup()
		return nil, err
	}
	return scenario.MultiTables{csvTables, sqliteTables}, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input config file (YAML parameter set or list of parameter sets)")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for incidence and death reports")
	runCmd.Flags().IntVarP(&threads, "threads", "t", 1, "Number of worker threads (<= 1 runs scenarios sequentially)")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also write the report tables to this SQLite database")
	runCmd.Flags().StringVar(&metricsPath, "metrics-file", "", "Write run totals to this Prometheus textfile")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output")

	validateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input config file to validate")
	_ = validateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
