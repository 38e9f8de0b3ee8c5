package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/epimodel/sirsim/sim"
)

// validateCmd checks a parameter document without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every parameter set of a config file",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if err := validateConfig(inputPath, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Invalid config: %v", err)
		}
	},
}

// validateConfig parses path and validates every parameter set, reporting
// one line per scenario to out.
func validateConfig(path string, out io.Writer) error {
	cfg, err := sim.LoadConfig(path)
	if err != nil {
		return err
	}
	var errs []error
	for i, params := range cfg.Scenarios {
		if err := params.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("scenario %d: %w", i, err))
			fmt.Fprintf(out, "scenario %d: invalid: %v\n", i, err)
			continue
		}
		fmt.Fprintf(out, "scenario %d: ok (population=%d, r0=%g, seed=%d)\n",
			i, params.Population, params.R0, params.RandomSeed)
	}
	return errors.Join(errs...)
}
