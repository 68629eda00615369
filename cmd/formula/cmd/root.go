// Package cmd implements the formula CLI's cobra command tree: eval,
// parse, and bench, each building the same engine.Engine wiring over
// a source expression and, optionally, a JSON facts document.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is the CLI's reported version, overridable by build flags.
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "formula",
	Short: "Parse and evaluate airline-domain formula expressions",
	Long: `formula is a small command line front end for the formula engine:
a grammar-driven expression language evaluated against named facts,
backed by a parse-once/evaluate-many-times compiled tree.

Examples:
  formula eval "(6 >= 5) AND (4 > 3)"
  formula eval "$Customer.Services[2].code == 'LNGE'" --facts customer.json
  formula parse "-6 > 5 ? 'Wrong' : 'Right'"
  formula bench "$Flight.Cabin == 'Y'" --facts flight.json -n 100000`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
