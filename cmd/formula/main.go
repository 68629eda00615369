// Command formula is a small command line front end for the formula
// engine, exercising the same embedding API (github.com/silvergrid/formula)
// any third-party host would use: parse an expression against a
// grammar, bind facts into a context, evaluate.
package main

import (
	"fmt"
	"os"

	"github.com/silvergrid/formula/cmd/formula/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
