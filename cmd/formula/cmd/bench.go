package cmd

import (
	"fmt"
	"time"

	"github.com/silvergrid/formula"
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/internal/airline"
	"github.com/silvergrid/formula/internal/engine"
	"github.com/spf13/cobra"
)

var (
	benchFactsPath string
	benchCount     int
	benchNoOpt     bool
)

var benchCmd = &cobra.Command{
	Use:   "bench <expression>",
	Short: "Parse once and evaluate an expression N times against one context",
	Long: `bench measures the parse-once/evaluate-many-times path the
engine is built for: one compiled Expression evaluated repeatedly against the
same Context (Clean() between runs, so no fact or NaN state leaks
from one iteration to the next) rather than re-parsing every time.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchFactsPath, "facts", "", "path to a JSON facts document")
	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 1000, "number of evaluations to run")
	benchCmd.Flags().BoolVar(&benchNoOpt, "no-optimize", false, "disable the common-subexpression/constant-folding pass")
	rootCmd.AddCommand(benchCmd)
}

func runBench(c *cobra.Command, args []string) error {
	if benchCount <= 0 {
		return fmt.Errorf("bench: --count must be positive, got %d", benchCount)
	}

	eng, err := engine.New(!benchNoOpt)
	if err != nil {
		return err
	}
	facts, err := loadFacts(benchFactsPath)
	if err != nil {
		return fmt.Errorf("loading facts: %w", err)
	}

	expression, err := formula.Parse(eng.Grammar, args[0])
	if err != nil {
		return err
	}
	defer expression.Close()

	ctx := evalctx.New(nil)
	start := time.Now()
	for i := 0; i < benchCount; i++ {
		ctx.Clean()
		if err := airline.BindFacts(ctx, facts, eng.Airline); err != nil {
			return err
		}
		if _, err := expression.Evaluate(ctx); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	c.Printf("%d evaluations in %s (%s/eval)\n", benchCount, elapsed, elapsed/time.Duration(benchCount))
	return nil
}
