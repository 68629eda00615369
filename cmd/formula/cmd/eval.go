package cmd

import (
	"fmt"

	"github.com/silvergrid/formula"
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/internal/airline"
	"github.com/silvergrid/formula/internal/engine"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
)

var (
	evalFactsPath string
	evalJSON      bool
	evalNoOpt     bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Parse and evaluate a formula once against an optional facts document",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalFactsPath, "facts", "", "path to a JSON facts document")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "print the result as a JSON envelope")
	evalCmd.Flags().BoolVar(&evalNoOpt, "no-optimize", false, "disable the common-subexpression/constant-folding pass")
	rootCmd.AddCommand(evalCmd)
}

func runEval(c *cobra.Command, args []string) error {
	eng, err := engine.New(!evalNoOpt)
	if err != nil {
		return err
	}
	facts, err := loadFacts(evalFactsPath)
	if err != nil {
		return fmt.Errorf("loading facts: %w", err)
	}

	expression, err := formula.Parse(eng.Grammar, args[0])
	if err != nil {
		return err
	}
	defer expression.Close()

	ctx := evalctx.New(nil)
	if err := airline.BindFacts(ctx, facts, eng.Airline); err != nil {
		return err
	}

	result, evalErr := expression.Evaluate(ctx)
	nan := ctx.NaN()
	if evalErr != nil {
		return evalErr
	}

	if evalJSON {
		out, err := sjson.Set("", "result", result.String())
		if err != nil {
			return err
		}
		out, err = sjson.Set(out, "nan", nan)
		if err != nil {
			return err
		}
		out, err = sjson.Set(out, "type", eng.Grammar.Types.Name(result.TypeID()))
		if err != nil {
			return err
		}
		c.Println(out)
		return nil
	}

	if nan {
		c.Printf("%s  (nan)\n", result.String())
		return nil
	}
	c.Println(result.String())
	return nil
}
