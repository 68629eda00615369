package cmd

import (
	"github.com/silvergrid/formula"
	"github.com/silvergrid/formula/internal/engine"
	"github.com/spf13/cobra"
)

var (
	parseAST   bool
	parseNoOpt bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <expression>",
	Short: "Parse a formula and print its canonical printed form",
	Long: `parse compiles an expression and prints the tree's canonical
printed form (two expressions with equal printed forms under the same
grammar are semantically equivalent). --ast also prints the static
result type and the factorizer's complexity estimate.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseAST, "ast", false, "also print the static type and complexity estimate")
	parseCmd.Flags().BoolVar(&parseNoOpt, "no-optimize", false, "disable the common-subexpression/constant-folding pass")
	rootCmd.AddCommand(parseCmd)
}

func runParse(c *cobra.Command, args []string) error {
	eng, err := engine.New(!parseNoOpt)
	if err != nil {
		return err
	}
	expression, err := formula.Parse(eng.Grammar, args[0])
	if err != nil {
		return err
	}
	defer expression.Close()

	c.Println(expression.String())
	if parseAST {
		root := expression.Root()
		c.Printf("type:       %s\n", eng.Grammar.Types.Name(root.TypeID()))
		c.Printf("complexity: %d\n", root.Complexity())
	}
	return nil
}
