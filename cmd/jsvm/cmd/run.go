package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-jsvm/jsvm/pkg/jsvm"
)

var (
	evalExpr     string
	dumpAST      bool
	dumpBytecode bool
	trace        bool
	printResult  bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a JavaScript file or expression",
	Long: `Execute a JavaScript program from a file or inline expression.

Examples:
  # Run a script file
  jsvm run script.js

  # Evaluate an inline expression
  jsvm run -e "console.log('Hello, World!');"

  # Run with a bytecode dump (for debugging)
  jsvm run --dump-bytecode script.js

  # Run with an execution trace
  jsvm run --trace script.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "dump the parsed AST (for debugging)")
	runCmd.Flags().BoolVar(&dumpBytecode, "dump-bytecode", false, "dump compiled bytecode before running")
	runCmd.Flags().BoolVar(&trace, "trace", false, "trace execution (for debugging)")
	runCmd.Flags().BoolVarP(&printResult, "print", "p", false, "print the script's completion value")
}

func runScript(_ *cobra.Command, args []string) error {
	input, filename, err := readInput(evalExpr, args)
	if err != nil {
		return err
	}

	opts := []jsvm.Option{}
	if trace {
		opts = append(opts, jsvm.WithTrace(os.Stderr))
	}
	ctx := jsvm.New(opts...)

	if dumpAST || dumpBytecode {
		if err := dumpCompiled(ctx, input, dumpAST, dumpBytecode); err != nil {
			return reportSourceError(err, input, filename)
		}
	}

	result, err := ctx.Eval(input)
	if err != nil {
		return reportSourceError(err, input, filename)
	}
	if printResult {
		fmt.Println(result.String())
	}
	return nil
}
