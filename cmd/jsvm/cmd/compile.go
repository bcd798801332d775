package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/internal/ijserr"
	"github.com/go-jsvm/jsvm/internal/parser"
	"github.com/go-jsvm/jsvm/internal/token"
	"github.com/go-jsvm/jsvm/pkg/jsvm"
)

var (
	compileEval string
	disasmEval  string
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a JavaScript file without running it",
	Long:  `Parse and compile a JavaScript program, reporting any syntax errors.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input, filename, err := readInput(compileEval, args)
		if err != nil {
			return err
		}
		ctx := jsvm.New()
		if _, err := ctx.Compile(input); err != nil {
			return reportSourceError(err, input, filename)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "%s compiled OK\n", filename)
		}
		return nil
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Disassemble compiled bytecode",
	Long:  `Compile a JavaScript program and print a bytecode listing.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input, filename, err := readInput(disasmEval, args)
		if err != nil {
			return err
		}
		ctx := jsvm.New()
		block, err := ctx.Compile(input)
		if err != nil {
			return reportSourceError(err, input, filename)
		}
		bytecode.Disassemble(os.Stdout, block)
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileEval, "eval", "e", "", "compile inline code instead of reading from file")
	disasmCmd.Flags().StringVarP(&disasmEval, "eval", "e", "", "disassemble inline code instead of reading from file")
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(disasmCmd)
}

// dumpCompiled prints the AST and/or bytecode of input for run's debug
// flags.
func dumpCompiled(ctx *jsvm.Context, input string, ast, code bool) error {
	if ast {
		prog, err := parser.Parse(input)
		if err != nil {
			return err
		}
		fmt.Println("AST:")
		for _, stmt := range prog.Body {
			fmt.Println("  " + stmt.String())
		}
		fmt.Println()
	}
	if code {
		block, err := ctx.Compile(input)
		if err != nil {
			return err
		}
		bytecode.Disassemble(os.Stdout, block)
		fmt.Println()
	}
	return nil
}

// reportSourceError pretty-prints a SyntaxError with source context when
// the error carries a position, and passes everything else through.
func reportSourceError(err error, source, file string) error {
	msg := err.Error()
	if pos, ok := positionFromMessage(msg); ok {
		se := ijserr.New(pos, msg, source, file)
		fmt.Fprintln(os.Stderr, se.Format(true))
		return fmt.Errorf("compilation failed")
	}
	fmt.Fprintln(os.Stderr, msg)
	return fmt.Errorf("execution failed")
}

// positionFromMessage recovers the "(line:col)" suffix the parser and
// compiler append to SyntaxErrors.
func positionFromMessage(msg string) (token.Position, bool) {
	open := strings.LastIndex(msg, "(")
	end := strings.LastIndex(msg, ")")
	if open < 0 || end != len(msg)-1 || end <= open {
		return token.Position{}, false
	}
	var line, col int
	if _, err := fmt.Sscanf(msg[open:end+1], "(%d:%d)", &line, &col); err != nil {
		return token.Position{}, false
	}
	return token.Position{Line: line, Column: col}, true
}
