package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-jsvm/jsvm/internal/lexer"
	"github.com/go-jsvm/jsvm/internal/parser"
	"github.com/go-jsvm/jsvm/internal/token"
)

var (
	parseEval string
	lexEval   string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a JavaScript file and print its AST",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input, filename, err := readInput(parseEval, args)
		if err != nil {
			return err
		}
		prog, err := parser.Parse(input)
		if err != nil {
			return reportSourceError(err, input, filename)
		}
		for _, stmt := range prog.Body {
			pos := stmt.Pos()
			fmt.Printf("%3d:%-3d %s\n", pos.Line, pos.Column, stmt.String())
		}
		return nil
	},
}

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a JavaScript file and print its token stream",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input, _, err := readInput(lexEval, args)
		if err != nil {
			return err
		}
		lx := lexer.New(input)
		for {
			tok := lx.Next()
			if tok.Kind == token.EOF {
				break
			}
			if tok.Literal != "" {
				fmt.Printf("%3d:%-3d %-16s %q\n", tok.Pos.Line, tok.Pos.Column, tok.Kind, tok.Literal)
			} else {
				fmt.Printf("%3d:%-3d %s\n", tok.Pos.Line, tok.Pos.Column, tok.Kind)
			}
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseEval, "eval", "e", "", "parse inline code instead of reading from file")
	lexCmd.Flags().StringVarP(&lexEval, "eval", "e", "", "tokenize inline code instead of reading from file")
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(lexCmd)
}
