package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinder/internal/diag"
	"cinder/internal/lexer"
	"cinder/internal/source"
	"cinder/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize file",
	Short: "Print the token stream of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  tokenizeExecution,
}

func tokenizeExecution(cmd *cobra.Command, args []string) error {
	fs := source.NewFileSet()
	file, err := fs.Load(args[0])
	if err != nil {
		return err
	}

	bag := diag.NewBag(100)
	lx := lexer.New(file, diag.BagReporter{Bag: bag})
	for {
		tok := lx.Next()
		if tok.Is(token.EOF) {
			break
		}
		line, col := file.Position(tok.Span.Start)
		fmt.Printf("%4d:%-3d %-10s %q\n", line, col, tok.Kind, tok.Text)
	}

	if bag.HasErrors() {
		return fmt.Errorf("tokenization failed")
	}
	return nil
}
