package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinder/internal/driver"
	"cinder/internal/ir"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] file",
	Short: "Lower a source file and dump the IR",
	Args:  cobra.ExactArgs(1),
	RunE:  irExecution,
}

func irExecution(cmd *cobra.Command, args []string) error {
	opts, err := driverOptions(cmd)
	if err != nil {
		return err
	}
	// The dump needs the in-memory IR, which a cache hit would skip.
	opts.NoCache = true

	res, err := driver.Compile(args[0], opts)
	if err != nil {
		return err
	}
	res.RenderDiagnostics(os.Stderr, useColor(cmd))
	if !res.Ok() {
		return fmt.Errorf("compilation failed")
	}
	return ir.Dump(os.Stdout, res.IR)
}
