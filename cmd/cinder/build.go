package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cinder/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] file...",
	Short: "Compile cinder sources to assembly",
	Args:  cobra.MinimumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output path (single input only)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the build cache")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output requires a single input file")
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd)
	if err != nil {
		return err
	}
	opts.NoCache = noCache

	results, err := driver.CompileAll(cmd.Context(), args, opts)
	if err != nil {
		return err
	}

	failed := false
	for _, res := range results {
		if res == nil {
			failed = true
			continue
		}
		res.RenderDiagnostics(os.Stderr, useColor(cmd))
		if !res.Ok() {
			failed = true
			continue
		}
		out := output
		if out == "" {
			out = strings.TrimSuffix(res.Path, driver.SourceExt) + ".s"
		}
		if err := os.WriteFile(out, []byte(res.Asm), 0o644); err != nil {
			return err
		}
		if opts.Timings {
			fmt.Fprint(os.Stderr, res.Timer.Summary())
		}
	}

	if failed {
		return fmt.Errorf("build failed")
	}
	return nil
}

func driverOptions(cmd *cobra.Command) (driver.Options, error) {
	a, err := targetArch(cmd)
	if err != nil {
		return driver.Options{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return driver.Options{}, err
	}
	return driver.Options{
		Arch:           a,
		MaxDiagnostics: maxDiagnostics,
		Timings:        timings,
	}, nil
}
