package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CompileAll compiles each root file independently, fanning out one
// goroutine per file. Every compilation owns its own file set, symbol
// tables and IR context, so the lowering core itself stays
// single-threaded per unit; only the fan-out is concurrent.
func CompileAll(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Compile(path, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
