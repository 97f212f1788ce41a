package ir

import (
	"errors"
	"fmt"
)

// Validate checks IR invariants for a whole translation unit.
func Validate(c *Ctx) error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, f := range c.Funcs {
		if f == nil {
			continue
		}
		if err := ValidateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Label, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks one function:
//
//  1. every block reachable from the entry is terminated
//     (unreachable tail-blocks may stay open);
//  2. all terminator targets exist;
//  3. the entry and epilogue handles resolve.
func ValidateFunc(f *Func) error {
	if f == nil {
		return nil
	}

	var errs []error

	if f.Block(f.Entry) == nil {
		errs = append(errs, fmt.Errorf("entry block b%d does not exist", f.Entry))
	}
	if f.Block(f.Epilogue) == nil {
		errs = append(errs, fmt.Errorf("epilogue block b%d does not exist", f.Epilogue))
	}

	reachable := Reachable(f)
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if reachable[bb.ID] && bb.Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("b%d: reachable block is unterminated", i))
		}
		for _, t := range bb.Term.Targets() {
			if f.Block(t) == nil {
				errs = append(errs, fmt.Errorf("b%d: terminator target b%d does not exist", i, t))
			}
		}
	}

	return errors.Join(errs...)
}

// Reachable computes the blocks reachable from the entry.
func Reachable(f *Func) map[BlockID]bool {
	reachable := make(map[BlockID]bool, len(f.Blocks))
	if f.Block(f.Entry) == nil {
		return reachable
	}
	work := []BlockID{f.Entry}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		for _, t := range f.Block(id).Term.Targets() {
			if f.Block(t) != nil && !reachable[t] {
				work = append(work, t)
			}
		}
	}
	return reachable
}
