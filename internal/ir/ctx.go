// Package ir is the control-flow-graph intermediate representation:
// functions of basic blocks connected by explicit jump and branch
// edges, plus the data-section globals of one translation unit.
//
// Blocks live in a per-function arena and are addressed by BlockID,
// so edges are indices rather than owning references and all
// lifetimes end with the owning Ctx.
package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Global is one data-section entry.
type Global struct {
	Label   string
	Size    int
	Val     int64
	HasInit bool
}

// Ctx owns the IR of one translation unit: created per compilation,
// populated by lowering, consumed by the emitter.
type Ctx struct {
	Funcs   []*Func
	Globals []Global
}

func NewCtx() *Ctx {
	return &Ctx{}
}

// NewFunc registers an empty function under the given label.
func (c *Ctx) NewFunc(label string) *Func {
	f := &Func{
		Label:    label,
		Entry:    NoBlockID,
		Epilogue: NoBlockID,
	}
	c.Funcs = append(c.Funcs, f)
	return f
}

// AddGlobal registers a data-section entry.
func (c *Ctx) AddGlobal(g Global) {
	c.Globals = append(c.Globals, g)
}

// Func is one lowered function: a block arena plus the entry and
// epilogue block handles.
type Func struct {
	Label     string
	StackSize int

	Blocks   []Block
	Entry    BlockID
	Epilogue BlockID
}

// NewBlock creates an open block registered in the function's arena.
func (f *Func) NewBlock() BlockID {
	raw, err := safecast.Conv[int32](len(f.Blocks))
	if err != nil {
		panic(fmt.Errorf("ir: block id overflow: %w", err))
	}
	id := BlockID(raw)
	f.Blocks = append(f.Blocks, Block{ID: id, Term: Terminator{Kind: TermNone}})
	return id
}

// Block resolves an ID to its block, or nil.
func (f *Func) Block(id BlockID) *Block {
	if f == nil || id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// Emit appends an instruction to an open block. Appends to a
// terminated block are dropped.
func (f *Func) Emit(b BlockID, ins Instr) {
	blk := f.Block(b)
	if blk == nil || blk.Terminated() {
		return
	}
	blk.Instrs = append(blk.Instrs, ins)
}

// Jump terminates b with an unconditional jump.
func (f *Func) Jump(b, target BlockID) {
	blk := f.Block(b)
	if blk == nil || blk.Terminated() {
		return
	}
	blk.Term = Terminator{Kind: TermJump, Jump: JumpTerm{Target: target}}
}

// BranchOn terminates b with a conditional branch taken when cond is
// non-zero.
func (f *Func) BranchOn(b BlockID, cond Operand, then, els BlockID) {
	blk := f.Block(b)
	if blk == nil || blk.Terminated() {
		return
	}
	blk.Term = Terminator{Kind: TermBranch, Branch: BranchTerm{Cond: cond, Then: then, Else: els}}
}

// Ret terminates b by leaving the function.
func (f *Func) Ret(b BlockID) {
	blk := f.Block(b)
	if blk == nil || blk.Terminated() {
		return
	}
	blk.Term = Terminator{Kind: TermRet}
}

// Predecessors computes the predecessor sets of every block.
func (f *Func) Predecessors() map[BlockID][]BlockID {
	preds := make(map[BlockID][]BlockID, len(f.Blocks))
	for i := range f.Blocks {
		for _, t := range f.Blocks[i].Term.Targets() {
			preds[t] = append(preds[t], f.Blocks[i].ID)
		}
	}
	return preds
}
