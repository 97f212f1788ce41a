// Package regalloc implements the fixed register file used while
// lowering one function. Allocation is first-free; there is no
// spilling at this layer.
package regalloc

import "fmt"

type RegID uint8

const (
	RAX RegID = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP

	NumRegs
	NoReg RegID = 0xFF
)

// general is the allocation order for scratch registers. RBP and RSP
// are permanently reserved for the frame.
var general = [...]RegID{RAX, RBX, RCX, RDX, RSI, RDI}

var names = [NumRegs][4]string{
	RAX: {"rax", "eax", "ax", "al"},
	RBX: {"rbx", "ebx", "bx", "bl"},
	RCX: {"rcx", "ecx", "cx", "cl"},
	RDX: {"rdx", "edx", "dx", "dl"},
	RSI: {"rsi", "esi", "si", "sil"},
	RDI: {"rdi", "edi", "di", "dil"},
	RBP: {"rbp", "ebp", "bp", "bpl"},
	RSP: {"rsp", "esp", "sp", "spl"},
}

// Name returns the width-qualified register name.
// Widths narrower than the requested one round up to the nearest
// representable width.
func Name(id RegID, width int) string {
	if id >= NumRegs {
		return "r?"
	}
	switch {
	case width > 4:
		return names[id][0]
	case width > 2:
		return names[id][1]
	case width > 1:
		return names[id][2]
	default:
		return names[id][3]
	}
}

type Reg struct {
	ID    RegID
	Width int
}

// File tracks which registers are taken during the lowering of one
// function.
type File struct {
	inUse [NumRegs]bool
}

func NewFile() *File {
	f := &File{}
	f.inUse[RBP] = true
	f.inUse[RSP] = true
	return f
}

// Alloc claims the first free scratch register at the given width.
func (f *File) Alloc(width int) (Reg, error) {
	for _, id := range general {
		if !f.inUse[id] {
			f.inUse[id] = true
			return Reg{ID: id, Width: width}, nil
		}
	}
	return Reg{ID: NoReg}, fmt.Errorf("regalloc: out of registers")
}

// Request claims a specific register, returning ok=false when it is
// already taken.
func (f *File) Request(id RegID, width int) (Reg, bool) {
	if id >= NumRegs || f.inUse[id] {
		return Reg{ID: NoReg}, false
	}
	f.inUse[id] = true
	return Reg{ID: id, Width: width}, true
}

// Free releases a scratch register. The frame registers stay
// reserved.
func (f *File) Free(id RegID) {
	if id >= NumRegs || id == RBP || id == RSP {
		return
	}
	f.inUse[id] = false
}

// InUse reports whether a register is currently claimed.
func (f *File) InUse(id RegID) bool {
	return id < NumRegs && f.inUse[id]
}
