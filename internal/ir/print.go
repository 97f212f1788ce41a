package ir

import (
	"fmt"
	"io"
)

// Dump writes a human-readable representation of a translation unit.
func Dump(w io.Writer, c *Ctx) error {
	if w == nil || c == nil {
		return nil
	}

	if len(c.Globals) > 0 {
		fmt.Fprintf(w, "globals=%d\n", len(c.Globals))
		for _, g := range c.Globals {
			if g.HasInit {
				fmt.Fprintf(w, "  %s: size=%d init=%d\n", g.Label, g.Size, g.Val)
			} else {
				fmt.Fprintf(w, "  %s: size=%d\n", g.Label, g.Size)
			}
		}
	}

	fmt.Fprintf(w, "funcs=%d\n", len(c.Funcs))
	for _, f := range c.Funcs {
		if err := dumpFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "\nfn %s: stack=%d entry=b%d epilogue=b%d\n",
		f.Label, f.StackSize, f.Entry, f.Epilogue)

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(w, "  b%d:\n", bb.ID)
		for _, ins := range bb.Instrs {
			fmt.Fprintf(w, "    %s\n", instrStr(ins))
		}
		fmt.Fprintf(w, "    %s\n", termStr(bb.Term))
	}
	return nil
}

func instrStr(ins Instr) string {
	switch ins.Kind {
	case InstrPrologue:
		return fmt.Sprintf("prologue %s stack=%d", ins.Label, ins.Size)
	case InstrEpilogue:
		return "epilogue"
	case InstrMove:
		return fmt.Sprintf("mov %s, %s", ins.Dst, ins.Src)
	case InstrLea:
		return fmt.Sprintf("lea %s, %s", ins.Dst, ins.Src)
	case InstrBinOp:
		return fmt.Sprintf("%s %s, %s", ins.ALU, ins.Dst, ins.Src)
	case InstrUnOp:
		return fmt.Sprintf("%s %s", ins.Un, ins.Dst)
	case InstrCmp:
		return fmt.Sprintf("cmp.%s %s, %s", ins.Cmp, ins.Dst, ins.Src)
	case InstrPush:
		return fmt.Sprintf("push %s", ins.Src)
	case InstrCall:
		return fmt.Sprintf("call %s args=%d", ins.Label, ins.Size)
	case InstrCopy:
		return fmt.Sprintf("copy %s <- %s size=%d", ins.Dst, ins.Src, ins.Size)
	}
	return "instr?"
}

func termStr(t Terminator) string {
	switch t.Kind {
	case TermNone:
		return "<open>"
	case TermJump:
		return fmt.Sprintf("jump b%d", t.Jump.Target)
	case TermBranch:
		return fmt.Sprintf("branch %s ? b%d : b%d", t.Branch.Cond, t.Branch.Then, t.Branch.Else)
	case TermRet:
		return "ret"
	}
	return "term?"
}
