package ir

import (
	"strings"
	"testing"
)

// buildFunc assembles a minimal two-block function by hand.
func buildFunc() *Func {
	c := NewCtx()
	f := c.NewFunc("_f")
	f.Entry = f.NewBlock()
	f.Epilogue = f.NewBlock()
	f.Emit(f.Entry, Prologue("_f", 0))
	f.Jump(f.Entry, f.Epilogue)
	f.Emit(f.Epilogue, Epilogue())
	f.Ret(f.Epilogue)
	return f
}

func TestValidateFunc_Valid(t *testing.T) {
	if err := ValidateFunc(buildFunc()); err != nil {
		t.Errorf("valid function rejected: %v", err)
	}
}

func TestValidateFunc_UnterminatedReachable(t *testing.T) {
	f := buildFunc()
	mid := f.NewBlock()
	f.Block(f.Entry).Term = Terminator{Kind: TermJump, Jump: JumpTerm{Target: mid}}

	err := ValidateFunc(f)
	if err == nil {
		t.Fatal("unterminated reachable block accepted")
	}
	if !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFunc_UnterminatedUnreachableTolerated(t *testing.T) {
	f := buildFunc()
	f.NewBlock() // dangling continuation, never terminated

	if err := ValidateFunc(f); err != nil {
		t.Errorf("unreachable open block rejected: %v", err)
	}
}

func TestValidateFunc_BadTarget(t *testing.T) {
	f := buildFunc()
	f.Block(f.Entry).Term = Terminator{Kind: TermJump, Jump: JumpTerm{Target: 99}}

	if err := ValidateFunc(f); err == nil {
		t.Fatal("dangling jump target accepted")
	}
}

func TestBlock_AppendAfterTerminationDropped(t *testing.T) {
	f := buildFunc()
	before := len(f.Block(f.Entry).Instrs)
	f.Emit(f.Entry, Move(RegOperand(0, 8), ImmOperand(1, 8)))
	if got := len(f.Block(f.Entry).Instrs); got != before {
		t.Error("instruction appended to a terminated block")
	}
}

func TestBlock_SecondTerminatorIgnored(t *testing.T) {
	f := buildFunc()
	f.Jump(f.Entry, f.Entry)
	if f.Block(f.Entry).Term.Jump.Target != f.Epilogue {
		t.Error("terminator overwritten")
	}
}
