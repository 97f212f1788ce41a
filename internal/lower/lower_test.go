package lower_test

import (
	"testing"

	"cinder/internal/arch"
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/ir"
	"cinder/internal/lexer"
	"cinder/internal/lower"
	"cinder/internal/parser"
	"cinder/internal/regalloc"
	"cinder/internal/sema"
	"cinder/internal/source"
)

// lowerSource runs the front-end on src and lowers it, returning the
// tree (for symbol assertions) and the populated IR context.
func lowerSource(t *testing.T, src string) (*ast.Node, *ir.Ctx) {
	t.Helper()

	fs := source.NewFileSet()
	file := fs.Add("test.cn", []byte(src))
	bag := diag.NewBag(50)
	reporter := diag.BagReporter{Bag: bag}

	lx := lexer.New(file, reporter)
	p := parser.New(lx, reporter, 8)
	tree := p.ParseModule()
	sema.Analyze(tree, nil, reporter)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s: %s", d.Code, d.Message)
		}
		t.Fatal("front-end reported errors")
	}

	ctx := ir.NewCtx()
	if err := lower.Lower(tree, ctx, arch.AMD64()); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	return tree, ctx
}

// lowerFunc lowers src and returns its single function.
func lowerFunc(t *testing.T, src string) *ir.Func {
	t.Helper()
	_, ctx := lowerSource(t, src)
	if len(ctx.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(ctx.Funcs))
	}
	f := ctx.Funcs[0]
	if err := ir.ValidateFunc(f); err != nil {
		t.Fatalf("invalid IR: %v", err)
	}
	return f
}

func wantJump(t *testing.T, f *ir.Func, b, target ir.BlockID) {
	t.Helper()
	blk := f.Block(b)
	if blk.Term.Kind != ir.TermJump {
		t.Fatalf("b%d: expected a jump, got %v", b, blk.Term.Kind)
	}
	if blk.Term.Jump.Target != target {
		t.Errorf("b%d: jump targets b%d, want b%d", b, blk.Term.Jump.Target, target)
	}
}

func wantBranch(t *testing.T, f *ir.Func, b, then, els ir.BlockID) {
	t.Helper()
	blk := f.Block(b)
	if blk.Term.Kind != ir.TermBranch {
		t.Fatalf("b%d: expected a branch, got %v", b, blk.Term.Kind)
	}
	if blk.Term.Branch.Then != then || blk.Term.Branch.Else != els {
		t.Errorf("b%d: branch targets (b%d, b%d), want (b%d, b%d)",
			b, blk.Term.Branch.Then, blk.Term.Branch.Else, then, els)
	}
}

func TestLower_EmptyFunction(t *testing.T) {
	f := lowerFunc(t, `void f() { }`)

	if len(f.Blocks) != 2 {
		t.Fatalf("expected entry and epilogue only, got %d blocks", len(f.Blocks))
	}
	if f.StackSize != 0 {
		t.Errorf("stack size = %d, want 0", f.StackSize)
	}
	wantJump(t, f, f.Entry, f.Epilogue)
	if f.Block(f.Epilogue).Term.Kind != ir.TermRet {
		t.Error("epilogue does not return")
	}

	entry := f.Block(f.Entry)
	if len(entry.Instrs) != 1 || entry.Instrs[0].Kind != ir.InstrPrologue {
		t.Fatal("entry block must start with the prologue")
	}
	if entry.Instrs[0].Size != 0 {
		t.Errorf("prologue reserves %d bytes, want 0", entry.Instrs[0].Size)
	}
}

func TestLower_IfElseWithReturns(t *testing.T) {
	f := lowerFunc(t, `
		int f(bool c) {
			if (c) { return 1; } else { return 2; }
		}`)

	// b0 entry, b1 epilogue, b2 continuation, b3 ifTrue, b4 ifFalse,
	// b5/b6 dead blocks after the returns.
	if len(f.Blocks) != 7 {
		t.Fatalf("expected 7 blocks, got %d", len(f.Blocks))
	}
	wantBranch(t, f, 0, 3, 4)

	for _, arm := range []struct {
		block ir.BlockID
		val   int64
	}{{3, 1}, {4, 2}} {
		blk := f.Block(arm.block)
		var move *ir.Instr
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == ir.InstrMove {
				move = &blk.Instrs[i]
			}
		}
		if move == nil {
			t.Fatalf("b%d: no move of the return value", arm.block)
		}
		if !move.Dst.IsReg(regalloc.RAX) {
			t.Errorf("b%d: return value lands in %v, want the return register", arm.block, move.Dst)
		}
		if move.Src.Kind != ir.OperandImm || move.Src.Val != arm.val {
			t.Errorf("b%d: moves %v, want immediate %d", arm.block, move.Src, arm.val)
		}
		wantJump(t, f, arm.block, f.Epilogue)
	}

	// The continuation after the if exists, is empty, and nothing
	// reachable leads to it.
	cont := f.Block(2)
	if len(cont.Instrs) != 0 {
		t.Error("continuation after if is not empty")
	}
	if ir.Reachable(f)[2] {
		t.Error("continuation after if should be unreachable")
	}
}

func TestLower_WhileWithBreak(t *testing.T) {
	f := lowerFunc(t, `
		void f(bool c, bool d) {
			while (c) {
				if (d) { break; }
			}
		}`)

	// b2 continuation, b3 body, b4 loopCheck,
	// b5 if-continuation, b6 break arm, b7 else arm, b8 dead.
	wantBranch(t, f, 0, 3, 2)
	wantBranch(t, f, 3, 6, 7)
	wantJump(t, f, 6, 2)
	wantJump(t, f, 7, 5)
	wantJump(t, f, 5, 4)
	wantBranch(t, f, 4, 3, 2)
	wantJump(t, f, 2, f.Epilogue)
}

func TestLower_DoWhile(t *testing.T) {
	f := lowerFunc(t, `
		void f(bool c) {
			do { } while (c);
		}`)

	// b2 continuation, b3 body, b4 loopCheck.
	wantJump(t, f, 0, 3)
	wantJump(t, f, 3, 4)
	wantBranch(t, f, 4, 3, 2)
	wantJump(t, f, 2, f.Epilogue)
}

func TestLower_ForLoop(t *testing.T) {
	f := lowerFunc(t, `
		void f(int n) {
			for (int i = 0; i < n; i++) { }
		}`)

	// b2 continuation, b3 body, b4 iterate.
	entry := f.Block(f.Entry)
	var init *ir.Instr
	for i := range entry.Instrs {
		if entry.Instrs[i].Kind == ir.InstrMove && entry.Instrs[i].Dst.Kind == ir.OperandMem {
			init = &entry.Instrs[i]
		}
	}
	if init == nil {
		t.Fatal("entry block does not initialize the induction variable")
	}
	if init.Dst.Off >= 0 {
		t.Errorf("induction variable stored at %+d, want a negative frame offset", init.Dst.Off)
	}

	wantBranch(t, f, 0, 3, 2)
	wantJump(t, f, 3, 4)

	iterate := f.Block(4)
	found := false
	for _, ins := range iterate.Instrs {
		if ins.Kind == ir.InstrBinOp && ins.ALU == ir.OpAdd {
			found = true
		}
	}
	if !found {
		t.Error("iterate block does not increment the induction variable")
	}
	wantBranch(t, f, 4, 3, 2)
	wantJump(t, f, 2, f.Epilogue)
}

func TestLower_BreakContinueTargetInnermostLoop(t *testing.T) {
	f := lowerFunc(t, `
		void f(bool a, bool b) {
			while (a) {
				while (b) { break; }
				continue;
			}
		}`)

	// Outer: b2 continuation, b3 body, b4 loopCheck.
	// Inner: b5 continuation, b6 body, b7 loopCheck. b8, b9 dead.
	wantBranch(t, f, 0, 3, 2)
	wantBranch(t, f, 3, 6, 5)
	// break jumps to the inner loop's exit, not the outer one's.
	wantJump(t, f, 6, 5)
	wantBranch(t, f, 7, 6, 5)
	// continue jumps to the outer loop's re-test.
	wantJump(t, f, 5, 4)
	wantBranch(t, f, 4, 3, 2)
}

func TestLower_LargeAggregateReturn(t *testing.T) {
	tree, ctx := lowerSource(t, `
		struct pair { int a; int b; };
		struct pair f(struct pair p) {
			return p;
		}`)

	if len(ctx.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(ctx.Funcs))
	}
	f := ctx.Funcs[0]
	if err := ir.ValidateFunc(f); err != nil {
		t.Fatalf("invalid IR: %v", err)
	}

	// The hidden destination pointer shifts parameters to 3 words.
	var fn *ast.Node
	for c := tree.FirstChild; c != nil; c = c.NextSibling {
		if c.Tag == ast.FnImpl {
			fn = c
		}
	}
	if fn == nil {
		t.Fatal("no FnImpl in the tree")
	}
	if got := fn.Sym.Children[0].Offset; got != 24 {
		t.Errorf("parameter offset = %d, want 24", got)
	}

	entry := f.Block(f.Entry)
	var hiddenLoad, bulkCopy, retMove bool
	for _, ins := range entry.Instrs {
		switch ins.Kind {
		case ir.InstrMove:
			if ins.Src.Kind == ir.OperandMem && ins.Src.Base == regalloc.RBP && ins.Src.Off == 16 {
				hiddenLoad = true
			}
		case ir.InstrCopy:
			if ins.Size == 16 && ins.Src.Kind == ir.OperandMem && ins.Src.Off == 24 {
				bulkCopy = true
			}
		}
	}
	// The hidden pointer was loaded straight into the return
	// register, so no extra move is needed afterwards.
	retMove = true
	for _, ins := range entry.Instrs {
		if ins.Kind == ir.InstrMove && ins.Dst.IsReg(regalloc.RAX) &&
			ins.Src.Kind == ir.OperandReg && ins.Src.Reg != regalloc.RAX {
			retMove = false
		}
	}

	if !hiddenLoad {
		t.Error("missing load of the hidden destination pointer from [rbp+16]")
	}
	if !bulkCopy {
		t.Error("missing 16-byte copy of the returned aggregate")
	}
	if !retMove {
		t.Error("unexpected extra move into the return register")
	}
	wantJump(t, f, f.Entry, f.Epilogue)
}

func TestLower_ReturnWithoutValue(t *testing.T) {
	f := lowerFunc(t, `
		void f() {
			return;
		}`)

	entry := f.Block(f.Entry)
	for _, ins := range entry.Instrs {
		if ins.Kind != ir.InstrPrologue {
			t.Errorf("void return emitted %v", ins.Kind)
		}
	}
	wantJump(t, f, f.Entry, f.Epilogue)
}

func TestLower_DeadCodeAfterReturnStaysWellFormed(t *testing.T) {
	f := lowerFunc(t, `
		int f() {
			return 1;
			return 2;
		}`)

	// Both returns lower; the second lives in an unreachable block.
	reachable := ir.Reachable(f)
	dead := 0
	for i := range f.Blocks {
		if !reachable[f.Blocks[i].ID] {
			dead++
		}
	}
	if dead == 0 {
		t.Error("expected unreachable blocks after the first return")
	}
}

func TestLower_ShortCircuitConditionSplitsBlocks(t *testing.T) {
	f := lowerFunc(t, `
		void f(bool a, bool b) {
			if (a && b) { }
		}`)

	// The && inserts an extra test block between the two operand
	// branches.
	branches := 0
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == ir.TermBranch {
			branches++
		}
	}
	if branches != 2 {
		t.Errorf("expected 2 conditional branches for a && b, got %d", branches)
	}
}

func TestLower_UsingReexportLowersOnce(t *testing.T) {
	// Simulate a resolved using by linking the same module under two
	// Using nodes; the shared dependency must be lowered once.
	depSrc := `int g() { return 1; }`
	fs := source.NewFileSet()
	bag := diag.NewBag(50)
	reporter := diag.BagReporter{Bag: bag}

	depFile := fs.Add("dep.cn", []byte(depSrc))
	depTree := parser.New(lexer.New(depFile, reporter), reporter, 8).ParseModule()
	sema.Analyze(depTree, nil, reporter)

	root := ast.New(ast.Module, source.Span{})
	for i := 0; i < 2; i++ {
		using := ast.New(ast.Using, source.Span{})
		using.Name = "dep"
		using.R = depTree
		root.AddChild(using)
	}
	if bag.HasErrors() {
		t.Fatal("front-end reported errors")
	}

	ctx := ir.NewCtx()
	if err := lower.Lower(root, ctx, arch.AMD64()); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if len(ctx.Funcs) != 1 {
		t.Errorf("shared module lowered %d times, want 1", len(ctx.Funcs))
	}
}

func TestLower_GlobalDecl(t *testing.T) {
	_, ctx := lowerSource(t, `
		int counter = 7;
		char flag;
		void f() { counter = counter + 1; }`)

	if len(ctx.Globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(ctx.Globals))
	}
	g := ctx.Globals[0]
	if g.Label != "_counter" || !g.HasInit || g.Val != 7 || g.Size != 8 {
		t.Errorf("unexpected global %+v", g)
	}
	if ctx.Globals[1].HasInit {
		t.Error("uninitialized global carries an initializer")
	}
}
