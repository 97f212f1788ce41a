package ir

// Simplify cleans a function's graph after lowering:
//
//  1. collapse chains through trivial goto blocks (no instructions,
//     unconditional jump);
//  2. drop blocks unreachable from the entry, which disposes of the
//     empty continuations lowering leaves behind returns, breaks and
//     continues;
//  3. compact and renumber the arena deterministically.
//
// Lowering never depends on this pass; the driver runs it before
// emission.
func Simplify(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}

	redirects := buildRedirectMap(f)
	applyRedirects(f, redirects)

	reachable := Reachable(f)
	compactBlocks(f, reachable)
}

// buildRedirectMap maps every trivial goto block to its final
// target, following chains.
func buildRedirectMap(f *Func) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		// The entry and epilogue handles must keep pointing at real
		// blocks, so those two are never redirected away.
		if bb.ID == f.Entry || bb.ID == f.Epilogue {
			continue
		}
		if len(bb.Instrs) != 0 || bb.Term.Kind != TermJump {
			continue
		}
		target := bb.Term.Jump.Target
		visited := map[BlockID]bool{bb.ID: true}
		for !visited[target] {
			visited[target] = true
			if next, ok := redirects[target]; ok {
				target = next
				continue
			}
			if isTrivialGoto(f, target) {
				target = f.Blocks[target].Term.Jump.Target
				continue
			}
			break
		}
		redirects[bb.ID] = target
	}
	return redirects
}

func isTrivialGoto(f *Func, id BlockID) bool {
	bb := f.Block(id)
	if bb == nil || id == f.Entry || id == f.Epilogue {
		return false
	}
	return len(bb.Instrs) == 0 && bb.Term.Kind == TermJump
}

func applyRedirects(f *Func, redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}
	redirect := func(id BlockID) BlockID {
		if newID, ok := redirects[id]; ok {
			return newID
		}
		return id
	}

	for i := range f.Blocks {
		term := &f.Blocks[i].Term
		switch term.Kind {
		case TermJump:
			term.Jump.Target = redirect(term.Jump.Target)
		case TermBranch:
			term.Branch.Then = redirect(term.Branch.Then)
			term.Branch.Else = redirect(term.Branch.Else)
		}
	}
}

// compactBlocks removes unreachable blocks and renumbers the rest in
// arena order.
func compactBlocks(f *Func, reachable map[BlockID]bool) {
	remap := make(map[BlockID]BlockID, len(f.Blocks))
	kept := make([]Block, 0, len(f.Blocks))

	for i := range f.Blocks {
		if !reachable[f.Blocks[i].ID] {
			continue
		}
		newID := BlockID(len(kept))
		remap[f.Blocks[i].ID] = newID
		bb := f.Blocks[i]
		bb.ID = newID
		kept = append(kept, bb)
	}

	for i := range kept {
		term := &kept[i].Term
		switch term.Kind {
		case TermJump:
			term.Jump.Target = remap[term.Jump.Target]
		case TermBranch:
			term.Branch.Then = remap[term.Branch.Then]
			term.Branch.Else = remap[term.Branch.Else]
		}
	}

	f.Blocks = kept
	if id, ok := remap[f.Entry]; ok {
		f.Entry = id
	} else {
		f.Entry = NoBlockID
	}
	if id, ok := remap[f.Epilogue]; ok {
		f.Epilogue = id
	} else {
		f.Epilogue = NoBlockID
	}
}
