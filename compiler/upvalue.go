package compiler

// ---------------------------------------------------------------------------
// Upvalue resolution
// ---------------------------------------------------------------------------

// resolveUpvalue returns the index of name in the current function's upvalue
// table, creating records in every function between the current one and the
// function that owns the variable. The scoping pass guarantees some
// enclosing function binds name; failing to find it is an InternalError.
func (g *Generator) resolveUpvalue(name string, line int) (int, error) {
	return g.upvalueAt(len(g.frames)-1, name, line)
}

// upvalueAt resolves name for frames[level]. Each level either already has a
// record, or adds one pointing at its parent's register (when the parent
// binds name locally) or at its parent's upvalue (resolved recursively).
// Every intermediate function thus gets exactly one hop.
func (g *Generator) upvalueAt(level int, name string, line int) (int, error) {
	f := g.frames[level]
	if idx := f.fn.UpvalueIndex(name); idx >= 0 {
		return idx, nil
	}
	if level == 0 {
		return 0, &InternalError{Name: name, Line: line, Reason: "no enclosing function binds upvalue"}
	}

	parent := g.frames[level-1]
	parentLocal := false
	var index int
	if b, ok := parent.lookupLocal(name); ok {
		parentLocal = true
		index = b.register
	} else {
		idx, err := g.upvalueAt(level-1, name, line)
		if err != nil {
			return 0, err
		}
		index = idx
	}

	idx := f.fn.AddUpvalue(name, parentLocal, index)
	if idx >= g.cfg.MaxUpvalues {
		fn := f.fn
		return 0, &LimitError{Kind: LimitUpvalues, Module: fn.Module, Line: fn.Line, Limit: g.cfg.MaxUpvalues}
	}
	log.Debugf("upvalue %q in function #%d: index %d parent-local %t from %d", name, f.index, idx, parentLocal, index)
	return idx, nil
}
