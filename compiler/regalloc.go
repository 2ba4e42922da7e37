package compiler

// ---------------------------------------------------------------------------
// Register allocation
// ---------------------------------------------------------------------------
//
// Registers are handed out by a per-function monotonic counter. Temporaries
// are reclaimed by saving the counter before nested code runs and forcing
// it back afterwards:
//
//	saved := g.checkpoint()
//	defer g.restore(saved)

// allocRegister returns the next free register and advances the counter.
func (g *Generator) allocRegister() (int, error) {
	f := g.current()
	r := f.reg
	f.reg++
	if err := g.checkRegisterMax(); err != nil {
		return 0, err
	}
	return r, nil
}

// nextRegister returns the next free register without allocating it.
func (g *Generator) nextRegister() int {
	return g.current().reg
}

// checkpoint saves the register counter.
func (g *Generator) checkpoint() int {
	return g.current().reg
}

// restore forces the register counter back to a saved value.
func (g *Generator) restore(saved int) {
	g.current().reg = saved
}

// setRegister moves the counter to n, which may reserve registers.
func (g *Generator) setRegister(n int) error {
	g.current().reg = n
	return g.checkRegisterMax()
}

// reserve makes sure every register of a bounded window is below the
// counter, so temporaries allocated while filling it land above it.
// An open window reserves its first register.
func (g *Generator) reserve(w Window) error {
	need := w.Start() + 1
	if end, ok := w.End(); ok {
		need = end
	}
	if need > g.nextRegister() {
		return g.setRegister(need)
	}
	return nil
}

func (g *Generator) checkRegisterMax() error {
	f := g.current()
	if f.reg > f.regMax {
		f.regMax = f.reg
	}
	if f.regMax > g.cfg.MaxRegisters {
		return g.limitError(LimitRegisters, g.cfg.MaxRegisters)
	}
	return nil
}

func (g *Generator) limitError(kind LimitKind, limit int) error {
	fn := g.function()
	return &LimitError{Kind: kind, Module: fn.Module, Line: fn.Line, Limit: limit}
}
