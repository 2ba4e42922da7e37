package compiler

import (
	"sort"

	"github.com/chazu/luna/vm"
)

// ---------------------------------------------------------------------------
// Scope and function frames
// ---------------------------------------------------------------------------

// binding is one live local name.
type binding struct {
	register int
	begin    int  // first instruction where the binding is live
	captured bool // some nested function refers to it as an upvalue
}

// scope is one lexical block inside a function.
type scope struct {
	restore int // register counter at block entry
	names   map[string]*binding
}

// funcFrame is the transient compile state of one function literal.
// Its scopes slice is innermost-last.
type funcFrame struct {
	fn     *vm.Function
	index  int // index among the parent's children
	reg    int // next free register
	regMax int // high-water mark of reg
	scopes []*scope
}

// current returns the innermost function frame.
func (g *Generator) current() *funcFrame {
	return g.frames[len(g.frames)-1]
}

// function returns the artifact of the innermost function frame.
func (g *Generator) function() *vm.Function {
	return g.current().fn
}

// enterFunction pushes a frame for a new function literal. When there is an
// enclosing function the new artifact is registered as its next child and
// inherits its module name.
func (g *Generator) enterFunction(line int) (*funcFrame, error) {
	f := &funcFrame{fn: vm.NewFunction()}
	f.fn.Line = line
	if len(g.frames) > 0 {
		parent := g.current()
		if len(parent.fn.Children) > vm.MaxBx {
			return nil, g.limitError(LimitFunctions, vm.MaxBx+1)
		}
		f.index = parent.fn.AddChild(f.fn)
		f.fn.Module = parent.fn.Module
	}
	g.frames = append(g.frames, f)
	log.Debugf("enter function #%d depth %d line %d", f.index, len(g.frames), line)
	return f, nil
}

// leaveFunction unwinds any scopes still open and pops the frame.
func (g *Generator) leaveFunction() {
	f := g.current()
	f.scopes = nil
	f.fn.MaxRegisters = f.regMax
	g.frames = g.frames[:len(g.frames)-1]
	log.Debugf("leave function #%d registers %d upvalues %d", f.index, f.regMax, len(f.fn.Upvalues))
}

// enterBlock pushes a scope whose restore point is the current register counter.
func (g *Generator) enterBlock() {
	f := g.current()
	f.scopes = append(f.scopes, &scope{
		restore: f.reg,
		names:   make(map[string]*binding),
	})
}

// leaveBlock flushes the scope's bindings to the local-variable table,
// reclaims its registers and pops it.
func (g *Generator) leaveBlock() {
	f := g.current()
	s := f.scopes[len(f.scopes)-1]

	end := f.fn.InstructionCount()
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return s.names[names[i]].register < s.names[names[j]].register
	})
	for _, name := range names {
		g.flushLocal(name, s.names[name], end)
	}

	f.reg = s.restore
	f.scopes = f.scopes[:len(f.scopes)-1]
}

// insertName binds name to register in the innermost scope. A live binding
// of the same name in that scope is flushed first so its range is kept.
func (g *Generator) insertName(name string, register int, captured bool) {
	f := g.current()
	s := f.scopes[len(f.scopes)-1]
	pc := f.fn.InstructionCount()

	if old, ok := s.names[name]; ok {
		g.flushLocal(name, old, pc)
	}
	s.names[name] = &binding{register: register, begin: pc, captured: captured}
}

func (g *Generator) flushLocal(name string, b *binding, end int) {
	if !g.cfg.DebugLocals {
		return
	}
	g.function().AddLocalVar(name, b.register, b.begin, end)
}

// lookupLocal searches one function's scopes innermost-first.
// It never crosses into an enclosing function.
func (f *funcFrame) lookupLocal(name string) (*binding, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if b, ok := f.scopes[i].names[name]; ok {
			return b, true
		}
	}
	return nil, false
}
