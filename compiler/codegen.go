package compiler

import (
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/luna/vm"
)

var log = commonlog.GetLogger("luna.compiler")

// ---------------------------------------------------------------------------
// Codegen: compile an annotated AST to register bytecode
// ---------------------------------------------------------------------------

// Generator compiles chunks to vm.Function trees.
// A Generator is not safe for concurrent use; use one per goroutine.
type Generator struct {
	cfg    Config
	frames []*funcFrame // innermost last
}

// NewGenerator creates a generator with the given configuration.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg.normalize()}
}

// Generate compiles a chunk. On error no artifact is returned; the error is
// a *LimitError, *InternalError or *UnsupportedError.
func (g *Generator) Generate(chunk *Chunk) (*vm.Function, error) {
	g.frames = g.frames[:0]
	unit := uuid.New().String()

	fn, err := g.compileChunk(chunk)
	if err != nil {
		log.Errorf("unit %s: %s", unit, err)
		g.frames = g.frames[:0]
		return nil, err
	}
	fn.UnitID = unit
	log.Debugf("unit %s: compiled module %q", unit, chunk.Module)
	return fn, nil
}

// Generate compiles a chunk with the default configuration.
func Generate(chunk *Chunk) (*vm.Function, error) {
	return NewGenerator(DefaultConfig()).Generate(chunk)
}

// emit appends one instruction to the current function.
func (g *Generator) emit(i vm.Instruction, line int) {
	g.function().AddInstruction(i, line)
}

// ---------------------------------------------------------------------------
// Functions and blocks
// ---------------------------------------------------------------------------

func (g *Generator) compileChunk(chunk *Chunk) (*vm.Function, error) {
	f, err := g.enterFunction(1)
	if err != nil {
		return nil, err
	}
	defer g.leaveFunction()
	f.fn.Module = chunk.Module
	f.fn.Vararg = true

	g.enterBlock()
	defer g.leaveBlock()
	if err := g.compileBody(chunk.Block); err != nil {
		return nil, err
	}
	return f.fn, nil
}

// compileBody compiles a function's outermost block and appends an
// implicit return when the block does not end with one.
func (g *Generator) compileBody(b *Block) error {
	if err := g.compileBlock(b); err != nil {
		return err
	}
	if b == nil || b.Return == nil {
		line := 0
		if b != nil {
			line = b.Pos().Line
		}
		g.emit(vm.AsBxCode(vm.OpRet, g.nextRegister(), 0), line)
	}
	return nil
}

func (g *Generator) compileBlock(b *Block) error {
	if b == nil {
		return nil
	}
	for _, stmt := range b.Statements {
		if err := g.compileStmt(stmt); err != nil {
			return err
		}
	}
	if b.Return != nil {
		return g.compileReturn(b.Return)
	}
	return nil
}

// compileFunctionBody compiles a function literal as a child of the current
// function, then loads the closure into w.
func (g *Generator) compileFunctionBody(body *FunctionBody, w Window) error {
	index, err := g.compileFunction(body)
	if err != nil {
		return err
	}

	line := body.Pos().Line
	r := w.Start()
	if w.IsOpen() || !w.Empty() {
		g.emit(vm.ABxCode(vm.OpClosure, r, index), line)
		r++
	}
	g.fillNil(r, w, line)
	return nil
}

// compileFunction compiles body in a fresh function frame and returns the
// new function's index among its parent's children.
func (g *Generator) compileFunction(body *FunctionBody) (int, error) {
	f, err := g.enterFunction(body.Pos().Line)
	if err != nil {
		return 0, err
	}
	defer g.leaveFunction()

	g.enterBlock()
	defer g.leaveBlock()
	if body.Params != nil {
		if err := g.compileParamList(body.Params); err != nil {
			return 0, err
		}
	}
	if err := g.compileBody(body.Block); err != nil {
		return 0, err
	}
	return f.index, nil
}

func (g *Generator) compileParamList(params *ParamList) error {
	fn := g.function()
	fn.FixedArgs = params.FixedArgs
	if params.Vararg {
		fn.Vararg = true
	}
	if params.Names != nil {
		return g.compileNameList(params.Names, false)
	}
	return nil
}

// compileNameList binds each name to a freshly allocated register,
// loading nil into it when init is set.
func (g *Generator) compileNameList(names *NameList, init bool) error {
	for _, n := range names.Names {
		r, err := g.allocRegister()
		if err != nil {
			return err
		}
		g.insertName(n.Name, r, n.Captured)
		if init {
			g.emit(vm.ACode(vm.OpLoadNil, r), n.Pos().Line)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (g *Generator) compileStmt(stmt Stmt) error {
	switch s := stmt.(type) {
	case *LocalNameListStatement:
		return g.compileLocalNames(s)
	case *AssignmentStatement:
		return g.compileAssignment(s)
	case *NormalFuncCall:
		return g.compileInto(s, Discard)
	case *DoStatement:
		g.enterBlock()
		defer g.leaveBlock()
		return g.compileBlock(s.Block)
	case *LocalFunctionStatement:
		return g.compileLocalFunction(s)
	case *FunctionStatement:
		return g.compileFunctionStatement(s)
	default:
		// Control flow and method calls are not lowered.
		return unsupported(s)
	}
}

func (g *Generator) compileReturn(ret *ReturnStatement) error {
	line := ret.Pos().Line
	if ret.Exprs == nil || len(ret.Exprs.Exprs) == 0 {
		g.emit(vm.AsBxCode(vm.OpRet, g.nextRegister(), 0), line)
		return nil
	}

	saved := g.checkpoint()
	defer g.restore(saved)

	start, err := g.allocRegister()
	if err != nil {
		return err
	}
	if err := g.compileExprList(ret.Exprs, Open(start)); err != nil {
		return err
	}

	count := len(ret.Exprs.Exprs)
	if multiValued(ret.Exprs.Exprs[count-1]) {
		count = vm.CountAny
	}
	g.emit(vm.AsBxCode(vm.OpRet, start, count), line)
	return nil
}

// compileLocalNames compiles `local namelist [= explist]`. The initializers
// are compiled before the names are bound, so `local a = a` reads the outer a.
func (g *Generator) compileLocalNames(s *LocalNameListStatement) error {
	if s.Exprs != nil {
		start := g.nextRegister()
		end := start + len(s.Names.Names)
		if err := g.setRegister(end); err != nil {
			return err
		}
		err := g.compileExprList(s.Exprs, Fixed(start, end))
		g.restore(start)
		if err != nil {
			return err
		}
	}
	return g.compileNameList(s.Names, s.Exprs == nil)
}

// compileAssignment evaluates every right-hand value into a reserved window
// before storing any of them, so `a, b = b, a` swaps.
func (g *Generator) compileAssignment(s *AssignmentStatement) error {
	saved := g.checkpoint()
	defer g.restore(saved)

	start := g.nextRegister()
	end := start + len(s.Vars.Vars)
	if err := g.setRegister(end); err != nil {
		return err
	}
	if err := g.compileExprList(s.Exprs, Fixed(start, end)); err != nil {
		return err
	}
	return g.compileVarList(s.Vars, Fixed(start, end))
}

// compileVarList stores the prepared values in w into the targets, one
// register per target.
func (g *Generator) compileVarList(vars *VarList, w Window) error {
	end, ok := w.End()
	if !ok || end-w.Start() != len(vars.Vars) {
		return &InternalError{Line: vars.Pos().Line, Reason: "assignment window does not match target count"}
	}
	for i, v := range vars.Vars {
		r := w.Start() + i
		switch target := v.(type) {
		case *Name:
			if err := g.compileWrite(target, r); err != nil {
				return err
			}
		default:
			return unsupported(v)
		}
	}
	return nil
}

// compileLocalFunction binds the name before compiling the body so the
// function can refer to itself.
func (g *Generator) compileLocalFunction(s *LocalFunctionStatement) error {
	r, err := g.allocRegister()
	if err != nil {
		return err
	}
	g.insertName(s.Name.Name, r, s.Name.Captured)
	return g.compileFunctionBody(s.Body, Slot(r))
}

func (g *Generator) compileFunctionStatement(s *FunctionStatement) error {
	if len(s.Name.Members) > 0 || s.Name.Method != "" {
		return unsupported(s.Name)
	}

	saved := g.checkpoint()
	defer g.restore(saved)

	r, err := g.allocRegister()
	if err != nil {
		return err
	}
	if err := g.compileFunctionBody(s.Body, Slot(r)); err != nil {
		return err
	}
	return g.compileWrite(s.Name.Root, r)
}

// ---------------------------------------------------------------------------
// Expression lists
// ---------------------------------------------------------------------------

// compileExprList fills w from a list of expressions. Every expression but
// the last gets one register while w has room, and the discard window after
// that; the last one gets whatever remains of w, which may be open.
func (g *Generator) compileExprList(list *ExpressionList, w Window) error {
	exprs := list.Exprs
	if len(exprs) == 0 {
		return &InternalError{Line: list.Pos().Line, Reason: "empty expression list"}
	}

	r := w.Start()
	last := len(exprs) - 1
	for _, e := range exprs[:last] {
		target := Discard
		if w.Has(r) {
			target = Slot(r)
			r++
		}
		if err := g.compileInto(e, target); err != nil {
			return err
		}
	}
	return g.compileInto(exprs[last], w.From(r))
}

// compileInto compiles e into w with the window reserved; any temporaries
// it allocates are released afterwards.
func (g *Generator) compileInto(e Expr, w Window) error {
	saved := g.checkpoint()
	defer g.restore(saved)

	if err := g.reserve(w); err != nil {
		return err
	}
	return g.compileExpr(e, w)
}

// multiValued reports whether e can produce a variable number of values.
func multiValued(e Expr) bool {
	switch e.(type) {
	case *NormalFuncCall, *MemberFuncCall, *VarArg:
		return true
	}
	return false
}

// fillNil loads nil into [r, end) of a bounded window.
func (g *Generator) fillNil(r int, w Window, line int) {
	end, ok := w.End()
	if !ok {
		return
	}
	for ; r < end; r++ {
		g.emit(vm.ACode(vm.OpLoadNil, r), line)
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (g *Generator) compileExpr(expr Expr, w Window) error {
	switch e := expr.(type) {
	case *NumberLiteral:
		return g.compileConst(vm.NumberConstant(e.Value), w, e.Pos().Line)
	case *StringLiteral:
		return g.compileConst(vm.StringConstant(e.Value), w, e.Pos().Line)
	case *BoolLiteral:
		if w.Empty() {
			return nil
		}
		b := 0
		if e.Value {
			b = 1
		}
		g.emit(vm.ABCode(vm.OpLoadBool, w.Start(), b), e.Pos().Line)
		g.fillNil(w.Start()+1, w, e.Pos().Line)
		return nil
	case *NilLiteral:
		if w.Empty() {
			return nil
		}
		g.emit(vm.ACode(vm.OpLoadNil, w.Start()), e.Pos().Line)
		g.fillNil(w.Start()+1, w, e.Pos().Line)
		return nil
	case *VarArg:
		if w.Empty() {
			return nil
		}
		// The interpreter fills the whole window, padding with nil itself.
		g.emit(vm.AsBxCode(vm.OpVarArg, w.Start(), w.Count()), e.Pos().Line)
		return nil
	case *Name:
		if e.Semantic == SemanticWrite {
			if end, ok := w.End(); !ok || end != w.Start()+1 {
				return &InternalError{Name: e.Name, Line: e.Pos().Line, Reason: "write target needs a single register"}
			}
			return g.compileWrite(e, w.Start())
		}
		return g.compileRead(e, w)
	case *FunctionBody:
		return g.compileFunctionBody(e, w)
	case *NormalFuncCall:
		return g.compileCall(e, w)
	default:
		return unsupported(e)
	}
}

func (g *Generator) compileConst(c vm.Constant, w Window, line int) error {
	if w.Empty() {
		return nil
	}
	idx, err := g.constant(c)
	if err != nil {
		return err
	}
	g.emit(vm.ABxCode(vm.OpLoadConst, w.Start(), idx), line)
	g.fillNil(w.Start()+1, w, line)
	return nil
}

// constant interns c in the current function's pool.
func (g *Generator) constant(c vm.Constant) (int, error) {
	fn := g.function()
	var idx int
	if c.Kind == vm.ConstNumber {
		idx = fn.AddConstNumber(c.Number)
	} else {
		idx = fn.AddConstString(c.String)
	}
	if idx > vm.MaxBx {
		return 0, g.limitError(LimitConstants, vm.MaxBx+1)
	}
	return idx, nil
}

// compileRead loads the value of an identifier into w.
func (g *Generator) compileRead(n *Name, w Window) error {
	if w.Empty() {
		return nil
	}
	line := n.Pos().Line
	dst := w.Start()

	switch n.Scoping {
	case ScopingGlobal:
		k, err := g.constant(vm.StringConstant(n.Name))
		if err != nil {
			return err
		}
		g.emit(vm.ABxCode(vm.OpGetGlobal, dst, k), line)
	case ScopingLocal:
		b, ok := g.current().lookupLocal(n.Name)
		if !ok {
			return &InternalError{Name: n.Name, Line: line, Reason: "unbound local"}
		}
		g.emit(vm.ABCode(vm.OpMove, dst, b.register), line)
	case ScopingUpvalue:
		idx, err := g.resolveUpvalue(n.Name, line)
		if err != nil {
			return err
		}
		g.emit(vm.ABCode(vm.OpGetUpvalue, dst, idx), line)
	default:
		return &InternalError{Name: n.Name, Line: line, Reason: "unknown scoping"}
	}

	g.fillNil(dst+1, w, line)
	return nil
}

// compileWrite stores register src into the variable n names.
func (g *Generator) compileWrite(n *Name, src int) error {
	line := n.Pos().Line

	switch n.Scoping {
	case ScopingGlobal:
		k, err := g.constant(vm.StringConstant(n.Name))
		if err != nil {
			return err
		}
		g.emit(vm.ABxCode(vm.OpSetGlobal, src, k), line)
	case ScopingLocal:
		b, ok := g.current().lookupLocal(n.Name)
		if !ok {
			return &InternalError{Name: n.Name, Line: line, Reason: "unbound local"}
		}
		g.emit(vm.ABCode(vm.OpMove, b.register, src), line)
	case ScopingUpvalue:
		idx, err := g.resolveUpvalue(n.Name, line)
		if err != nil {
			return err
		}
		g.emit(vm.ABCode(vm.OpSetUpvalue, src, idx), line)
	default:
		return &InternalError{Name: n.Name, Line: line, Reason: "unknown scoping"}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// compileCall evaluates the callee and arguments into temporaries and emits
// the call. Results start at the callee register; for a bounded window they
// are moved into place, for an open window the callee is placed at the
// window start so no moves are needed.
func (g *Generator) compileCall(call *NormalFuncCall, w Window) error {
	saved := g.checkpoint()
	defer g.restore(saved)

	if w.IsOpen() {
		g.restore(w.Start())
	}
	callee, err := g.allocRegister()
	if err != nil {
		return err
	}
	if err := g.compileInto(call.Callee, Slot(callee)); err != nil {
		return err
	}
	if err := g.compileCallArgs(call.Args); err != nil {
		return err
	}

	line := call.Pos().Line
	g.emit(vm.AsBxCode(vm.OpCall, callee, w.Count()), line)

	if end, ok := w.End(); ok {
		src := callee
		for dst := w.Start(); dst < end; dst++ {
			g.emit(vm.ABCode(vm.OpMove, dst, src), line)
			src++
		}
	}
	return nil
}

// compileCallArgs places the arguments in the registers following the callee.
func (g *Generator) compileCallArgs(args *FuncCallArgs) error {
	if args == nil {
		return nil
	}
	switch args.Kind {
	case ArgsExprList:
		if args.Exprs == nil || len(args.Exprs.Exprs) == 0 {
			return nil
		}
		start, err := g.allocRegister()
		if err != nil {
			return err
		}
		return g.compileExprList(args.Exprs, Open(start))
	default:
		if args.Arg == nil {
			return &InternalError{Line: args.Pos().Line, Reason: "call argument missing"}
		}
		start, err := g.allocRegister()
		if err != nil {
			return err
		}
		return g.compileInto(args.Arg, Slot(start))
	}
}
