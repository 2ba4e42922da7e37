package compiler

import (
	"testing"

	"github.com/chazu/luna/vm"
)

// Helpers for building annotated trees by hand. Every node sits on line 1
// unless a test sets its position.

func num(v float64) *NumberLiteral { return &NumberLiteral{Position: line1, Value: v} }
func str(s string) *StringLiteral  { return &StringLiteral{Position: line1, Value: s} }
func boolean(b bool) *BoolLiteral  { return &BoolLiteral{Position: line1, Value: b} }
func vararg() *VarArg              { return &VarArg{Position: line1} }

var line1 = Position{Line: 1, Column: 1}

func global(name string) *Name { return &Name{Position: line1, Name: name, Scoping: ScopingGlobal} }
func local(name string) *Name  { return &Name{Position: line1, Name: name, Scoping: ScopingLocal} }
func upval(name string) *Name  { return &Name{Position: line1, Name: name, Scoping: ScopingUpvalue} }

// target marks a reference as an assignment target.
func target(n *Name) *Name {
	n.Semantic = SemanticWrite
	return n
}

func exprs(es ...Expr) *ExpressionList {
	return &ExpressionList{Position: line1, Exprs: es}
}

func names(ns ...string) *NameList {
	list := &NameList{Position: line1}
	for _, n := range ns {
		list.Names = append(list.Names, DeclaredName{Position: line1, Name: n})
	}
	return list
}

func localStmt(ns []string, es ...Expr) *LocalNameListStatement {
	s := &LocalNameListStatement{Position: line1, Names: names(ns...)}
	if len(es) > 0 {
		s.Exprs = exprs(es...)
	}
	return s
}

func assign(vars []Expr, es ...Expr) *AssignmentStatement {
	return &AssignmentStatement{
		Position: line1,
		Vars:     &VarList{Position: line1, Vars: vars},
		Exprs:    exprs(es...),
	}
}

func call(callee Expr, args ...Expr) *NormalFuncCall {
	a := &FuncCallArgs{Position: line1, Kind: ArgsExprList}
	if len(args) > 0 {
		a.Exprs = exprs(args...)
	}
	return &NormalFuncCall{Position: line1, Callee: callee, Args: a}
}

func ret(es ...Expr) *ReturnStatement {
	r := &ReturnStatement{Position: line1}
	if len(es) > 0 {
		r.Exprs = exprs(es...)
	}
	return r
}

func block(stmts ...Stmt) *Block {
	return &Block{Position: line1, Statements: stmts}
}

// returning attaches a return statement to a block.
func returning(b *Block, r *ReturnStatement) *Block {
	b.Return = r
	return b
}

func body(params []string, va bool, b *Block) *FunctionBody {
	fb := &FunctionBody{Position: line1, Block: b}
	if len(params) > 0 || va {
		fb.Params = &ParamList{Position: line1, FixedArgs: len(params), Vararg: va}
		if len(params) > 0 {
			fb.Params.Names = names(params...)
		}
	}
	return fb
}

func localFunc(name string, fb *FunctionBody) *LocalFunctionStatement {
	return &LocalFunctionStatement{
		Position: line1,
		Name:     DeclaredName{Position: line1, Name: name, Captured: true},
		Body:     fb,
	}
}

func chunk(b *Block) *Chunk {
	return &Chunk{Position: line1, Module: "test.lua", Block: b}
}

func mustGenerate(t *testing.T, c *Chunk) *vm.Function {
	t.Helper()
	fn, err := Generate(c)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	return fn
}

func assertCode(t *testing.T, fn *vm.Function, want ...vm.Instruction) {
	t.Helper()
	if len(fn.Code) != len(want) {
		t.Fatalf("code length = %d, want %d\ngot:\n%s\nwant:\n%s",
			len(fn.Code), len(want), listing(fn.Code), listing(want))
	}
	for i := range want {
		if fn.Code[i] != want[i] {
			t.Fatalf("code[%d] = %v, want %v\ngot:\n%s\nwant:\n%s",
				i, fn.Code[i], want[i], listing(fn.Code), listing(want))
		}
	}
}

func listing(code []vm.Instruction) string {
	var s string
	for _, i := range code {
		s += "  " + i.String() + "\n"
	}
	return s
}

// Instruction shorthands.

func loadk(a, k int) vm.Instruction     { return vm.ABxCode(vm.OpLoadConst, a, k) }
func loadnil(a int) vm.Instruction      { return vm.ACode(vm.OpLoadNil, a) }
func loadbool(a, b int) vm.Instruction  { return vm.ABCode(vm.OpLoadBool, a, b) }
func move(a, b int) vm.Instruction      { return vm.ABCode(vm.OpMove, a, b) }
func getglobal(a, k int) vm.Instruction { return vm.ABxCode(vm.OpGetGlobal, a, k) }
func setglobal(a, k int) vm.Instruction { return vm.ABxCode(vm.OpSetGlobal, a, k) }
func getupval(a, u int) vm.Instruction  { return vm.ABCode(vm.OpGetUpvalue, a, u) }
func setupval(a, u int) vm.Instruction  { return vm.ABCode(vm.OpSetUpvalue, a, u) }
func closure(a, f int) vm.Instruction   { return vm.ABxCode(vm.OpClosure, a, f) }
func callN(a, n int) vm.Instruction     { return vm.AsBxCode(vm.OpCall, a, n) }
func varargN(a, n int) vm.Instruction   { return vm.AsBxCode(vm.OpVarArg, a, n) }
func retN(a, n int) vm.Instruction      { return vm.AsBxCode(vm.OpRet, a, n) }
