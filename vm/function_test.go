package vm

import (
	"math"
	"testing"
)

func TestNewFunction(t *testing.T) {
	f := NewFunction()
	if f.InstructionCount() != 0 {
		t.Errorf("InstructionCount = %d, want 0", f.InstructionCount())
	}
	if f.Parent() != nil {
		t.Error("new function should have no parent")
	}
}

func TestFunctionInstructions(t *testing.T) {
	f := NewFunction()
	if pc := f.AddInstruction(ACode(OpLoadNil, 0), 3); pc != 0 {
		t.Errorf("first pc = %d, want 0", pc)
	}
	if pc := f.AddInstruction(ABCode(OpMove, 1, 0), 4); pc != 1 {
		t.Errorf("second pc = %d, want 1", pc)
	}
	if f.InstructionCount() != 2 {
		t.Errorf("InstructionCount = %d, want 2", f.InstructionCount())
	}
	if f.Lines[1] != 4 {
		t.Errorf("Lines[1] = %d, want 4", f.Lines[1])
	}
}

func TestFunctionConstantsInterned(t *testing.T) {
	f := NewFunction()
	one := f.AddConstNumber(1)
	name := f.AddConstString("print")
	if one != 0 || name != 1 {
		t.Fatalf("indices = %d, %d, want 0, 1", one, name)
	}
	if again := f.AddConstNumber(1); again != one {
		t.Errorf("number not interned: got %d, want %d", again, one)
	}
	if again := f.AddConstString("print"); again != name {
		t.Errorf("string not interned: got %d, want %d", again, name)
	}
	// "1" the string and 1 the number are distinct entries
	if s := f.AddConstString("1"); s == one {
		t.Error("string \"1\" collapsed into number 1")
	}
	if got := f.GetConstant(0); got.Kind != ConstNumber || got.Number != 1 {
		t.Errorf("GetConstant(0) = %+v, want number 1", got)
	}
}

func TestFunctionConstantsSignedZero(t *testing.T) {
	f := NewFunction()
	pos := f.AddConstNumber(0)
	neg := f.AddConstNumber(math.Copysign(0, -1))
	if pos == neg {
		t.Fatalf("-0 interned as +0 (index %d)", pos)
	}
	if !math.Signbit(f.GetConstant(neg).Number) {
		t.Errorf("constant %d = %v, want -0", neg, f.GetConstant(neg).Number)
	}
	if again := f.AddConstNumber(math.Copysign(0, -1)); again != neg {
		t.Errorf("-0 not interned: got %d, want %d", again, neg)
	}

	// the rebuilt index keeps them apart too
	decoded := &Function{Constants: append([]Constant(nil), f.Constants...)}
	if idx := decoded.AddConstNumber(math.Copysign(0, -1)); idx != neg {
		t.Errorf("after rebuild: -0 = %d, want %d", idx, neg)
	}
}

func TestFunctionConstantsAfterDecode(t *testing.T) {
	// A Function built without NewFunction (e.g. decoded) rebuilds its index.
	f := &Function{Constants: []Constant{StringConstant("x")}}
	if idx := f.AddConstString("x"); idx != 0 {
		t.Errorf("AddConstString = %d, want 0", idx)
	}
	if idx := f.AddConstString("y"); idx != 1 {
		t.Errorf("AddConstString = %d, want 1", idx)
	}
}

func TestFunctionConstantPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for out of range constant")
		}
	}()
	NewFunction().GetConstant(0)
}

func TestFunctionChildren(t *testing.T) {
	parent := NewFunction()
	a, b := NewFunction(), NewFunction()
	if idx := parent.AddChild(a); idx != 0 {
		t.Errorf("first child index = %d, want 0", idx)
	}
	if idx := parent.AddChild(b); idx != 1 {
		t.Errorf("second child index = %d, want 1", idx)
	}
	if b.Parent() != parent {
		t.Error("child not linked to parent")
	}
	if parent.GetChild(1) != b {
		t.Error("GetChild(1) returned wrong function")
	}
}

func TestFunctionUpvalues(t *testing.T) {
	f := NewFunction()
	if idx := f.UpvalueIndex("x"); idx != -1 {
		t.Errorf("UpvalueIndex on empty table = %d, want -1", idx)
	}
	f.AddUpvalue("x", true, 3)
	f.AddUpvalue("y", false, 0)
	if idx := f.UpvalueIndex("y"); idx != 1 {
		t.Errorf("UpvalueIndex(y) = %d, want 1", idx)
	}
	if u := f.Upvalues[0]; !u.ParentLocal || u.Index != 3 {
		t.Errorf("Upvalues[0] = %+v, want parent-local register 3", u)
	}
}

func TestFunctionLocalName(t *testing.T) {
	f := NewFunction()
	f.AddLocalVar("a", 0, 0, 2)
	f.AddLocalVar("a", 1, 2, 5)
	tests := []struct {
		register, pc int
		want         string
	}{
		{0, 0, "a"},
		{0, 2, ""},
		{1, 2, "a"},
		{1, 5, ""},
		{2, 3, ""},
	}
	for _, tt := range tests {
		if got := f.LocalName(tt.register, tt.pc); got != tt.want {
			t.Errorf("LocalName(%d, %d) = %q, want %q", tt.register, tt.pc, got, tt.want)
		}
	}
}
