package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Opcode metadata tests
// ---------------------------------------------------------------------------

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		op    Opcode
		name  string
		shape Shape
	}{
		{OpLoadNil, "LOADNIL", ShapeA},
		{OpLoadBool, "LOADBOOL", ShapeAB},
		{OpLoadConst, "LOADK", ShapeABx},
		{OpMove, "MOVE", ShapeAB},
		{OpGetUpvalue, "GETUPVAL", ShapeAB},
		{OpSetUpvalue, "SETUPVAL", ShapeAB},
		{OpGetGlobal, "GETGLOBAL", ShapeABx},
		{OpSetGlobal, "SETGLOBAL", ShapeABx},
		{OpClosure, "CLOSURE", ShapeABx},
		{OpCall, "CALL", ShapeAsBx},
		{OpVarArg, "VARARG", ShapeAsBx},
		{OpRet, "RET", ShapeAsBx},
	}

	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name {
			t.Errorf("%s: Name = %q, want %q", tt.op, info.Name, tt.name)
		}
		if info.Shape != tt.shape {
			t.Errorf("%s: Shape = %s, want %s", tt.op, info.Shape, tt.shape)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	op := Opcode(0xFF)
	if !strings.HasPrefix(op.Name(), "UNKNOWN_") {
		t.Errorf("unknown opcode should have UNKNOWN_ prefix, got %q", op.Name())
	}
}

// ---------------------------------------------------------------------------
// Encoding tests
// ---------------------------------------------------------------------------

func TestACode(t *testing.T) {
	i := ACode(OpLoadNil, 7)
	if i.Opcode() != OpLoadNil {
		t.Errorf("Opcode = %s, want LOADNIL", i.Opcode())
	}
	if i.A() != 7 {
		t.Errorf("A = %d, want 7", i.A())
	}
}

func TestABCode(t *testing.T) {
	i := ABCode(OpMove, 250, 3)
	if i.Opcode() != OpMove || i.A() != 250 || i.B() != 3 {
		t.Errorf("got %s %d %d, want MOVE 250 3", i.Opcode(), i.A(), i.B())
	}
}

func TestABxCode(t *testing.T) {
	i := ABxCode(OpLoadConst, 1, MaxBx)
	if i.Opcode() != OpLoadConst || i.A() != 1 || i.Bx() != MaxBx {
		t.Errorf("got %s %d %d, want LOADK 1 %d", i.Opcode(), i.A(), i.Bx(), MaxBx)
	}
}

func TestAsBxCode(t *testing.T) {
	tests := []int{CountAny, 0, 1, 2, MaxSBx, MinSBx}
	for _, sbx := range tests {
		i := AsBxCode(OpCall, 4, sbx)
		if i.Opcode() != OpCall || i.A() != 4 {
			t.Errorf("sbx %d: got %s %d, want CALL 4", sbx, i.Opcode(), i.A())
		}
		if i.SBx() != sbx {
			t.Errorf("SBx = %d, want %d", i.SBx(), sbx)
		}
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		i    Instruction
		want string
	}{
		{ACode(OpLoadNil, 2), "LOADNIL    2"},
		{ABCode(OpMove, 1, 0), "MOVE       1 0"},
		{ABxCode(OpGetGlobal, 0, 3), "GETGLOBAL  0 3"},
		{AsBxCode(OpCall, 2, CountAny), "CALL       2 any"},
		{AsBxCode(OpRet, 0, 1), "RET        0 1"},
	}
	for _, tt := range tests {
		if got := tt.i.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
