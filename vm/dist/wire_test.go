package dist

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/luna/vm"
)

// sampleTree builds main + one child capturing main's register 0.
func sampleTree() *vm.Function {
	main := vm.NewFunction()
	main.Module = "wire.lua"
	main.Line = 1
	main.Vararg = true
	main.MaxRegisters = 2
	main.UnitID = "unit-1"
	k := main.AddConstNumber(42)
	main.AddInstruction(vm.ABxCode(vm.OpLoadConst, 0, k), 1)

	child := vm.NewFunction()
	child.Module = "wire.lua"
	child.Line = 2
	child.FixedArgs = 1
	child.MaxRegisters = 2
	child.AddUpvalue("x", true, 0)
	child.AddInstruction(vm.ABCode(vm.OpGetUpvalue, 1, 0), 3)
	child.AddInstruction(vm.AsBxCode(vm.OpRet, 1, 1), 3)
	child.AddLocalVar("p", 0, 0, 2)
	idx := main.AddChild(child)

	main.AddInstruction(vm.ABxCode(vm.OpClosure, 1, idx), 2)
	main.AddInstruction(vm.AsBxCode(vm.OpRet, 2, 0), 4)
	main.AddLocalVar("x", 0, 1, 3)
	return main
}

func TestFunction_CBORRoundTrip(t *testing.T) {
	orig := sampleTree()

	data, err := MarshalFunction(orig)
	if err != nil {
		t.Fatalf("MarshalFunction: %v", err)
	}
	got, err := UnmarshalFunction(data)
	if err != nil {
		t.Fatalf("UnmarshalFunction: %v", err)
	}

	if got.Module != "wire.lua" || got.Line != 1 || !got.Vararg || got.MaxRegisters != 2 {
		t.Errorf("header: got %+v", got)
	}
	if got.UnitID != "" {
		t.Errorf("UnitID %q leaked into the image", got.UnitID)
	}
	if vm.Disassemble(got) != vm.Disassemble(withoutUnit(orig)) {
		t.Errorf("listing differs:\n%s\nwant:\n%s", vm.Disassemble(got), vm.Disassemble(orig))
	}

	child := got.GetChild(0)
	if child.Parent() != got {
		t.Error("parent link not restored")
	}
	if child.FixedArgs != 1 || child.Upvalues[0].Name != "x" || !child.Upvalues[0].ParentLocal {
		t.Errorf("child: got %+v", child)
	}
}

func TestFunction_DecodedConstantsStillIntern(t *testing.T) {
	data, err := MarshalFunction(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalFunction(data)
	if err != nil {
		t.Fatal(err)
	}
	if idx := got.AddConstNumber(42); idx != 0 {
		t.Errorf("AddConstNumber(42) = %d, want existing index 0", idx)
	}
}

func TestFunction_NegativeZeroSurvives(t *testing.T) {
	f := vm.NewFunction()
	f.AddConstNumber(0)
	neg := f.AddConstNumber(math.Copysign(0, -1))

	data, err := MarshalFunction(f)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalFunction(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Constants) != 2 {
		t.Fatalf("constants = %v, want 2 entries", got.Constants)
	}
	if c := got.GetConstant(neg); c.Kind != vm.ConstNumber || !math.Signbit(c.Number) {
		t.Errorf("constant %d = %+v, want -0", neg, c)
	}
	if math.Signbit(got.GetConstant(0).Number) {
		t.Error("constant 0 decoded as -0")
	}
}

func TestHashFunction_Deterministic(t *testing.T) {
	h1, err := HashFunction(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	other := sampleTree()
	other.UnitID = "unit-2"
	h2, err := HashFunction(other)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("hash depends on the compile unit")
	}

	other.AddConstString("extra")
	h3, _ := HashFunction(other)
	if h3 == h1 {
		t.Error("hash ignores constant pool changes")
	}
}

func TestChunk_CBORRoundTrip(t *testing.T) {
	c, err := NewChunk(sampleTree())
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	if c.Module != "wire.lua" || c.UnitID != "unit-1" {
		t.Errorf("chunk header: %q %q", c.Module, c.UnitID)
	}

	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	got, err := UnmarshalChunk(data)
	if err != nil {
		t.Fatalf("UnmarshalChunk: %v", err)
	}
	if got.Hash != c.Hash {
		t.Error("Hash mismatch")
	}

	fn, err := got.Function()
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if fn.UnitID != "unit-1" || len(fn.Children) != 1 {
		t.Errorf("decoded: unit %q children %d", fn.UnitID, len(fn.Children))
	}
}

func TestChunk_HashMismatch(t *testing.T) {
	c, err := NewChunk(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	c.Hash[0] ^= 0xFF

	if _, err := c.Function(); err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Errorf("err = %v, want hash mismatch", err)
	}
}

func TestUnmarshalFunction_Invalid(t *testing.T) {
	_, err := UnmarshalFunction([]byte{0xFF, 0x00})
	if err == nil || !strings.HasPrefix(err.Error(), "dist:") {
		t.Errorf("err = %v, want dist: error", err)
	}
}

func TestFunctionImage_LinesMismatch(t *testing.T) {
	img := ImageOf(sampleTree())
	img.Lines = img.Lines[:1]
	if _, err := img.Function(); err == nil {
		t.Error("expected error for short line table")
	}
}

func withoutUnit(f *vm.Function) *vm.Function {
	f.UnitID = ""
	return f
}
