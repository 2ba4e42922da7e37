package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents the operation of a single instruction.
type Opcode byte

// Loads
const (
	OpLoadNil   Opcode = 0x01 // R(A) := nil
	OpLoadBool  Opcode = 0x02 // R(A) := B != 0
	OpLoadConst Opcode = 0x03 // R(A) := K(Bx)
	OpMove      Opcode = 0x04 // R(A) := R(B)
)

// Variable Operations
const (
	OpGetUpvalue Opcode = 0x10 // R(A) := U(B)
	OpSetUpvalue Opcode = 0x11 // U(B) := R(A)
	OpGetGlobal  Opcode = 0x12 // R(A) := G[K(Bx)]
	OpSetGlobal  Opcode = 0x13 // G[K(Bx)] := R(A)
)

// Functions
const (
	OpClosure Opcode = 0x20 // R(A) := closure(child(Bx))
	OpCall    Opcode = 0x21 // call R(A) with args R(A+1)..top, sBx results
	OpVarArg  Opcode = 0x22 // R(A).. := vararg, sBx values
	OpRet     Opcode = 0x23 // return R(A).., sBx values
)

// ---------------------------------------------------------------------------
// Instruction shapes
// ---------------------------------------------------------------------------

// Shape is the operand layout of an instruction.
type Shape uint8

const (
	ShapeA    Shape = iota // one register field
	ShapeAB                // two register fields
	ShapeABx               // register + unsigned wide field
	ShapeAsBx              // register + signed wide field
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeA:
		return "A"
	case ShapeAB:
		return "AB"
	case ShapeABx:
		return "ABx"
	case ShapeAsBx:
		return "AsBx"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// Operand limits.
const (
	MaxA   = 0xFF
	MaxB   = 0xFF
	MaxBx  = 0xFFFF
	MaxSBx = 0x7FFF
	MinSBx = -0x8000
)

// CountAny is the encoded result count meaning "as many as produced".
// It only appears in the sBx field of OpCall, OpVarArg and OpRet.
const CountAny = -1

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name  string // human-readable name
	Shape Shape  // operand layout
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpLoadNil:   {"LOADNIL", ShapeA},
	OpLoadBool:  {"LOADBOOL", ShapeAB},
	OpLoadConst: {"LOADK", ShapeABx},
	OpMove:      {"MOVE", ShapeAB},

	OpGetUpvalue: {"GETUPVAL", ShapeAB},
	OpSetUpvalue: {"SETUPVAL", ShapeAB},
	OpGetGlobal:  {"GETGLOBAL", ShapeABx},
	OpSetGlobal:  {"SETGLOBAL", ShapeABx},

	OpClosure: {"CLOSURE", ShapeABx},
	OpCall:    {"CALL", ShapeAsBx},
	OpVarArg:  {"VARARG", ShapeAsBx},
	OpRet:     {"RET", ShapeAsBx},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op)), Shape: ShapeA}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// Shape returns the operand layout for an opcode.
func (op Opcode) Shape() Shape {
	return op.Info().Shape
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Instruction encoding
// ---------------------------------------------------------------------------

// Instruction is one fixed-width 32-bit instruction.
//
//	bits  0..7   opcode
//	bits  8..15  A
//	bits 16..23  B         (ShapeAB)
//	bits 16..31  Bx / sBx  (ShapeABx / ShapeAsBx)
type Instruction uint32

// ACode encodes a one-register instruction.
func ACode(op Opcode, a int) Instruction {
	return Instruction(op) | Instruction(uint8(a))<<8
}

// ABCode encodes a two-register instruction.
func ABCode(op Opcode, a, b int) Instruction {
	return ACode(op, a) | Instruction(uint8(b))<<16
}

// ABxCode encodes a register plus unsigned wide operand.
func ABxCode(op Opcode, a, bx int) Instruction {
	return ACode(op, a) | Instruction(uint16(bx))<<16
}

// AsBxCode encodes a register plus signed wide operand.
func AsBxCode(op Opcode, a, sbx int) Instruction {
	return ACode(op, a) | Instruction(uint16(int16(sbx)))<<16
}

// Opcode returns the operation of the instruction.
func (i Instruction) Opcode() Opcode { return Opcode(i & 0xFF) }

// A returns the first register operand.
func (i Instruction) A() int { return int((i >> 8) & 0xFF) }

// B returns the second register operand.
func (i Instruction) B() int { return int((i >> 16) & 0xFF) }

// Bx returns the unsigned wide operand.
func (i Instruction) Bx() int { return int((i >> 16) & 0xFFFF) }

// SBx returns the signed wide operand.
func (i Instruction) SBx() int { return int(int16(uint16(i >> 16))) }

// String renders the instruction according to its opcode's shape.
func (i Instruction) String() string {
	op := i.Opcode()
	switch op.Shape() {
	case ShapeA:
		return fmt.Sprintf("%-10s %d", op.Name(), i.A())
	case ShapeAB:
		return fmt.Sprintf("%-10s %d %d", op.Name(), i.A(), i.B())
	case ShapeABx:
		return fmt.Sprintf("%-10s %d %d", op.Name(), i.A(), i.Bx())
	default:
		if i.SBx() == CountAny {
			return fmt.Sprintf("%-10s %d any", op.Name(), i.A())
		}
		return fmt.Sprintf("%-10s %d %d", op.Name(), i.A(), i.SBx())
	}
}
