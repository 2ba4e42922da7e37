package vm

import (
	"fmt"
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// ConstKind identifies the type of a constant pool entry.
type ConstKind uint8

const (
	ConstNumber ConstKind = 1
	ConstString ConstKind = 2
)

// Constant is one entry of a function's constant pool.
type Constant struct {
	Kind   ConstKind
	Number float64
	String string
}

// NumberConstant returns a numeric constant.
func NumberConstant(n float64) Constant {
	return Constant{Kind: ConstNumber, Number: n}
}

// StringConstant returns a string constant.
func StringConstant(s string) Constant {
	return Constant{Kind: ConstString, String: s}
}

// constKey identifies a constant by its bit pattern, so -0 and +0 intern
// as distinct entries.
type constKey struct {
	kind ConstKind
	bits uint64
	str  string
}

func (c Constant) key() constKey {
	return constKey{kind: c.Kind, bits: math.Float64bits(c.Number), str: c.String}
}

// Display renders the constant the way a disassembly listing shows it.
func (c Constant) Display() string {
	switch c.Kind {
	case ConstNumber:
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	case ConstString:
		return strconv.Quote(c.String)
	default:
		return fmt.Sprintf("<const kind %d>", c.Kind)
	}
}

// ---------------------------------------------------------------------------
// Function: persistent compiled-function artifact
// ---------------------------------------------------------------------------

// UpvalueDesc describes one captured variable of a function.
// When ParentLocal is set, Index is a register of the enclosing function;
// otherwise it is an index into the enclosing function's upvalue table.
type UpvalueDesc struct {
	Name        string
	ParentLocal bool
	Index       int
}

// LocalVar records the live range [Begin, End) of one local binding.
// It is debug information only.
type LocalVar struct {
	Name     string
	Register int
	Begin    int
	End      int
}

// Function is the compiled form of one function literal (or a main chunk).
// It outlives the code generator that produced it.
type Function struct {
	// Identity
	Module string // module / source name
	Line   int    // declaration line
	UnitID string // compile unit that produced the tree (root only)

	// Signature
	FixedArgs    int  // number of fixed parameters
	Vararg       bool // accepts "..."
	MaxRegisters int  // register file size needed by a frame

	// Compiled code
	Code      []Instruction // instruction stream
	Lines     []int         // source line per instruction
	Constants []Constant    // constant pool

	// Closures
	Children []*Function  // nested function literals, indexed by OpClosure
	Upvalues []UpvalueDesc // captured variables

	// Debugging support
	Locals []LocalVar

	parent     *Function
	constIndex map[constKey]int
}

// NewFunction creates an empty function artifact.
func NewFunction() *Function {
	return &Function{
		Code:       make([]Instruction, 0, 16),
		Lines:      make([]int, 0, 16),
		constIndex: make(map[constKey]int),
	}
}

// ---------------------------------------------------------------------------
// Instruction stream
// ---------------------------------------------------------------------------

// AddInstruction appends one instruction and returns its index.
func (f *Function) AddInstruction(i Instruction, line int) int {
	f.Code = append(f.Code, i)
	f.Lines = append(f.Lines, line)
	return len(f.Code) - 1
}

// InstructionCount returns the number of emitted instructions.
func (f *Function) InstructionCount() int {
	return len(f.Code)
}

// ---------------------------------------------------------------------------
// Constant pool
// ---------------------------------------------------------------------------

// AddConstNumber interns a numeric constant and returns its pool index.
func (f *Function) AddConstNumber(n float64) int {
	return f.addConstant(NumberConstant(n))
}

// AddConstString interns a string constant and returns its pool index.
func (f *Function) AddConstString(s string) int {
	return f.addConstant(StringConstant(s))
}

func (f *Function) addConstant(c Constant) int {
	if f.constIndex == nil {
		f.constIndex = make(map[constKey]int)
		for i, k := range f.Constants {
			f.constIndex[k.key()] = i
		}
	}
	if idx, ok := f.constIndex[c.key()]; ok {
		return idx
	}
	idx := len(f.Constants)
	f.Constants = append(f.Constants, c)
	f.constIndex[c.key()] = idx
	return idx
}

// GetConstant returns the constant at the given index.
// Panics if index is out of range.
func (f *Function) GetConstant(index int) Constant {
	if index < 0 || index >= len(f.Constants) {
		panic("Function.GetConstant: index out of range")
	}
	return f.Constants[index]
}

// ---------------------------------------------------------------------------
// Nested functions
// ---------------------------------------------------------------------------

// AddChild appends a nested function, links it to f, and returns its index.
func (f *Function) AddChild(child *Function) int {
	child.parent = f
	f.Children = append(f.Children, child)
	return len(f.Children) - 1
}

// GetChild returns the nested function at the given index.
// Panics if index is out of range.
func (f *Function) GetChild(index int) *Function {
	if index < 0 || index >= len(f.Children) {
		panic("Function.GetChild: index out of range")
	}
	return f.Children[index]
}

// Parent returns the enclosing function, or nil for a main chunk.
func (f *Function) Parent() *Function {
	return f.parent
}

// ---------------------------------------------------------------------------
// Upvalues and locals
// ---------------------------------------------------------------------------

// AddUpvalue appends an upvalue record and returns its index.
func (f *Function) AddUpvalue(name string, parentLocal bool, index int) int {
	f.Upvalues = append(f.Upvalues, UpvalueDesc{
		Name:        name,
		ParentLocal: parentLocal,
		Index:       index,
	})
	return len(f.Upvalues) - 1
}

// UpvalueIndex returns the index of the upvalue record for name, or -1.
func (f *Function) UpvalueIndex(name string) int {
	for i := range f.Upvalues {
		if f.Upvalues[i].Name == name {
			return i
		}
	}
	return -1
}

// AddLocalVar records a flushed local binding.
func (f *Function) AddLocalVar(name string, register, begin, end int) {
	f.Locals = append(f.Locals, LocalVar{
		Name:     name,
		Register: register,
		Begin:    begin,
		End:      end,
	})
}

// LocalName returns the name bound to register at instruction pc, or "".
func (f *Function) LocalName(register, pc int) string {
	for _, l := range f.Locals {
		if l.Register == register && l.Begin <= pc && pc < l.End {
			return l.Name
		}
	}
	return ""
}
