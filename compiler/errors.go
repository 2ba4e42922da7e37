package compiler

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrLimitExceeded is matched by every *LimitError.
	ErrLimitExceeded = errors.New("compile limit exceeded")

	// ErrInternal is matched by every *InternalError.
	ErrInternal = errors.New("internal consistency fault")

	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("unsupported syntax")
)

// LimitKind names the per-function resource that ran out.
type LimitKind uint8

const (
	LimitRegisters LimitKind = iota
	LimitUpvalues
	LimitConstants
	LimitFunctions
)

// String returns the resource name as it appears in messages.
func (k LimitKind) String() string {
	switch k {
	case LimitRegisters:
		return "local variables"
	case LimitUpvalues:
		return "upvalues"
	case LimitConstants:
		return "constants"
	case LimitFunctions:
		return "nested functions"
	default:
		return "resources"
	}
}

// LimitError reports that a function exceeded a fixed per-function ceiling.
// It aborts the whole compile.
type LimitError struct {
	Kind   LimitKind
	Module string // module of the offending function
	Line   int    // declaration line of the offending function
	Limit  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s:%d: too many %s in function (limit %d)", e.Module, e.Line, e.Kind, e.Limit)
}

// Is makes errors.Is(err, ErrLimitExceeded) succeed.
func (e *LimitError) Is(target error) bool { return target == ErrLimitExceeded }

// InternalError reports a tree the scoping pass should never have produced,
// such as a name classified Local or Upvalue that no enclosing scope binds.
type InternalError struct {
	Name   string
	Line   int
	Reason string
}

func (e *InternalError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("internal error at line %d: %s '%s'", e.Line, e.Reason, e.Name)
	}
	return fmt.Sprintf("internal error at line %d: %s", e.Line, e.Reason)
}

// Is makes errors.Is(err, ErrInternal) succeed.
func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// UnsupportedError reports a node kind this generator does not lower.
type UnsupportedError struct {
	Kind string
	Line int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("line %d: code generation for %s is not supported", e.Line, e.Kind)
}

// Is makes errors.Is(err, ErrUnsupported) succeed.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

func unsupported(n Node) error {
	return &UnsupportedError{Kind: nodeKind(n), Line: n.Pos().Line}
}

// nodeKind returns a readable name for a node type.
func nodeKind(n Node) string {
	switch n.(type) {
	case *BreakStatement:
		return "break statement"
	case *WhileStatement:
		return "while statement"
	case *RepeatStatement:
		return "repeat statement"
	case *IfStatement:
		return "if statement"
	case *NumericForStatement:
		return "numeric for statement"
	case *GenericForStatement:
		return "generic for statement"
	case *FunctionName:
		return "qualified function name"
	case *BinaryExpression:
		return "binary expression"
	case *UnaryExpression:
		return "unary expression"
	case *TableDefine:
		return "table constructor"
	case *IndexAccessor:
		return "index access"
	case *MemberAccessor:
		return "member access"
	case *MemberFuncCall:
		return "method call"
	default:
		return fmt.Sprintf("%T", n)
	}
}
