package compiler

// ---------------------------------------------------------------------------
// AST: syntax tree consumed by the code generator
// ---------------------------------------------------------------------------
//
// Trees arrive already annotated by the scoping pass: every identifier
// reference carries its Scoping class and whether it is read or written,
// and every declared name records whether a nested function captures it.

// Position represents a source location.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Pos returns the position itself; embedding Position gives every node Pos().
func (p Position) Pos() Position { return p }

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	node() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Scoping is the resolved class of an identifier reference.
type Scoping uint8

const (
	ScopingGlobal Scoping = iota
	ScopingLocal
	ScopingUpvalue
)

// String returns the scoping name.
func (s Scoping) String() string {
	switch s {
	case ScopingGlobal:
		return "global"
	case ScopingLocal:
		return "local"
	case ScopingUpvalue:
		return "upvalue"
	default:
		return "unknown"
	}
}

// SemanticOp says whether an identifier reference reads or writes.
type SemanticOp uint8

const (
	SemanticRead SemanticOp = iota
	SemanticWrite
)

// ---------------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------------

// Chunk is one compiled module: an anonymous vararg function.
type Chunk struct {
	Position
	Module string
	Block  *Block
}

// Block is a sequence of statements with an optional trailing return.
type Block struct {
	Position
	Statements []Stmt
	Return     *ReturnStatement
}

func (n *Chunk) node() {}
func (n *Block) node() {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ReturnStatement is `return [explist]`.
type ReturnStatement struct {
	Position
	Exprs *ExpressionList // nil for a bare return
}

// BreakStatement is `break`.
type BreakStatement struct {
	Position
}

// DoStatement is `do block end`.
type DoStatement struct {
	Position
	Block *Block
}

// WhileStatement is `while cond do block end`.
type WhileStatement struct {
	Position
	Cond  Expr
	Block *Block
}

// RepeatStatement is `repeat block until cond`.
type RepeatStatement struct {
	Position
	Block *Block
	Cond  Expr
}

// IfStatement is `if cond then block {elseif} [else] end`.
type IfStatement struct {
	Position
	Cond    Expr
	Then    *Block
	ElseIfs []*ElseIfStatement
	Else    *ElseStatement
}

// ElseIfStatement is one `elseif cond then block` arm.
type ElseIfStatement struct {
	Position
	Cond  Expr
	Block *Block
}

// ElseStatement is the `else block` arm.
type ElseStatement struct {
	Position
	Block *Block
}

// NumericForStatement is `for name = start, limit [, step] do block end`.
type NumericForStatement struct {
	Position
	Var   DeclaredName
	Start Expr
	Limit Expr
	Step  Expr // may be nil
	Block *Block
}

// GenericForStatement is `for namelist in explist do block end`.
type GenericForStatement struct {
	Position
	Names *NameList
	Exprs *ExpressionList
	Block *Block
}

// FunctionStatement is `function funcname body`.
type FunctionStatement struct {
	Position
	Name *FunctionName
	Body *FunctionBody
}

// FunctionName is `name {'.' member} [':' method]`.
type FunctionName struct {
	Position
	Root    *Name
	Members []string
	Method  string
}

// LocalFunctionStatement is `local function name body`.
type LocalFunctionStatement struct {
	Position
	Name DeclaredName
	Body *FunctionBody
}

// LocalNameListStatement is `local namelist [= explist]`.
type LocalNameListStatement struct {
	Position
	Names *NameList
	Exprs *ExpressionList // nil when there is no initializer
}

// AssignmentStatement is `varlist = explist`.
type AssignmentStatement struct {
	Position
	Vars  *VarList
	Exprs *ExpressionList
}

func (n *ReturnStatement) node()        {}
func (n *BreakStatement) node()         {}
func (n *DoStatement) node()            {}
func (n *WhileStatement) node()         {}
func (n *RepeatStatement) node()        {}
func (n *IfStatement) node()            {}
func (n *ElseIfStatement) node()        {}
func (n *ElseStatement) node()          {}
func (n *NumericForStatement) node()    {}
func (n *GenericForStatement) node()    {}
func (n *FunctionStatement) node()      {}
func (n *FunctionName) node()           {}
func (n *LocalFunctionStatement) node() {}
func (n *LocalNameListStatement) node() {}
func (n *AssignmentStatement) node()    {}

func (n *BreakStatement) stmt()         {}
func (n *DoStatement) stmt()            {}
func (n *WhileStatement) stmt()         {}
func (n *RepeatStatement) stmt()        {}
func (n *IfStatement) stmt()            {}
func (n *NumericForStatement) stmt()    {}
func (n *GenericForStatement) stmt()    {}
func (n *FunctionStatement) stmt()      {}
func (n *LocalFunctionStatement) stmt() {}
func (n *LocalNameListStatement) stmt() {}
func (n *AssignmentStatement) stmt()    {}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

// DeclaredName is a name introduced by a declaration.
type DeclaredName struct {
	Position
	Name     string
	Captured bool // some nested function refers to it as an upvalue
}

// NameList is the list of names in a local declaration or parameter list.
type NameList struct {
	Position
	Names []DeclaredName
}

// ParamList is a function's formal parameters.
type ParamList struct {
	Position
	Names     *NameList // nil when there are no named parameters
	FixedArgs int
	Vararg    bool
}

// VarList is the target side of an assignment.
type VarList struct {
	Position
	Vars []Expr
}

// ExpressionList is a comma separated list of expressions.
type ExpressionList struct {
	Position
	Exprs []Expr
}

func (n *NameList) node()       {}
func (n *ParamList) node()      {}
func (n *VarList) node()        {}
func (n *ExpressionList) node() {}

// ---------------------------------------------------------------------------
// Terminal expressions
// ---------------------------------------------------------------------------

// NumberLiteral is a numeric constant.
type NumberLiteral struct {
	Position
	Value float64
}

// StringLiteral is a string constant.
type StringLiteral struct {
	Position
	Value string
}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	Position
	Value bool
}

// NilLiteral is `nil`.
type NilLiteral struct {
	Position
}

// VarArg is `...`.
type VarArg struct {
	Position
}

// Name is an identifier reference.
type Name struct {
	Position
	Name     string
	Scoping  Scoping
	Semantic SemanticOp
}

func (n *NumberLiteral) node() {}
func (n *StringLiteral) node() {}
func (n *BoolLiteral) node()   {}
func (n *NilLiteral) node()    {}
func (n *VarArg) node()        {}
func (n *Name) node()          {}

func (n *NumberLiteral) expr() {}
func (n *StringLiteral) expr() {}
func (n *BoolLiteral) expr()   {}
func (n *NilLiteral) expr()    {}
func (n *VarArg) expr()        {}
func (n *Name) expr()          {}

// ---------------------------------------------------------------------------
// Compound expressions
// ---------------------------------------------------------------------------

// BinaryExpression is `left op right`.
type BinaryExpression struct {
	Position
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpression is `op operand`.
type UnaryExpression struct {
	Position
	Op      string
	Operand Expr
}

// FunctionBody is a function literal: `function (params) block end`.
type FunctionBody struct {
	Position
	Params *ParamList // nil for `function () ... end`
	Block  *Block
}

// TableDefine is a table constructor.
type TableDefine struct {
	Position
	Fields []Node // *TableIndexField, *TableNameField or *TableArrayField
}

// TableIndexField is `[key] = value`.
type TableIndexField struct {
	Position
	Key   Expr
	Value Expr
}

// TableNameField is `name = value`.
type TableNameField struct {
	Position
	Name  string
	Value Expr
}

// TableArrayField is a positional `value`.
type TableArrayField struct {
	Position
	Value Expr
}

// IndexAccessor is `table[index]`.
type IndexAccessor struct {
	Position
	Table    Expr
	Index    Expr
	Semantic SemanticOp
}

// MemberAccessor is `table.member`.
type MemberAccessor struct {
	Position
	Table    Expr
	Member   string
	Semantic SemanticOp
}

// ArgsKind identifies the syntactic form of call arguments.
type ArgsKind uint8

const (
	ArgsExprList ArgsKind = iota // f(a, b)
	ArgsString                   // f "s"
	ArgsTable                    // f {…}
)

// FuncCallArgs holds the arguments of a call.
type FuncCallArgs struct {
	Position
	Kind  ArgsKind
	Exprs *ExpressionList // ArgsExprList; nil for f()
	Arg   Expr            // ArgsString / ArgsTable
}

// NormalFuncCall is `callee args`.
type NormalFuncCall struct {
	Position
	Callee Expr
	Args   *FuncCallArgs
}

// MemberFuncCall is `receiver:method args`.
type MemberFuncCall struct {
	Position
	Receiver Expr
	Method   string
	Args     *FuncCallArgs
}

func (n *BinaryExpression) node() {}
func (n *UnaryExpression) node()  {}
func (n *FunctionBody) node()     {}
func (n *TableDefine) node()      {}
func (n *TableIndexField) node()  {}
func (n *TableNameField) node()   {}
func (n *TableArrayField) node()  {}
func (n *IndexAccessor) node()    {}
func (n *MemberAccessor) node()   {}
func (n *FuncCallArgs) node()     {}
func (n *NormalFuncCall) node()   {}
func (n *MemberFuncCall) node()   {}

func (n *BinaryExpression) expr() {}
func (n *UnaryExpression) expr()  {}
func (n *FunctionBody) expr()     {}
func (n *TableDefine) expr()      {}
func (n *IndexAccessor) expr()    {}
func (n *MemberAccessor) expr()   {}
func (n *NormalFuncCall) expr()   {}
func (n *MemberFuncCall) expr()   {}

// Calls are also statements.
func (n *NormalFuncCall) stmt() {}
func (n *MemberFuncCall) stmt() {}
