// Package ast defines Cobalu's abstract syntax tree node types.
//
// Spec section 9's "AST polymorphism" note asks for the virtual
// Codegen() hierarchy (Declaration <- Statement <- Expression) to be
// replaced by a tagged variant of node kinds plus a single dispatch
// function, since the inheritance chain exists only to give every node
// a uniform codegen entry point. Go has no inheritance to begin with,
// so this package simply declares one concrete struct per node kind
// and a thin Node marker interface; pkg/interp supplies the single
// dispatch function (a type switch) that the C++ original expressed as
// virtual codegen() overrides.
//
// Every node that names a variable or a function carries a *block.Block
// (its ParentBlock) — a non-owning handle to the lexical scope it was
// parsed in, exactly as spec section 3 describes. The block tree itself
// is owned by the parser session, never by the AST.
package ast

import "github.com/cobalu/cobalu/pkg/block"

// Node is implemented by every AST node. It carries no behavior beyond
// marking membership in the tree; pkg/interp type-switches over the
// concrete types below rather than calling a method on Node.
type Node interface {
	node()
}

// Double is a floating-point literal.
type Double struct {
	Value float64
}

func (*Double) node() {}

// String is a string literal.
type String struct {
	Value string
}

func (*String) node() {}

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

func (*Bool) node() {}

// Null is the null literal.
type Null struct{}

func (*Null) node() {}

// UnaryOp identifies which unary operator a Unary node applies.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota // -x
	UnaryNot                // !x
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "!"
	default:
		return "?"
	}
}

// Unary is a prefix unary operation.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (*Unary) node() {}

// BinaryOp identifies which binary operator an Operation node applies.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// Operation is a binary expression: `LHS Op RHS`.
type Operation struct {
	LHS, RHS Node
	Op       BinaryOp
}

func (*Operation) node() {}

// Print is the built-in `print(expr)` statement.
type Print struct {
	Expr Node
}

func (*Print) node() {}

// DeclKind distinguishes a fresh `var` declaration (which allocates a
// new stack slot) from a plain assignment (which overwrites an
// existing slot resolved through the scope chain).
type DeclKind int

const (
	// DeclAssign is `id = expr`: overwrite an existing binding.
	DeclAssign DeclKind = 0
	// DeclDeclare is `var id (= expr)?`: allocate a new binding.
	DeclDeclare DeclKind = 1
)

func (k DeclKind) String() string {
	if k == DeclDeclare {
		return "declare"
	}
	return "assign"
}

// VarDecl is either a `var` declaration or a plain assignment,
// distinguished by Kind. Expr is nil for a bare `var id;` with no
// initializer, in which case codegen pushes null.
type VarDecl struct {
	Name        string
	Kind        DeclKind
	Expr        Node
	ParentBlock *block.Block
}

func (*VarDecl) node() {}

// VarVal is a read of a variable's current value.
type VarVal struct {
	Name        string
	ParentBlock *block.Block
}

func (*VarVal) node() {}

// Inside is a recursive statement-list node: Exec is one statement and
// Chain holds the statements that precede it in the block body. The
// dispatcher executes Chain first so that, despite the right
// recursion, statements run in source order (spec section 4.2,
// "Statement-list shape"). A nil Chain terminates the list.
type Inside struct {
	Chain Node
	Exec  Node
}

func (*Inside) node() {}

// If is an `if (cond) then else?` statement. Else is nil when there is
// no else-branch.
type If struct {
	Cond, Then, Else Node
}

func (*If) node() {}

// While is a `while (cond) body` loop.
type While struct {
	Cond, Body Node
}

func (*While) node() {}

// For is a `for (init; cond; iter) body` loop.
type For struct {
	Init, Cond, Iter, Body Node
}

func (*For) node() {}

// Break is the `break;` statement. Legal only inside a Loop or
// FuncLoop block (enforced by the parser, not here).
type Break struct{}

func (*Break) node() {}

// Return is the `return expr?;` statement. Expr is nil for a bare
// `return;`. Legal only inside a Func or FuncLoop block.
type Return struct {
	Expr Node
}

func (*Return) node() {}

// Function is a user function definition. Params names the formal
// parameters in declaration order; Body is the parsed statement list.
// Env is the dedicated block created for the function's parameters and
// body — populated while the parser reads the parameter list and body,
// shared (not owned) by every CallFunc that invokes this function.
// ParentBlock is the block the `func` declaration itself appears in
// (always Global, per spec section 4.2's "func legal only at state
// GLOBAL"), used to bind Name into the enclosing function map.
type Function struct {
	Name        string
	Params      []string
	Body        Node
	Env         *block.Block
	ParentBlock *block.Block
}

func (*Function) node() {}

// CallFunc is a function invocation `name(args...)`. Spec section 9
// ("Closures") is explicit that free names inside the callee's body
// resolve through the *call site's* block chain: pkg/interp reparents
// the function's Env onto this CallFunc's ParentBlock for the duration
// of the call and restores the original parent afterwards. No
// environment is captured at definition time; Env only ever holds the
// parameters bound fresh on each call.
type CallFunc struct {
	Name        string
	Args        []Node
	ParentBlock *block.Block
}

func (*CallFunc) node() {}
