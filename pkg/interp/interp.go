// Package interp is Cobalu's tree-walking executor: the single
// dispatch function spec section 9 asks for in place of a virtual
// codegen() hierarchy.
//
// Interp type-switches over pkg/ast nodes and drives a pkg/calculus
// value stack exactly the way the teacher's pkg/vm.VM drives its own
// stack from a bytecode instruction stream — one dispatch point, pop
// operands, push results — except here the "instructions" are AST
// nodes instead of a flattened bytecode array, since the core spec's
// AST backend is a tree walker, not a compiler.
//
// Control flow (break/return) is propagated as an explicit signal
// value returned up the call chain rather than a Go panic/recover,
// matching pkg/errlog's "record, don't abort" philosophy: a signal is
// not an error, it is expected control flow that every statement-list
// dispatch point must check for and relay.
package interp

import (
	"io"

	"github.com/cobalu/cobalu/pkg/ast"
	"github.com/cobalu/cobalu/pkg/calculus"
	"github.com/cobalu/cobalu/pkg/errlog"
)

// signalKind distinguishes ordinary fall-through completion of a
// statement from an in-flight break or return that must unwind to its
// handler (the nearest loop, or the call frame, respectively).
type signalKind int

const (
	signalNone signalKind = iota
	signalBreak
	signalReturn
)

type signal struct {
	kind   signalKind
	ret    calculus.Value
	hasRet bool
}

// Interp ties the AST, the block-tree scope resolution, the value
// stack, and the error log together into one executable session.
type Interp struct {
	calc *calculus.Calculus
	log  *errlog.Log
	out  io.Writer
}

// New creates an Interp that writes `print` output to out and records
// runtime errors to log.
func New(log *errlog.Log, out io.Writer) *Interp {
	return &Interp{calc: calculus.New(log), log: log, out: out}
}

// Run executes root (the program's top-level Inside chain, or any
// node) to completion. A stray break/return reaching the top level is
// simply discarded — the parser already rejects break/return outside
// a loop/func, so this can only happen after a parse error already
// recorded a context violation.
func (ip *Interp) Run(root ast.Node) {
	ip.exec(root)
}

// exec is the single dispatch function. Every node leaves the calc
// stack exactly as its kind promises: literals/Unary/Operation/VarVal/
// CallFunc push exactly one value; a declaring VarDecl leaves its value
// on the stack as the new variable's slot; an assigning VarDecl and
// Print/If/While/For/Break/Return/Function/Inside push nothing of their
// own (though the expressions they evaluate internally push-then-pop
// through calc).
func (ip *Interp) exec(node ast.Node) signal {
	switch n := node.(type) {
	case nil:
		return signal{}

	case *ast.Double:
		ip.calc.Push(calculus.Double(n.Value))
		return signal{}
	case *ast.String:
		ip.calc.Push(calculus.String(n.Value))
		return signal{}
	case *ast.Bool:
		ip.calc.Push(calculus.Bool(n.Value))
		return signal{}
	case *ast.Null:
		ip.calc.Push(calculus.Null())
		return signal{}

	case *ast.Unary:
		if sig := ip.exec(n.Operand); sig.kind != signalNone {
			return sig
		}
		switch n.Op {
		case ast.UnaryNeg:
			ip.calc.Neg()
		case ast.UnaryNot:
			ip.calc.Not()
		}
		return signal{}

	case *ast.Operation:
		if sig := ip.exec(n.LHS); sig.kind != signalNone {
			return sig
		}
		if sig := ip.exec(n.RHS); sig.kind != signalNone {
			return sig
		}
		ip.applyBinary(n.Op)
		return signal{}

	case *ast.Print:
		if sig := ip.exec(n.Expr); sig.kind != signalNone {
			return sig
		}
		if s, ok := ip.calc.PrintTop(); ok {
			io.WriteString(ip.out, s)
			io.WriteString(ip.out, "\n")
		}
		return signal{}

	case *ast.VarDecl:
		return ip.execVarDecl(n)

	case *ast.VarVal:
		return ip.execVarVal(n)

	case *ast.Inside:
		if sig := ip.exec(n.Chain); sig.kind != signalNone {
			return sig
		}
		return ip.exec(n.Exec)

	case *ast.If:
		if sig := ip.exec(n.Cond); sig.kind != signalNone {
			return sig
		}
		cond, ok := ip.calc.Pop()
		if !ok {
			return signal{}
		}
		if calculus.IsTruthy(cond) {
			return ip.exec(n.Then)
		}
		return ip.exec(n.Else)

	case *ast.While:
		return ip.execWhile(n)

	case *ast.For:
		return ip.execFor(n)

	case *ast.Break:
		return signal{kind: signalBreak}

	case *ast.Return:
		if n.Expr == nil {
			return signal{kind: signalReturn, ret: calculus.Null(), hasRet: true}
		}
		if sig := ip.exec(n.Expr); sig.kind != signalNone {
			return sig
		}
		v, ok := ip.calc.Pop()
		if !ok {
			return signal{kind: signalReturn, ret: calculus.Null(), hasRet: true}
		}
		return signal{kind: signalReturn, ret: v, hasRet: true}

	case *ast.Function:
		// Binding happened at parse time (parser.parseFunction already
		// calls parent.FuncSetOffset); nothing to do at execution time.
		return signal{}

	case *ast.CallFunc:
		return ip.execCallFunc(n)

	default:
		return signal{}
	}
}

func (ip *Interp) applyBinary(op ast.BinaryOp) {
	switch op {
	case ast.OpAdd:
		ip.calc.Add()
	case ast.OpSub:
		ip.calc.Sub()
	case ast.OpMul:
		ip.calc.Mul()
	case ast.OpDiv:
		ip.calc.Div()
	case ast.OpEq:
		ip.calc.Eq()
	case ast.OpNe:
		ip.calc.Ne()
	case ast.OpLt:
		ip.calc.Lt()
	case ast.OpGt:
		ip.calc.Gt()
	case ast.OpLe:
		ip.calc.Le()
	case ast.OpGe:
		ip.calc.Ge()
	case ast.OpAnd:
		// Both operands already evaluated above — no short-circuit,
		// matching spec section 9's documented choice for &&/||.
		ip.calc.And()
	case ast.OpOr:
		ip.calc.Or()
	}
}

func (ip *Interp) execVarDecl(n *ast.VarDecl) signal {
	if n.Expr != nil {
		if sig := ip.exec(n.Expr); sig.kind != signalNone {
			return sig
		}
	} else {
		ip.calc.Push(calculus.Null())
	}
	v, ok := ip.calc.Pop()
	if !ok {
		return signal{}
	}

	if n.Kind == ast.DeclDeclare {
		off := n.ParentBlock.SetOffset(n.Name, ip.calc.Len())
		ip.calc.Push(v)
		_ = off
		return signal{}
	}

	off := n.ParentBlock.GetOffset(n.Name)
	if off < 0 {
		ip.log.Push(n.Name, "undefined variable", errlog.SeverityRuntime)
		return signal{}
	}
	ip.calc.Set(off, v)
	return signal{}
}

func (ip *Interp) execVarVal(n *ast.VarVal) signal {
	off := n.ParentBlock.GetOffset(n.Name)
	if off < 0 {
		ip.log.Push(n.Name, "undefined variable", errlog.SeverityRuntime)
		return signal{}
	}
	v, ok := ip.calc.At(off)
	if !ok {
		ip.log.Push(n.Name, "undefined variable", errlog.SeverityRuntime)
		return signal{}
	}
	ip.calc.Push(v)
	return signal{}
}

func (ip *Interp) execWhile(n *ast.While) signal {
	for {
		if sig := ip.exec(n.Cond); sig.kind != signalNone {
			return sig
		}
		cond, ok := ip.calc.Pop()
		if !ok || !calculus.IsTruthy(cond) {
			return signal{}
		}
		sig := ip.exec(n.Body)
		if sig.kind == signalBreak {
			return signal{}
		}
		if sig.kind == signalReturn {
			return sig
		}
	}
}

func (ip *Interp) execFor(n *ast.For) signal {
	if sig := ip.exec(n.Init); sig.kind != signalNone {
		return sig
	}
	for {
		if n.Cond != nil {
			if sig := ip.exec(n.Cond); sig.kind != signalNone {
				return sig
			}
			cond, ok := ip.calc.Pop()
			if !ok || !calculus.IsTruthy(cond) {
				return signal{}
			}
		}
		sig := ip.exec(n.Body)
		if sig.kind == signalBreak {
			return signal{}
		}
		if sig.kind == signalReturn {
			return sig
		}
		if sig := ip.exec(n.Iter); sig.kind != signalNone {
			return sig
		}
	}
}

// execCallFunc implements spec section 4.4's CallFunc contract:
// evaluate each argument in order, bind them into the function's env
// block at fresh offsets, execute the body, tear down the call frame
// and push the returned value.
//
// Per spec section 9 ("Closures"), free names inside the body resolve
// through the *call site's* block chain, not the function's own
// definition site: Env is reparented onto the call site's block for
// the duration of the call, then restored — Env never actually closes
// over anything from the call site, since it is the same shared block
// object reused by every call and only ever holds the parameters bound
// fresh each time.
func (ip *Interp) execCallFunc(n *ast.CallFunc) signal {
	def, ok := n.ParentBlock.FuncGetOffset(n.Name)
	if !ok {
		ip.log.Push(n.Name, "undefined function", errlog.SeverityRuntime)
		ip.calc.Push(calculus.Null())
		return signal{}
	}
	fn, ok := def.(*ast.Function)
	if !ok {
		ip.log.Push(n.Name, "undefined function", errlog.SeverityRuntime)
		ip.calc.Push(calculus.Null())
		return signal{}
	}
	if len(n.Args) != len(fn.Params) {
		ip.log.Push(n.Name, "argument count mismatch", errlog.SeverityRuntime)
		ip.calc.Push(calculus.Null())
		return signal{}
	}

	base := ip.calc.Len()
	for _, arg := range n.Args {
		if sig := ip.exec(arg); sig.kind != signalNone {
			return sig
		}
	}
	for i, param := range fn.Params {
		fn.Env.SetOffset(param, base+i)
	}

	callerParent := fn.Env.Parent()
	fn.Env.SetParent(n.ParentBlock)
	sig := ip.exec(fn.Body)
	fn.Env.SetParent(callerParent)

	if sig.kind != signalNone && sig.kind != signalReturn {
		return sig
	}

	var retVal calculus.Value
	if sig.hasRet {
		retVal = sig.ret
	} else {
		retVal = calculus.Null()
	}
	ip.calc.TruncateTo(base)
	ip.calc.Push(retVal)
	return signal{}
}
