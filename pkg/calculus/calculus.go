// Package calculus implements Cobalu's runtime value-stack engine.
//
// Calculus is a LIFO of dynamically-typed Values. pkg/interp's AST
// dispatcher pushes literals, pops operands for arithmetic/comparison/
// print operations, and pushes results back, exactly mirroring
// _examples/original_source/src/exec.cpp's Calculus class — the push/
// pop/overflow-guard shape itself is carried from the teacher's
// pkg/vm/vm.go (push/pop/StackTop), which uses the identical pattern
// for its own fixed-size value stack.
//
// Every operation here is a no-op beyond recording exactly one error
// when called on an empty stack (spec section 4.5, section 8 property
// 8); callers do not need to check EmptyStack themselves first.
package calculus

import (
	"fmt"

	"github.com/cobalu/cobalu/pkg/errlog"
)

// ValueTag identifies which field of a Value holds live data. The
// indices are fixed by spec section 3 and referenced explicitly by
// TypesMatch below; do not renumber them.
type ValueTag int

const (
	TagDouble ValueTag = 0
	TagBool   ValueTag = 1
	TagString ValueTag = 2
	// tag 3 is reserved, unused (spec section 9, Open Question iii).
	TagNull ValueTag = 4
)

// Value is Cobalu's dynamically-typed runtime datum.
type Value struct {
	Tag ValueTag
	Num float64
	Str string
	Bln bool
}

// Double constructs a double-tagged Value.
func Double(f float64) Value { return Value{Tag: TagDouble, Num: f} }

// String constructs a string-tagged Value.
func String(s string) Value { return Value{Tag: TagString, Str: s} }

// Bool constructs a bool-tagged Value.
func Bool(b bool) Value { return Value{Tag: TagBool, Bln: b} }

// Null constructs the null Value.
func Null() Value { return Value{Tag: TagNull} }

// Format renders v the way Print/PrintTop does: %g for doubles,
// true/false for bools, single-quoted for strings, "null" otherwise.
func (v Value) Format() string {
	switch v.Tag {
	case TagDouble:
		return fmt.Sprintf("%g", v.Num)
	case TagBool:
		if v.Bln {
			return "true"
		}
		return "false"
	case TagString:
		return fmt.Sprintf("'%s'", v.Str)
	default:
		return "null"
	}
}

// TypesMatch implements the symmetric compatibility relation spec
// section 4.5 fixes for eq/ne/lt/gt/le/ge: a pair is incompatible iff
// one side is a string and the other a double or a bool. (0,1)/(1,0) —
// double vs bool — are compatible by this rule, and so is a string
// paired with null (compare then rejects that pair itself, since no
// comparison is defined for it). Ported verbatim from _examples/original_source/src/exec.cpp's
// free function of the same name.
func TypesMatch(l, r ValueTag) bool {
	if l == TagDouble && r == TagString {
		return false
	}
	if l == TagString && r == TagDouble {
		return false
	}
	if l == TagBool && r == TagString {
		return false
	}
	if l == TagString && r == TagBool {
		return false
	}
	return true
}

// Calculus is the runtime value stack.
type Calculus struct {
	stack []Value
	log   *errlog.Log
}

// New returns an empty Calculus reporting errors to log.
func New(log *errlog.Log) *Calculus {
	return &Calculus{log: log}
}

// Push appends v to the top of the stack.
func (c *Calculus) Push(v Value) {
	c.stack = append(c.stack, v)
}

// Len returns the number of values currently on the stack.
func (c *Calculus) Len() int {
	return len(c.stack)
}

// emptyStack reports and records "illegal instruction stack of
// execution is empty" when the stack has fewer than n values, and
// returns true in that case so callers can bail out as a no-op.
func (c *Calculus) emptyStack(n int) bool {
	if len(c.stack) < n {
		c.log.Push("", "illegal instruction stack of execution is empty", errlog.SeverityRuntime)
		return true
	}
	return false
}

func (c *Calculus) pop() Value {
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v
}

// Pop removes and returns the top value. On an empty stack it records
// one "stack of execution is empty" error and returns ok=false; the
// unexported pop is the unguarded variant used after emptyStack has
// already confirmed enough operands are present.
func (c *Calculus) Pop() (Value, bool) {
	if c.emptyStack(1) {
		return Value{}, false
	}
	return c.pop(), true
}

// At reads the value at absolute stack offset i without removing it,
// for a VarVal read. ok is false when i is out of range.
func (c *Calculus) At(i int) (Value, bool) {
	if i < 0 || i >= len(c.stack) {
		return Value{}, false
	}
	return c.stack[i], true
}

// Set overwrites the value at absolute stack offset i, for a plain
// assignment. It reports false when i is out of range.
func (c *Calculus) Set(i int, v Value) bool {
	if i < 0 || i >= len(c.stack) {
		return false
	}
	c.stack[i] = v
	return true
}

// TruncateTo shrinks the stack back down to length n, discarding
// everything above it. Used only to tear down a call frame once a
// function returns (spec section 4.4's "Evaluate each argument ...;
// tear down the call frame"); ordinary block exit does not truncate —
// the value stack is otherwise append-only for the lifetime of the
// program, matching spec section 3.
func (c *Calculus) TruncateTo(n int) {
	if n < 0 || n >= len(c.stack) {
		return
	}
	c.stack = c.stack[:n]
}

// Add implements `+`: double+double sums, string+string concatenates,
// any other pairing (including a mismatched type pair) is a type
// error.
func (c *Calculus) Add() {
	if c.emptyStack(2) {
		return
	}
	right := c.pop()
	left := c.pop()

	if left.Tag != right.Tag {
		c.log.Push("", "types don't match", errlog.SeverityRuntime)
		return
	}

	switch left.Tag {
	case TagDouble:
		c.Push(Double(left.Num + right.Num))
	case TagString:
		c.Push(String(left.Str + right.Str))
	default:
		c.log.Push("", "illegal instruction on booleans", errlog.SeverityRuntime)
	}
}

// arithmetic implements the shared shape of sub/mul/div: both operands
// must be numeric. Operands of differing types are "types don't match"
// (even when one of them is a string); two strings get their own
// distinct message (matching exec.cpp); two bools or two nulls are
// "types don't match".
func (c *Calculus) arithmetic(op func(l, r float64) float64) {
	if c.emptyStack(2) {
		return
	}
	right := c.pop()
	left := c.pop()

	if left.Tag != right.Tag {
		c.log.Push("", "types don't match", errlog.SeverityRuntime)
		return
	}
	if left.Tag == TagString || right.Tag == TagString {
		c.log.Push("", "illegal instruction in strings", errlog.SeverityRuntime)
		return
	}
	if left.Tag != TagDouble {
		c.log.Push("", "types don't match", errlog.SeverityRuntime)
		return
	}

	c.Push(Double(op(left.Num, right.Num)))
}

// Sub implements `-`. Division-by-zero-style float edge cases are not
// special-cased anywhere in Calculus; see Div.
func (c *Calculus) Sub() {
	c.arithmetic(func(l, r float64) float64 { return l - r })
}

// Mul implements `*`.
func (c *Calculus) Mul() {
	c.arithmetic(func(l, r float64) float64 { return l * r })
}

// Div implements `/`. Division by zero follows Go's IEEE-754 float64
// semantics (+Inf/-Inf/NaN), per spec section 9 Open Question i — no
// runtime error is raised.
func (c *Calculus) Div() {
	c.arithmetic(func(l, r float64) float64 { return l / r })
}

// Neg implements unary `-x`: numeric only.
func (c *Calculus) Neg() {
	if c.emptyStack(1) {
		return
	}
	v := c.pop()
	switch v.Tag {
	case TagDouble:
		c.Push(Double(-v.Num))
	case TagBool:
		c.log.Push("", "illegal instruction on booleans", errlog.SeverityRuntime)
	case TagString:
		c.log.Push("", "illegal instruction in strings", errlog.SeverityRuntime)
	default:
		c.log.Push("", "illegal instruction on null", errlog.SeverityRuntime)
	}
}

// Not implements unary `!x`: numeric operands push 1.0 iff the
// operand is zero, else 0.0 (kept as a double, matching exec.cpp's
// negData exactly); bool operands push the logical complement;
// strings are a type error.
func (c *Calculus) Not() {
	if c.emptyStack(1) {
		return
	}
	v := c.pop()
	switch v.Tag {
	case TagDouble:
		if v.Num == 0 {
			c.Push(Double(1.0))
		} else {
			c.Push(Double(0.0))
		}
	case TagBool:
		c.Push(Bool(!v.Bln))
	case TagString:
		c.log.Push("", "illegal instruction in strings", errlog.SeverityRuntime)
	default:
		c.log.Push("", "illegal instruction on null", errlog.SeverityRuntime)
	}
}

// compare implements the shared shape of eq/ne/lt/gt/le/ge: both
// operands popped, TypesMatch validated, then dispatched by tag pair.
// numCmp/boolCmp/strCmp each answer "is this relation true for these
// two operands of this tag" — relational operators beyond eq/ne only
// make sense between two values of the identical tag, so they reject
// a double/bool cross pair that eq/ne itself tolerates (spec section
// 4.5: "the other comparison operators ... share its shape" refers to
// TypesMatch's string-exclusion rule, not to cross-tag equality).
func (c *Calculus) compare(name string, numCmp func(l, r float64) bool, boolCmp func(l, r bool) bool, strCmp func(l, r string) bool, crossCmp func(l, r Value) (bool, bool)) {
	if c.emptyStack(2) {
		return
	}
	right := c.pop()
	left := c.pop()

	if !TypesMatch(left.Tag, right.Tag) {
		c.log.Push("", "types don't match", errlog.SeverityRuntime)
		return
	}

	switch {
	case left.Tag == TagDouble && right.Tag == TagDouble:
		c.Push(Bool(numCmp(left.Num, right.Num)))
	case left.Tag == TagBool && right.Tag == TagBool:
		c.Push(Bool(boolCmp(left.Bln, right.Bln)))
	case left.Tag == TagString && right.Tag == TagString:
		c.Push(Bool(strCmp(left.Str, right.Str)))
	case left.Tag == TagNull && right.Tag == TagNull:
		c.Push(Bool(name == "==" || name == "<=" || name == ">="))
	default:
		ok, result := crossCmp(left, right)
		if !ok {
			c.log.Push("", "types don't match", errlog.SeverityRuntime)
			return
		}
		c.Push(Bool(result))
	}
}

func asNum(v Value) (float64, bool) {
	switch v.Tag {
	case TagDouble:
		return v.Num, true
	case TagBool:
		if v.Bln {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Eq implements `==`. A double/bool cross pair compares numerically
// (false treated as 0, true as 1), matching exec.cpp's eqData.
func (c *Calculus) Eq() {
	c.compare("==",
		func(l, r float64) bool { return l == r },
		func(l, r bool) bool { return l == r },
		func(l, r string) bool { return l == r },
		func(l, r Value) (bool, bool) {
			ln, lok := asNum(l)
			rn, rok := asNum(r)
			if !lok || !rok {
				return false, false
			}
			return true, ln == rn
		})
}

// Ne implements `!=`, the negation of Eq's relation.
func (c *Calculus) Ne() {
	c.compare("!=",
		func(l, r float64) bool { return l != r },
		func(l, r bool) bool { return l != r },
		func(l, r string) bool { return l != r },
		func(l, r Value) (bool, bool) {
			ln, lok := asNum(l)
			rn, rok := asNum(r)
			if !lok || !rok {
				return false, false
			}
			return true, ln != rn
		})
}

// Lt implements `<`. Strings compare lexicographically (spec section
// 9 Open Question ii, resolved in SPEC_FULL.md section 8). Bools are
// not ordered: `<`, `>`, `<=` and `>=` on two bools push false without
// recording an error, while a cross double/bool pair is a type error.
func (c *Calculus) Lt() {
	c.compare("<",
		func(l, r float64) bool { return l < r },
		func(l, r bool) bool { return false },
		func(l, r string) bool { return l < r },
		func(l, r Value) (bool, bool) { return false, false })
}

// Gt implements `>`.
func (c *Calculus) Gt() {
	c.compare(">",
		func(l, r float64) bool { return l > r },
		func(l, r bool) bool { return false },
		func(l, r string) bool { return l > r },
		func(l, r Value) (bool, bool) { return false, false })
}

// Le implements `<=`.
func (c *Calculus) Le() {
	c.compare("<=",
		func(l, r float64) bool { return l <= r },
		func(l, r bool) bool { return false },
		func(l, r string) bool { return l <= r },
		func(l, r Value) (bool, bool) { return false, false })
}

// Ge implements `>=`.
func (c *Calculus) Ge() {
	c.compare(">=",
		func(l, r float64) bool { return l >= r },
		func(l, r bool) bool { return false },
		func(l, r string) bool { return l >= r },
		func(l, r Value) (bool, bool) { return false, false })
}

// And implements `&&`. Both operands are evaluated by the caller
// before And is invoked — Calculus has no short-circuit instruction,
// matching the original's observed (non-short-circuiting) behavior;
// see pkg/interp's doc comments for where that choice is made.
func (c *Calculus) And() {
	c.logicalBinary("&&", func(l, r bool) bool { return l && r })
}

// Or implements `||`.
func (c *Calculus) Or() {
	c.logicalBinary("||", func(l, r bool) bool { return l || r })
}

func (c *Calculus) logicalBinary(name string, op func(l, r bool) bool) {
	if c.emptyStack(2) {
		return
	}
	right := c.pop()
	left := c.pop()

	if left.Tag != TagBool || right.Tag != TagBool {
		c.log.Push("", "types don't match", errlog.SeverityRuntime)
		return
	}
	c.Push(Bool(op(left.Bln, right.Bln)))
}

// PrintTop pops the top value and returns its formatted rendering,
// along with true on success. Callers write the rendering followed by
// a newline to their chosen sink; Calculus itself performs no I/O so
// it stays trivially testable.
func (c *Calculus) PrintTop() (string, bool) {
	if c.emptyStack(1) {
		return "", false
	}
	return c.pop().Format(), true
}

// IsTruthy reports whether v is the "true" branch of an `if`/`while`/
// `for` condition: for doubles, any non-zero value (mirrors negData's
// own zero test); for bools, the bool itself; strings and null are
// never truthy conditions and are reported as false so that a
// malformed condition fails its branch rather than panicking. No error
// is recorded for such a condition: pkg/interp passes the popped
// condition straight to IsTruthy.
func IsTruthy(v Value) bool {
	switch v.Tag {
	case TagDouble:
		return v.Num != 0
	case TagBool:
		return v.Bln
	default:
		return false
	}
}
