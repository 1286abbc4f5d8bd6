package calculus

import (
	"testing"

	"github.com/cobalu/cobalu/pkg/errlog"
)

func newCalc() (*Calculus, *errlog.Log) {
	log := errlog.New()
	return New(log), log
}

func TestAddNumbers(t *testing.T) {
	c, log := newCalc()
	c.Push(Double(1))
	c.Push(Double(2))
	c.Add()

	got, ok := c.Pop()
	if !ok || got.Tag != TagDouble || got.Num != 3 {
		t.Fatalf("1+2 = %+v, ok=%v", got, ok)
	}
	if log.HasErrors() {
		t.Fatalf("unexpected errors: %v", log.Entries())
	}
}

func TestAddStrings(t *testing.T) {
	c, _ := newCalc()
	c.Push(String("foo"))
	c.Push(String("bar"))
	c.Add()

	got, ok := c.Pop()
	if !ok || got.Tag != TagString || got.Str != "foobar" {
		t.Fatalf("'foo'+'bar' = %+v, ok=%v", got, ok)
	}
}

func TestAddTypeMismatch(t *testing.T) {
	c, log := newCalc()
	c.Push(Double(1))
	c.Push(String("x"))
	c.Add()

	if !log.HasSeverity(errlog.SeverityRuntime) {
		t.Fatalf("expected a runtime error for 1 + \"x\"")
	}
}

func TestSubMulDivStringsRejected(t *testing.T) {
	for _, op := range []func(*Calculus){
		(*Calculus).Sub, (*Calculus).Mul, (*Calculus).Div,
	} {
		c, log := newCalc()
		c.Push(String("a"))
		c.Push(String("b"))
		op(c)
		if !log.HasSeverity(errlog.SeverityRuntime) {
			t.Fatalf("expected runtime error for string operand")
		}
	}
}

func TestDivByZeroProducesInf(t *testing.T) {
	c, log := newCalc()
	c.Push(Double(1))
	c.Push(Double(0))
	c.Div()

	got, ok := c.Pop()
	if !ok {
		t.Fatalf("expected a value on the stack")
	}
	if !isInf(got.Num) {
		t.Fatalf("1/0 = %v, want +Inf", got.Num)
	}
	if log.HasErrors() {
		t.Fatalf("division by zero must not record an error, got %v", log.Entries())
	}
}

func isInf(f float64) bool {
	return f > 1.7976931348623157e308 // cheap +Inf check without importing math in the test: only +Inf exceeds the largest finite float64
}

func TestNegAndNot(t *testing.T) {
	c, _ := newCalc()
	c.Push(Double(5))
	c.Neg()
	got, _ := c.Pop()
	if got.Num != -5 {
		t.Fatalf("-5 expected, got %v", got.Num)
	}

	c.Push(Double(0))
	c.Not()
	got, _ = c.Pop()
	if got.Tag != TagDouble || got.Num != 1.0 {
		t.Fatalf("!0 should push 1.0, got %+v", got)
	}

	c.Push(Bool(true))
	c.Not()
	got, _ = c.Pop()
	if got.Tag != TagBool || got.Bln != false {
		t.Fatalf("!true should push false, got %+v", got)
	}
}

func TestEqCrossDoubleBool(t *testing.T) {
	c, log := newCalc()
	c.Push(Double(1))
	c.Push(Bool(true))
	c.Eq()

	got, ok := c.Pop()
	if !ok || got.Tag != TagBool || !got.Bln {
		t.Fatalf("1 == true should be true, got %+v ok=%v", got, ok)
	}
	if log.HasErrors() {
		t.Fatalf("unexpected errors: %v", log.Entries())
	}
}

func TestEqStringVsDoubleIsTypeMismatch(t *testing.T) {
	c, log := newCalc()
	c.Push(String("1"))
	c.Push(Double(1))
	c.Eq()

	if !log.HasSeverity(errlog.SeverityRuntime) {
		t.Fatalf("expected a runtime type error for string == double")
	}
}

func TestEqSameStringIsTrue(t *testing.T) {
	c, _ := newCalc()
	c.Push(String("hi"))
	c.Push(String("hi"))
	c.Eq()

	got, ok := c.Pop()
	if !ok || !got.Bln {
		t.Fatalf("'hi' == 'hi' should be true")
	}
}

func TestLtStringsLexicographic(t *testing.T) {
	c, _ := newCalc()
	c.Push(String("a"))
	c.Push(String("b"))
	c.Lt()

	got, ok := c.Pop()
	if !ok || !got.Bln {
		t.Fatalf("'a' < 'b' should be true")
	}
}

func TestEmptyStackRecordsExactlyOneError(t *testing.T) {
	c, log := newCalc()
	c.Add()

	if len(log.Entries()) != 1 {
		t.Fatalf("expected exactly one error entry, got %d: %v", len(log.Entries()), log.Entries())
	}
	if _, ok := c.Pop(); ok {
		t.Fatalf("pop from empty stack should report ok=false")
	}
}

func TestPrintTopFormats(t *testing.T) {
	c, _ := newCalc()
	c.Push(Double(1))
	s, ok := c.PrintTop()
	if !ok || s != "1" {
		t.Fatalf("print(1.0) = %q, want %q", s, "1")
	}

	c.Push(String("hi"))
	s, _ = c.PrintTop()
	if s != "'hi'" {
		t.Fatalf("print(\"hi\") = %q, want 'hi'", s)
	}

	c.Push(Bool(true))
	s, _ = c.PrintTop()
	if s != "true" {
		t.Fatalf("print(true) = %q, want true", s)
	}

	c.Push(Null())
	s, _ = c.PrintTop()
	if s != "null" {
		t.Fatalf("print(null) = %q, want null", s)
	}
}

func TestAndOrNoShortCircuitBothOperandsMustBeBool(t *testing.T) {
	c, log := newCalc()
	c.Push(Double(1))
	c.Push(Bool(true))
	c.And()

	if !log.HasSeverity(errlog.SeverityRuntime) {
		t.Fatalf("&& with a non-bool operand should be a type error")
	}
}

func TestIsTruthy(t *testing.T) {
	if IsTruthy(Double(0)) {
		t.Fatalf("0.0 should not be truthy")
	}
	if !IsTruthy(Double(1)) {
		t.Fatalf("1.0 should be truthy")
	}
	if IsTruthy(Bool(false)) {
		t.Fatalf("false should not be truthy")
	}
	if IsTruthy(String("x")) {
		t.Fatalf("strings are never truthy conditions")
	}
	if IsTruthy(Null()) {
		t.Fatalf("null is never truthy")
	}
}
