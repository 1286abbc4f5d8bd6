package errlog

import (
	"strings"
	"testing"
)

func TestPushAndHasErrors(t *testing.T) {
	l := New()
	if l.HasErrors() {
		t.Fatalf("new log should have no errors")
	}

	l.Push("x", "undefined variable", SeverityRuntime)

	if !l.HasErrors() {
		t.Fatalf("expected HasErrors after Push")
	}
	if !l.HasSeverity(SeverityRuntime) {
		t.Fatalf("expected HasSeverity(SeverityRuntime)")
	}
	if l.HasSeverity(SeverityParse) {
		t.Fatalf("did not expect HasSeverity(SeverityParse)")
	}
}

func TestFlushClearsAndFormats(t *testing.T) {
	l := New()
	l.Push("break", "found in a block without loop", SeverityParse)
	l.Push("", "types don't match", SeverityRuntime)

	var b strings.Builder
	l.Flush(&b)

	out := b.String()
	for _, want := range []string{
		"parse", "break", "found in a block without loop",
		"runtime", "types don't match",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}

	if l.HasErrors() {
		t.Fatalf("Flush should clear the log")
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityParse, "parse"},
		{SeverityRuntime, "runtime"},
		{Severity(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Fatalf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
