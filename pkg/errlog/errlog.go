// Package errlog implements the error-log sink consulted throughout the
// Cobalu pipeline.
//
// Lexical, syntactic, contextual, and semantic problems discovered while
// parsing, and type or stack problems discovered while executing, are
// recorded here rather than aborting the pipeline outright. The parser
// keeps building sibling declarations after a failed rule, and the
// interpreter keeps executing past a bad instruction, exactly as spec
// section 7 describes: errors are recorded, not raised.
//
// The log itself is a process-wide singleton in spirit (one Log per
// run of the driver) but is represented here as an ordinary value the
// lexer, parser, and interpreter all share a pointer to, so tests can
// create as many independent logs as they like.
package errlog

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Severity classifies when an error was discovered.
type Severity int

const (
	// SeverityParse marks lexical, syntactic, or contextual errors
	// discovered while building the AST.
	SeverityParse Severity = 1
	// SeverityRuntime marks type or stack errors discovered while
	// executing the AST against the Calculus engine.
	SeverityRuntime Severity = 2
)

// String renders the severity the way the CLI labels it.
func (s Severity) String() string {
	switch s {
	case SeverityParse:
		return "parse"
	case SeverityRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Entry is one recorded error: the offending identifier or construct
// (Context), a human-readable Message, and its Severity.
type Entry struct {
	Context  string
	Message  string
	Severity Severity
}

// Log is an append-only sequence of Entry records.
type Log struct {
	entries []Entry
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Push records a new error. It never fails and never discards.
func (l *Log) Push(context, message string, severity Severity) {
	l.entries = append(l.entries, Entry{Context: context, Message: message, Severity: severity})
}

// Entries returns the accumulated entries in recording order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// HasErrors reports whether any entry at all has been recorded.
func (l *Log) HasErrors() bool {
	return len(l.entries) > 0
}

// HasSeverity reports whether any entry of the given severity was recorded.
func (l *Log) HasSeverity(sev Severity) bool {
	for _, e := range l.entries {
		if e.Severity == sev {
			return true
		}
	}
	return false
}

// Flush writes every accumulated entry to w, one line per entry, then
// clears the log. Parse-severity entries are colored red and runtime
// entries yellow; color is automatically suppressed on non-terminal
// output via color.NoColor.
func (l *Log) Flush(w io.Writer) {
	parseColor := color.New(color.FgRed)
	runtimeColor := color.New(color.FgYellow)

	for _, e := range l.entries {
		line := formatEntry(e)
		switch e.Severity {
		case SeverityParse:
			parseColor.Fprintln(w, line)
		case SeverityRuntime:
			runtimeColor.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
	l.entries = nil
}

func formatEntry(e Entry) string {
	if e.Context == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Context, e.Message)
}
