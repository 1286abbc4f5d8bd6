package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.cobalu")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunFileExecutesAndExitsZero(t *testing.T) {
	path := writeSource(t, `func add(a,b) { return a+b; } print(add(2,3));`)
	var out, errOut bytes.Buffer
	code := runFile(path, &out, &errOut)
	require.Equal(t, 0, code)
	require.Equal(t, "5\n", out.String())
	require.Empty(t, errOut.String())
}

func TestRunFileSuppressesExecutionOnParseError(t *testing.T) {
	path := writeSource(t, `print(1+2;`)
	var out, errOut bytes.Buffer
	code := runFile(path, &out, &errOut)
	require.NotEqual(t, 0, code)
	require.Empty(t, out.String(), "a parse error must suppress execution entirely")
	require.Contains(t, errOut.String(), "parse")
}

func TestRunFileReportsRuntimeErrorsAndNonZeroExit(t *testing.T) {
	path := writeSource(t, `print(1 + "x");`)
	var out, errOut bytes.Buffer
	code := runFile(path, &out, &errOut)
	require.NotEqual(t, 0, code)
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "runtime")
}

func TestRunFileMissingPathReportsError(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runFile(filepath.Join(t.TempDir(), "missing.cobalu"), &out, &errOut)
	require.NotEqual(t, 0, code)
	require.Contains(t, errOut.String(), "cobalu:")
}

func TestRunLexEmitsTokensIncludingEOF(t *testing.T) {
	path := writeSource(t, `print(1);`)
	var out, errOut bytes.Buffer
	code := runLex(path, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "PRINT")
	require.Contains(t, out.String(), "EOF")
}

func TestRunParseDumpsASTInSourceOrder(t *testing.T) {
	path := writeSource(t, `var x = 1; print(x);`)
	var out, errOut bytes.Buffer
	code := runParse(path, &out, &errOut)
	require.Equal(t, 0, code)
	varIdx := bytes.Index(out.Bytes(), []byte("var x"))
	printIdx := bytes.Index(out.Bytes(), []byte("print"))
	require.GreaterOrEqual(t, varIdx, 0)
	require.GreaterOrEqual(t, printIdx, 0)
	require.Less(t, varIdx, printIdx, "the dump should reflect source order, not the right-recursive construction order")
}

func TestBalancedStatementWaitsForCloseBrace(t *testing.T) {
	require.False(t, balancedStatement("while (true) {\n"))
	require.True(t, balancedStatement("while (true) { print(1); }\n"))
	require.True(t, balancedStatement("var x = 1;\n"))
	require.False(t, balancedStatement("var x =\n"))
}
