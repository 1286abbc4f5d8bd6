package lexer

import (
	"testing"

	"github.com/cobalu/cobalu/pkg/errlog"
)

func TestNextTokenBasics(t *testing.T) {
	input := `var x = 1.5; if (x <= 2) { print(x); } else { break; }`

	tests := []struct {
		wantType TokenType
		wantLit  string
	}{
		{TokenVar, "var"},
		{TokenIdentifier, "x"},
		{TokenAssign, "="},
		{TokenDouble, "1.5"},
		{TokenSemi, ";"},
		{TokenIf, "if"},
		{TokenLParen, "("},
		{TokenIdentifier, "x"},
		{TokenLessEq, "<="},
		{TokenDouble, "2"},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenPrint, "print"},
		{TokenLParen, "("},
		{TokenIdentifier, "x"},
		{TokenRParen, ")"},
		{TokenSemi, ";"},
		{TokenRBrace, "}"},
		{TokenElse, "else"},
		{TokenLBrace, "{"},
		{TokenBreak, "break"},
		{TokenSemi, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input, errlog.New())
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.wantType {
			t.Fatalf("token %d: type = %v, want %v (literal %q)", i, tok.Type, tt.wantType, tok.Literal)
		}
		if tok.Literal != tt.wantLit {
			t.Fatalf("token %d: literal = %q, want %q", i, tok.Literal, tt.wantLit)
		}
	}
}

func TestNextTokenOperatorsAndKeywords(t *testing.T) {
	input := `== != < > <= >= + - * / ! && || func return true false null for while`
	want := []TokenType{
		TokenEq, TokenNotEq, TokenLess, TokenGreater, TokenLessEq, TokenGreaterEq,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenBang, TokenAnd, TokenOr,
		TokenFunc, TokenReturn, TokenTrue, TokenFalse, TokenNull, TokenFor, TokenWhile,
		TokenEOF,
	}

	l := New(input, errlog.New())
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: type = %v, want %v", i, tok.Type, wt)
		}
	}
}

func TestStringLiteral(t *testing.T) {
	l := New(`"hello world"`, errlog.New())
	tok := l.NextToken()
	if tok.Type != TokenString || tok.Str != "hello world" {
		t.Fatalf("got %+v", tok)
	}
}

func TestUnterminatedStringRecordsError(t *testing.T) {
	log := errlog.New()
	l := New(`"oops`, log)
	l.NextToken()

	if !log.HasSeverity(errlog.SeverityParse) {
		t.Fatalf("expected a parse error for an unterminated string")
	}
}

func TestIllegalCharacterRecordsErrorAndContinues(t *testing.T) {
	log := errlog.New()
	l := New("1 @ 2", log)

	first := l.NextToken()
	if first.Type != TokenDouble {
		t.Fatalf("expected a double first, got %v", first.Type)
	}
	second := l.NextToken()
	if second.Type != TokenIllegal {
		t.Fatalf("expected illegal token for '@', got %v", second.Type)
	}
	third := l.NextToken()
	if third.Type != TokenDouble {
		t.Fatalf("lexer should continue scanning past an illegal char, got %v", third.Type)
	}
	if !log.HasSeverity(errlog.SeverityParse) {
		t.Fatalf("expected a parse error for the illegal character")
	}
}

func TestLineComment(t *testing.T) {
	l := New("1 // a comment\n2", errlog.New())
	first := l.NextToken()
	second := l.NextToken()
	if first.Num != 1 || second.Num != 2 {
		t.Fatalf("comment should be skipped: got %v then %v", first, second)
	}
}

func TestLexerDeterminism(t *testing.T) {
	input := `var x = 1 + 2 * 3; print(x);`

	scan := func() []TokenType {
		l := New(input, errlog.New())
		var types []TokenType
		for {
			tok := l.NextToken()
			types = append(types, tok.Type)
			if tok.Type == TokenEOF {
				break
			}
		}
		return types
	}

	first := scan()
	second := scan()
	if len(first) != len(second) {
		t.Fatalf("token stream length differs across runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("token %d differs across runs: %v vs %v", i, first[i], second[i])
		}
	}
}
