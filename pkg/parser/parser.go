// Package parser implements Cobalu's recursive-descent, precedence-
// climbing parser.
//
// The parser consumes tokens from a pkg/lexer.Lexer one at a time under
// a two-token lookahead (curTok/peekTok), exactly the window the
// teacher's pkg/parser/parser.go uses, and builds a pkg/ast tree whose
// nodes carry a non-owning handle to the pkg/block.Block they were
// parsed in. It also owns the block tree itself for the session: each
// call that descends into `{...}`, a loop body, or a function body
// asks the current block to produce (or temporarily become) the right
// child state, following the transition rules from original_source's
// block.cpp together with the spec's grammar add-ons (var/if/while/
// for/break/return/func) that block.cpp predates.
//
// Parse errors do not abort: a failing rule records one entry on the
// shared errlog.Log and returns a nil AST node, and the caller that
// asked for it is responsible for skipping to a position it can
// resume from. This mirrors original_source/src/parser.cpp's own
// nullptr-on-failure convention.
package parser

import (
	"github.com/cobalu/cobalu/pkg/ast"
	"github.com/cobalu/cobalu/pkg/block"
	"github.com/cobalu/cobalu/pkg/errlog"
	"github.com/cobalu/cobalu/pkg/lexer"
)

// Parser turns one source string into an AST plus its block tree.
type Parser struct {
	lex     *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token
	log     *errlog.Log

	global  *block.Block
	current *block.Block // the block new declarations are parsed into
}

// New creates a Parser over input, reporting errors to log.
func New(input string, log *errlog.Log) *Parser {
	return NewWithGlobal(input, log, block.NewGlobal())
}

// NewWithGlobal creates a Parser over input that parses declarations
// into an already-existing global block rather than a fresh one. The
// REPL uses this to keep variable and function bindings (and their
// stack offsets) alive across separate lines: each line is parsed
// against, and appends to, the same global block and is then run
// against the same Calculus, so an offset issued on one line still
// points at the right slot when a later line reads it.
func NewWithGlobal(input string, log *errlog.Log, global *block.Block) *Parser {
	p := &Parser{
		lex:     lexer.New(input, log),
		log:     log,
		global:  global,
		current: global,
	}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lex.NextToken()
}

func (p *Parser) curIs(tt lexer.TokenType) bool  { return p.curTok.Type == tt }
func (p *Parser) peekIs(tt lexer.TokenType) bool { return p.peekTok.Type == tt }

// expectPeek advances past the peek token if it has type tt, otherwise
// records msg and leaves the token stream untouched.
func (p *Parser) expectPeek(tt lexer.TokenType, msg string) bool {
	if !p.peekIs(tt) {
		p.errorf(msg)
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) errorf(msg string) {
	p.log.Push(p.curTok.Literal, msg, errlog.SeverityParse)
}

// Global returns the root block of the parsed program.
func (p *Parser) Global() *block.Block {
	return p.global
}

// Parse parses the whole source as `program -> declaration*` and
// returns the root statement-list node, reusing the same right-
// recursive Inside chain a `{...}` body builds (the top-level grammar
// rule has no production of its own beyond "zero or more
// declarations").
func (p *Parser) Parse() ast.Node {
	return p.parseDeclarationsUntil(lexer.TokenEOF)
}

// parseDeclarationsUntil parses declarations building a right-
// recursive Inside chain, stopping once curTok reaches end or EOF is
// reached first. A failing declaration is skipped (best-effort error
// recovery): the parser advances at least one token so it cannot spin
// forever on the same bad token.
func (p *Parser) parseDeclarationsUntil(end lexer.TokenType) ast.Node {
	var stmts []ast.Node
	for !p.curIs(end) && !p.curIs(lexer.TokenEOF) {
		before := p.curTok
		stmt := p.parseDeclaration()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.curTok == before {
			p.nextToken()
		}
	}

	// Build genuine right-recursion: each new statement wraps the
	// previous chain, so the outermost node's Exec is the LAST
	// statement and Chain recurses down to the first one. exec's
	// dispatcher (pkg/interp) runs Chain before Exec, which unwinds
	// this structure back into source order.
	var chain ast.Node
	for _, stmt := range stmts {
		chain = &ast.Inside{Chain: chain, Exec: stmt}
	}
	return chain
}

func (p *Parser) parseDeclaration() ast.Node {
	if p.curIs(lexer.TokenFunc) {
		return p.parseFunction()
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() ast.Node {
	switch p.curTok.Type {
	case lexer.TokenPrint:
		return p.parsePrint()
	case lexer.TokenVar:
		return p.parseVarDecl()
	case lexer.TokenIdentifier:
		return p.parseIDStatement()
	case lexer.TokenLBrace:
		return p.parseBraceBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenBreak:
		return p.parseBreak()
	case lexer.TokenReturn:
		return p.parseReturn()
	default:
		p.errorf("statement not identified")
		return nil
	}
}

func (p *Parser) skipSemi() {
	if p.curIs(lexer.TokenSemi) {
		p.nextToken()
	}
}

// parsePrint parses `print '(' expression ')'`.
func (p *Parser) parsePrint() ast.Node {
	p.nextToken() // consume 'print'
	if !p.curIs(lexer.TokenLParen) {
		p.errorf("expected a '('")
		return nil
	}
	expr := p.parseParen()
	if expr == nil {
		return nil
	}
	p.skipSemi()
	return &ast.Print{Expr: expr}
}

// parseVarDecl parses `var id ('=' expression)?` into a declaring
// VarDecl bound to the current block; pkg/interp allocates its fresh
// offset when the declaration executes. Re-declaring a name already local to
// this block is permitted and shadows (spec section 4.4).
func (p *Parser) parseVarDecl() ast.Node {
	p.nextToken() // consume 'var'
	if !p.curIs(lexer.TokenIdentifier) {
		p.errorf("expected a variable name after var")
		return nil
	}
	name := p.curTok.Literal
	p.nextToken()

	var expr ast.Node
	if p.curIs(lexer.TokenAssign) {
		p.nextToken()
		expr = p.parseExpression()
		if expr == nil {
			return nil
		}
	}
	p.skipSemi()

	decl := &ast.VarDecl{Name: name, Kind: ast.DeclDeclare, Expr: expr, ParentBlock: p.current}
	return decl
}

// parseIDStatement implements the `idstmt` production shared by both
// statement position and expression primary position: `id '=' expr`
// (assignment), `id '(' args? ')'` (call), or a bare `id` (read).
func (p *Parser) parseIDStatement() ast.Node {
	name := p.curTok.Literal
	p.nextToken() // consume identifier

	switch {
	case p.curIs(lexer.TokenAssign):
		p.nextToken()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		p.skipSemi()
		return &ast.VarDecl{Name: name, Kind: ast.DeclAssign, Expr: expr, ParentBlock: p.current}
	case p.curIs(lexer.TokenLParen):
		args := p.parseArgList()
		p.skipSemi()
		return &ast.CallFunc{Name: name, Args: args, ParentBlock: p.current}
	default:
		return &ast.VarVal{Name: name, ParentBlock: p.current}
	}
}

// parseArgList parses `'(' (expression (',' expression)*)? ')'`,
// curTok already positioned on the opening '('.
func (p *Parser) parseArgList() []ast.Node {
	p.nextToken() // consume '('
	var args []ast.Node
	if p.curIs(lexer.TokenRParen) {
		p.nextToken()
		return args
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return args
		}
		args = append(args, arg)
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.curIs(lexer.TokenRParen) {
		p.errorf("expected a ')'")
		return args
	}
	p.nextToken() // consume ')'
	return args
}

// enterCommonBlock computes and switches into the child block a plain
// `{...}` introduces: COMMON if the parent is GLOBAL, else the child
// inherits the parent's state (spec section 4.2).
func (p *Parser) enterCommonBlock() *block.Block {
	state := p.current.State()
	if state == block.Global {
		state = block.Common
	}
	child := block.NewChild(p.current, state)
	p.current = child
	return child
}

func (p *Parser) leaveBlock(parent *block.Block) {
	p.current = parent
}

// parseBraceBlock parses `'{' statement* '}'` as a child block.
func (p *Parser) parseBraceBlock() ast.Node {
	if !p.curIs(lexer.TokenLBrace) {
		p.errorf("expected a '{'")
		return nil
	}
	parent := p.current
	p.enterCommonBlock()
	p.nextToken() // consume '{'

	body := p.parseDeclarationsUntil(lexer.TokenRBrace)

	if !p.curIs(lexer.TokenRBrace) {
		p.errorf("expected a '}'")
		p.leaveBlock(parent)
		return nil
	}
	p.nextToken() // consume '}'
	p.leaveBlock(parent)
	return body
}

// parseStatementOrBlock parses a single statement used as the body of
// an if/while/for arm: either a braced block or a single statement,
// both already executed as a generic statement node by pkg/interp.
func (p *Parser) parseStatementOrBlock() ast.Node {
	if p.curIs(lexer.TokenLBrace) {
		return p.parseBraceBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseIf() ast.Node {
	p.nextToken() // consume 'if'
	if !p.curIs(lexer.TokenLParen) {
		p.errorf("expected a '('")
		return nil
	}
	cond := p.parseParen()
	if cond == nil {
		return nil
	}

	then := p.parseStatementOrBlock()
	if then == nil {
		return nil
	}

	var elseBranch ast.Node
	if p.curIs(lexer.TokenElse) {
		p.nextToken()
		elseBranch = p.parseStatementOrBlock()
	}
	return &ast.If{Cond: cond, Then: then, Else: elseBranch}
}

// enterLoopBody temporarily upgrades the current block's state for the
// duration of a loop body (FUNC -> FUNCLOOP, anything else -> LOOP,
// so a loop nested inside a FUNCLOOP body becomes LOOP),
// returning the prior state so the caller can restore it afterward
// (spec section 4.2). Unlike a `{...}` block, this does not create a
// new child block — block.go's doc on SetState documents the same
// save/restore convention used here.
func (p *Parser) enterLoopBody() block.State {
	old := p.current.State()
	if old == block.Func {
		p.current.SetState(block.FuncLoop)
	} else {
		p.current.SetState(block.Loop)
	}
	return old
}

func (p *Parser) leaveLoopBody(old block.State) {
	p.current.SetState(old)
}

func (p *Parser) parseWhile() ast.Node {
	p.nextToken() // consume 'while'
	if !p.curIs(lexer.TokenLParen) {
		p.errorf("expected a '('")
		return nil
	}
	cond := p.parseParen()
	if cond == nil {
		return nil
	}

	old := p.enterLoopBody()
	body := p.parseStatementOrBlock()
	p.leaveLoopBody(old)
	if body == nil {
		return nil
	}
	return &ast.While{Cond: cond, Body: body}
}

// parseFor parses `for '(' init? ';' cond? ';' iter? ')' body`. init
// is a vardecl or idstmt without its own trailing `;` consumption
// handled here instead (the `for` header uses `;` as a hard
// separator, not an optional statement terminator).
func (p *Parser) parseFor() ast.Node {
	p.nextToken() // consume 'for'
	if !p.curIs(lexer.TokenLParen) {
		p.errorf("expected a '('")
		return nil
	}
	p.nextToken() // consume '('

	var init ast.Node
	if !p.curIs(lexer.TokenSemi) {
		init = p.parseForClause()
	}
	if !p.curIs(lexer.TokenSemi) {
		p.errorf("expected a ';'")
		return nil
	}
	p.nextToken() // consume ';'

	var cond ast.Node
	if !p.curIs(lexer.TokenSemi) {
		cond = p.parseExpression()
	}
	if !p.curIs(lexer.TokenSemi) {
		p.errorf("expected a ';'")
		return nil
	}
	p.nextToken() // consume ';'

	var iter ast.Node
	if !p.curIs(lexer.TokenRParen) {
		iter = p.parseForClause()
	}
	if !p.curIs(lexer.TokenRParen) {
		p.errorf("expected a ')'")
		return nil
	}
	p.nextToken() // consume ')'

	old := p.enterLoopBody()
	body := p.parseStatementOrBlock()
	p.leaveLoopBody(old)
	if body == nil {
		return nil
	}
	return &ast.For{Init: init, Cond: cond, Iter: iter, Body: body}
}

// parseForClause parses the init/iter slot of a `for` header: a
// vardecl or an idstmt, without consuming a trailing `;` or `)` since
// the caller (parseFor) owns those separators.
func (p *Parser) parseForClause() ast.Node {
	if p.curIs(lexer.TokenVar) {
		p.nextToken() // consume 'var'
		if !p.curIs(lexer.TokenIdentifier) {
			p.errorf("expected a variable name after var")
			return nil
		}
		name := p.curTok.Literal
		p.nextToken()
		var expr ast.Node
		if p.curIs(lexer.TokenAssign) {
			p.nextToken()
			expr = p.parseExpression()
			if expr == nil {
				return nil
			}
		}
		return &ast.VarDecl{Name: name, Kind: ast.DeclDeclare, Expr: expr, ParentBlock: p.current}
	}
	if !p.curIs(lexer.TokenIdentifier) {
		p.errorf("statement not identified")
		return nil
	}
	name := p.curTok.Literal
	p.nextToken()
	if !p.curIs(lexer.TokenAssign) {
		p.errorf("expected a '='")
		return nil
	}
	p.nextToken()
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	return &ast.VarDecl{Name: name, Kind: ast.DeclAssign, Expr: expr, ParentBlock: p.current}
}

// parseBreak is legal only inside a LOOP or FUNCLOOP block (spec
// section 4.2).
func (p *Parser) parseBreak() ast.Node {
	p.nextToken() // consume 'break'
	p.skipSemi()
	state := p.current.State()
	if state != block.Loop && state != block.FuncLoop {
		p.errorf("found in a block without loop")
		return nil
	}
	return &ast.Break{}
}

// parseReturn is legal only inside a FUNC or FUNCLOOP block.
func (p *Parser) parseReturn() ast.Node {
	p.nextToken() // consume 'return'
	state := p.current.State()
	if state != block.Func && state != block.FuncLoop {
		p.errorf("found in a block without func")
		return nil
	}

	var expr ast.Node
	if !p.curIs(lexer.TokenSemi) && !p.curIs(lexer.TokenRBrace) {
		expr = p.parseExpression()
	}
	p.skipSemi()
	return &ast.Return{Expr: expr}
}

// parseFunction parses `func name '(' params? ')' '{' statement* '}'`.
// `func` is legal only at GLOBAL state; the function's parameters and
// body are parsed inside a fresh FUNC block that becomes the
// Function's Env.
func (p *Parser) parseFunction() ast.Node {
	if p.current.State() != block.Global {
		p.errorf("inside another other block")
		// Best-effort recovery: still parse and discard the malformed
		// function so a sibling declaration is not desynchronized.
	}
	p.nextToken() // consume 'func'

	if !p.curIs(lexer.TokenIdentifier) {
		p.errorf("expected a function name")
		return nil
	}
	name := p.curTok.Literal
	if p.current.HasLocalFunc(name) {
		p.errorf("duplicate function name")
	}
	p.nextToken()

	if !p.curIs(lexer.TokenLParen) {
		p.errorf("expected a '('")
		return nil
	}
	p.nextToken() // consume '('

	env := block.NewChild(p.current, block.Func)

	var params []string
	seen := make(map[string]bool)
	if !p.curIs(lexer.TokenRParen) {
		for {
			if !p.curIs(lexer.TokenIdentifier) {
				p.errorf("expected a parameter name")
				return nil
			}
			pname := p.curTok.Literal
			if seen[pname] {
				p.errorf("duplicate parameter name")
			}
			seen[pname] = true
			params = append(params, pname)
			p.nextToken()
			if p.curIs(lexer.TokenComma) {
				p.nextToken()
				continue
			}
			break
		}
	}
	if !p.curIs(lexer.TokenRParen) {
		p.errorf("expected a ')'")
		return nil
	}
	p.nextToken() // consume ')'

	if !p.curIs(lexer.TokenLBrace) {
		p.errorf("expected a '{'")
		return nil
	}
	parent := p.current
	p.current = env
	p.nextToken() // consume '{'
	body := p.parseDeclarationsUntil(lexer.TokenRBrace)
	if !p.curIs(lexer.TokenRBrace) {
		p.errorf("expected a '}'")
		p.current = parent
		return nil
	}
	p.nextToken() // consume '}'
	p.current = parent

	fn := &ast.Function{Name: name, Params: params, Body: body, Env: env, ParentBlock: parent}
	parent.FuncSetOffset(name, fn)
	return fn
}

// parseParen parses `'(' expression ')'`.
func (p *Parser) parseParen() ast.Node {
	p.nextToken() // consume '('
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	if !p.curIs(lexer.TokenRParen) {
		p.errorf("expected a ')'")
		return nil
	}
	p.nextToken() // consume ')'
	return expr
}

// parseExpression implements `expression -> unary (binop unary)*` via
// precedence climbing.
func (p *Parser) parseExpression() ast.Node {
	lhs := p.parseUnary()
	if lhs == nil {
		return nil
	}
	return p.parseOperation(0, lhs)
}

// parseUnary implements `unary -> ('!'|'-') unary | primary`.
func (p *Parser) parseUnary() ast.Node {
	switch p.curTok.Type {
	case lexer.TokenMinus:
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Unary{Op: ast.UnaryNeg, Operand: operand}
	case lexer.TokenBang:
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Unary{Op: ast.UnaryNot, Operand: operand}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Node {
	switch p.curTok.Type {
	case lexer.TokenDouble:
		v := p.curTok.Num
		p.nextToken()
		return &ast.Double{Value: v}
	case lexer.TokenString:
		v := p.curTok.Str
		p.nextToken()
		return &ast.String{Value: v}
	case lexer.TokenTrue:
		p.nextToken()
		return &ast.Bool{Value: true}
	case lexer.TokenFalse:
		p.nextToken()
		return &ast.Bool{Value: false}
	case lexer.TokenNull:
		p.nextToken()
		return &ast.Null{}
	case lexer.TokenLParen:
		return p.parseParen()
	case lexer.TokenIdentifier:
		return p.parseIDStatement()
	default:
		p.errorf("expression not identified")
		return nil
	}
}

// getPrecedence implements the table from spec section 4.2, including
// precedence 2 for TokenAssign (assignment itself is consumed as a
// prefix form by parseIDStatement). Any token not listed here
// terminates the expression at -1.
func getPrecedence(tt lexer.TokenType) int {
	switch tt {
	case lexer.TokenAssign:
		return 2
	case lexer.TokenAnd, lexer.TokenOr:
		return 3
	case lexer.TokenEq, lexer.TokenNotEq, lexer.TokenLess, lexer.TokenGreater,
		lexer.TokenLessEq, lexer.TokenGreaterEq:
		return 5
	case lexer.TokenPlus, lexer.TokenMinus:
		return 10
	case lexer.TokenStar, lexer.TokenSlash:
		return 20
	default:
		return -1
	}
}

func toBinaryOp(tt lexer.TokenType) ast.BinaryOp {
	switch tt {
	case lexer.TokenPlus:
		return ast.OpAdd
	case lexer.TokenMinus:
		return ast.OpSub
	case lexer.TokenStar:
		return ast.OpMul
	case lexer.TokenSlash:
		return ast.OpDiv
	case lexer.TokenEq:
		return ast.OpEq
	case lexer.TokenNotEq:
		return ast.OpNe
	case lexer.TokenLess:
		return ast.OpLt
	case lexer.TokenGreater:
		return ast.OpGt
	case lexer.TokenLessEq:
		return ast.OpLe
	case lexer.TokenGreaterEq:
		return ast.OpGe
	case lexer.TokenAnd:
		return ast.OpAnd
	default:
		return ast.OpOr
	}
}

// parseOperation implements precedence climbing, ported from
// original_source/src/parser.cpp's OperationParser with one change:
// the RHS of each step is a unary (not a bare primary), since Cobalu's
// grammar adds unary operators that bind tighter than any infix one.
// The `PrecRHS+1` reparse bound is preserved exactly (spec section 9
// calls this out as a choice to keep, not revisit) and yields left
// associativity at equal precedence.
func (p *Parser) parseOperation(precLHS int, lhs ast.Node) ast.Node {
	for {
		precRHS := getPrecedence(p.curTok.Type)
		if precRHS < precLHS {
			return lhs
		}

		op := p.curTok.Type
		p.nextToken() // consume operator

		rhs := p.parseUnary()
		if rhs == nil {
			return nil
		}

		nextPrec := getPrecedence(p.curTok.Type)
		if precRHS < nextPrec {
			rhs = p.parseOperation(precRHS+1, rhs)
			if rhs == nil {
				return nil
			}
		}

		lhs = &ast.Operation{LHS: lhs, RHS: rhs, Op: toBinaryOp(op)}
	}
}
