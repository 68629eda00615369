// Package syntax is the recursive-descent/precedence-climbing parser
// that tokenizes via internal/lexer and drives a parser.Driver,
// playing the role of the "external lexer/parser" the core engine
// deliberately declines to own. Operator precedence, lowest to
// highest:
//
//	?:  (ternary, right-associative)
//	||  OR
//	&&  AND
//	in
//	==  !=  <  <=  >  >=
//	+   -
//	*   /   %
//	unary !  unary -  (cast)
//	.attr  [index]
//	$fact  literal  (expr)  container -> local ? predicate
package syntax

import (
	"strconv"

	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/internal/lexer"
	"github.com/silvergrid/formula/parser"
)

const (
	LOWEST int = iota
	TERNARY
	LOGIC_OR
	LOGIC_AND
	MEMBERSHIP
	EQUALS
	SUM
	PRODUCT
	PREFIX
	POSTFIX
)

var precedences = map[lexer.TokenType]int{
	lexer.OR_OR:      LOGIC_OR,
	lexer.OR:         LOGIC_OR,
	lexer.AND_AND:    LOGIC_AND,
	lexer.AND:        LOGIC_AND,
	lexer.IN:         MEMBERSHIP,
	lexer.EQ_EQ:      EQUALS,
	lexer.NOT_EQ:     EQUALS,
	lexer.LESS:       EQUALS,
	lexer.LESS_EQ:    EQUALS,
	lexer.GREATER:    EQUALS,
	lexer.GREATER_EQ: EQUALS,
	lexer.PLUS:       SUM,
	lexer.MINUS:      SUM,
	lexer.ASTERISK:   PRODUCT,
	lexer.SLASH:      PRODUCT,
	lexer.PERCENT:    PRODUCT,
	lexer.DOT:        POSTFIX,
	lexer.LBRACK:     POSTFIX,
	lexer.ARROW:      POSTFIX,
}

func precedenceOf(t lexer.TokenType) int {
	if p, ok := precedences[t]; ok {
		return p
	}
	return LOWEST
}

// Parser wraps a lexer and a parser.Driver, translating a token
// stream into the Node tree the driver builds.
type Parser struct {
	l      *lexer.Lexer
	d      *parser.Driver
	source string
	cur    lexer.Token
	peek   lexer.Token
}

// New builds a Parser over source, driving d.
func New(source string, d *parser.Driver) *Parser {
	p := &Parser{l: lexer.New(source), d: d, source: source}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

// errorAt builds a ParseFailed FormulaError pointing at pos, carrying
// the source text so Error() renders the offending line with a caret.
func (p *Parser) errorAt(pos lexer.Position, format string, args ...any) error {
	return errors.NewAt(errors.ParseFailed,
		errors.Position{Line: pos.Line, Column: pos.Column, Offset: pos.Offset},
		p.source, format, args...)
}

// Parse parses source as a single expression, returning the root Node
// the driver built. Only the first error is returned: a syntax or
// driver error if one stops the parse, otherwise the first lexical
// error as ParseFailed; a non-nil Node is never returned alongside a
// non-nil error.
func Parse(source string, d *parser.Driver) (expr.Node, error) {
	p := New(source, d)
	n, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	for _, le := range p.l.Errors() {
		return nil, p.errorAt(le.Pos, "%s", le.Message)
	}
	if p.cur.Type != lexer.EOF {
		return nil, p.errorAt(p.cur.Pos, "unexpected trailing token %q", p.cur.Literal)
	}
	return n, nil
}

func (p *Parser) parseExpression(precedence int) (expr.Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for precedence < precedenceOf(p.cur.Type) {
		switch p.cur.Type {
		case lexer.DOT:
			left, err = p.parseAttributeOrContinue(left)
		case lexer.LBRACK:
			left, err = p.parseIndex(left)
		case lexer.ARROW:
			left, err = p.parseArrow(left)
		default:
			left, err = p.parseInfix(left)
		}
		if err != nil {
			return nil, err
		}
	}

	// <= (not <) lets a ternary nest directly inside another ternary's
	// branches without parentheses, giving the usual right-associative
	// chain for `cond ? a : cond2 ? b : c`.
	if p.cur.Type == lexer.QUESTION && precedence <= TERNARY {
		return p.parseTernary(left)
	}

	return left, nil
}

func (p *Parser) parsePrefix() (expr.Node, error) {
	switch p.cur.Type {
	case lexer.INT:
		v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			return nil, p.errorAt(p.cur.Pos, "invalid integer literal %q", p.cur.Literal)
		}
		p.advance()
		return p.d.OnConstant(expr.IntValue(v))
	case lexer.FLOAT:
		v, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorAt(p.cur.Pos, "invalid float literal %q", p.cur.Literal)
		}
		p.advance()
		return p.d.OnConstant(expr.DoubleValue(v))
	case lexer.STRING:
		v := p.cur.Literal
		p.advance()
		return p.d.OnConstant(expr.StringValue(v))
	case lexer.TRUE:
		p.advance()
		return p.d.OnConstant(expr.BoolValue(true))
	case lexer.FALSE:
		p.advance()
		return p.d.OnConstant(expr.BoolValue(false))
	case lexer.DOLLAR:
		p.advance()
		if p.cur.Type != lexer.IDENT {
			return nil, p.errorAt(p.cur.Pos, "expected identifier after '$'")
		}
		name := p.cur.Literal
		p.advance()
		return p.d.OnFact(name)
	case lexer.BANG:
		p.advance()
		child, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return p.d.OnUnary("!", child)
	case lexer.MINUS:
		p.advance()
		child, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return p.d.OnUnary("-", child)
	case lexer.LPAREN:
		return p.parseParenOrCast()
	default:
		return nil, p.errorAt(p.cur.Pos, "unexpected token %s", p.cur.Type)
	}
}

// parseParenOrCast disambiguates `(expr)` from a cast `(typename)expr`
// by lookahead: a cast is exactly IDENT followed by RPAREN followed
// by a token that can start an expression.
func (p *Parser) parseParenOrCast() (expr.Node, error) {
	if p.peek.Type == lexer.IDENT {
		save := *p.l
		savedCur, savedPeek := p.cur, p.peek
		p.advance() // consume '('
		typeName := p.cur.Literal
		p.advance() // consume IDENT
		if p.cur.Type == lexer.RPAREN {
			p.advance() // consume ')'
			child, err := p.parseExpression(PREFIX)
			if err == nil {
				return p.d.OnCast(typeName, child)
			}
		}
		*p.l = save
		p.cur, p.peek = savedCur, savedPeek
	}

	p.advance() // consume '('
	inner, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.RPAREN {
		return nil, p.errorAt(p.cur.Pos, "expected ')'")
	}
	p.advance()
	return inner, nil
}

func (p *Parser) parseAttributeOrContinue(left expr.Node) (expr.Node, error) {
	p.advance() // consume '.'
	if p.cur.Type != lexer.IDENT {
		return nil, p.errorAt(p.cur.Pos, "expected attribute name after '.'")
	}
	name := p.cur.Literal
	p.advance()
	return p.d.OnAttribute(left, name)
}

func (p *Parser) parseIndex(left expr.Node) (expr.Node, error) {
	p.advance() // consume '['
	idx, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.RBRACK {
		return nil, p.errorAt(p.cur.Pos, "expected ']'")
	}
	p.advance()
	return p.d.OnBinary("[]", left, idx)
}

func (p *Parser) parseInfix(left expr.Node) (expr.Node, error) {
	op := p.cur
	prec := precedenceOf(op.Type)
	p.advance()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return p.d.OnBinary(symbolOf(op.Type), left, right)
}

func symbolOf(t lexer.TokenType) string {
	switch t {
	case lexer.AND_AND, lexer.AND:
		return "&&"
	case lexer.OR_OR, lexer.OR:
		return "||"
	case lexer.IN:
		return "in"
	default:
		return t.String()
	}
}

func (p *Parser) parseTernary(cond expr.Node) (expr.Node, error) {
	p.advance() // consume '?'
	then, err := p.parseExpression(TERNARY)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.COLON {
		return nil, p.errorAt(p.cur.Pos, "expected ':' in ternary")
	}
	p.advance() // consume ':'
	els, err := p.parseExpression(TERNARY)
	if err != nil {
		return nil, err
	}
	return p.d.OnChoice(cond, then, els)
}

// parseArrow handles `container -> local ? predicate`. The local name
// is bound via DeclareLocal before the predicate is parsed and popped
// immediately after, so a reference to it inside predicate resolves
// through the driver's local-overlay lookup.
func (p *Parser) parseArrow(container expr.Node) (expr.Node, error) {
	p.advance() // consume '->'
	if p.cur.Type != lexer.IDENT {
		return nil, p.errorAt(p.cur.Pos, "expected local variable name after '->'")
	}
	localName := p.cur.Literal
	p.advance()
	if p.cur.Type != lexer.QUESTION {
		return nil, p.errorAt(p.cur.Pos, "expected '?' after arrow local name")
	}
	p.advance() // consume '?'

	slot, _, err := p.d.DeclareLocal(container.TypeID(), "->", localName)
	if err != nil {
		return nil, err
	}
	predicate, err := p.parseExpression(TERNARY)
	p.d.PopLocal()
	if err != nil {
		return nil, err
	}
	return p.d.OnArrow("->", container, predicate, slot, localName)
}

