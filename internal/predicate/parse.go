package predicate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/sibyl/internal/answer"
)

// ParseError reports a syntax error with its byte offset in the input.
type ParseError struct {
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("predicate syntax error at offset %d: %s", e.Offset, e.Message)
}

// Parse compiles the text form of a predicate into an expression tree.
//
// Grammar (loosest binding first):
//
//	expr    := and { "or" and }
//	and     := unary { "and" unary }
//	unary   := "not" unary | "(" expr ")" | "true" | "false" | cmp
//	cmp     := question op literal
//	op      := == | != | < | <= | > | >=
//	literal := "string" | integer | double | true | false
//
// Question identifiers match [A-Za-z_][A-Za-z0-9_.-]* and must not be
// one of the keywords and/or/not/true/false.
func Parse(input string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected %q after expression", p.peek().text)
	}
	return e, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++

		case c == '"':
			end, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, input[i:end], i})
			i = end

		case c == '=' || c == '!' || c == '<' || c == '>':
			start := i
			i++
			if i < len(input) && input[i] == '=' {
				i++
			}
			op := input[start:i]
			if op == "=" || op == "!" {
				return nil, &ParseError{Offset: start, Message: fmt.Sprintf("incomplete operator %q", op)}
			}
			toks = append(toks, token{tokOp, op, start})

		case c >= '0' && c <= '9' || c == '-' && i+1 < len(input) && input[i+1] >= '0' && input[i+1] <= '9':
			start := i
			i++
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.' ||
				input[i] == 'e' || input[i] == 'E' ||
				(input[i] == '-' || input[i] == '+') && (input[i-1] == 'e' || input[i-1] == 'E')) {
				i++
			}
			toks = append(toks, token{tokNumber, input[start:i], start})

		case isIdentStart(rune(c)):
			start := i
			for i < len(input) && isIdentPart(rune(input[i])) {
				i++
			}
			toks = append(toks, token{tokIdent, input[start:i], start})

		default:
			return nil, &ParseError{Offset: i, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{tokEOF, "", len(input)})
	return toks, nil
}

func scanString(input string, start int) (int, error) {
	i := start + 1 // past opening quote
	for i < len(input) {
		switch input[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1, nil
		default:
			i++
		}
	}
	return 0, &ParseError{Offset: start, Message: "unterminated string literal"}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool { return p.peek().kind == tokEOF }

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Offset: p.peek().offset, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "and" {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokLParen:
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, p.errorf("expected ')'")
		}
		p.next()
		return e, nil

	case t.kind == tokIdent && t.text == "not":
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Expr: e}, nil

	case t.kind == tokIdent && t.text == "true":
		p.next()
		return True, nil

	case t.kind == tokIdent && t.text == "false":
		p.next()
		return False, nil

	case t.kind == tokIdent:
		return p.parseComparison()

	default:
		return nil, p.errorf("expected predicate, got %q", t.text)
	}
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "true": true, "false": true,
}

func (p *parser) parseComparison() (Expr, error) {
	ident := p.next()
	if keywords[ident.text] {
		return nil, &ParseError{Offset: ident.offset, Message: fmt.Sprintf("%q is a reserved word", ident.text)}
	}

	opTok := p.peek()
	if opTok.kind != tokOp {
		return nil, p.errorf("expected comparison operator after %q", ident.text)
	}
	p.next()
	op := Op(opTok.text)
	if !ValidOp(op) {
		return nil, &ParseError{Offset: opTok.offset, Message: fmt.Sprintf("unknown operator %q", opTok.text)}
	}

	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return Comparison{Question: ident.text, Op: op, Value: lit}, nil
}

// parseLiteral consumes an answer literal: a quoted string, a number
// (integer or double), or a bare true/false.
func (p *parser) parseLiteral() (answer.Answer, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.next()
		s, err := strconv.Unquote(t.text)
		if err != nil {
			return nil, &ParseError{Offset: t.offset, Message: fmt.Sprintf("invalid string literal %s", t.text)}
		}
		return answer.String(s), nil

	case tokNumber:
		p.next()
		return ParseNumber(t.text, t.offset)

	case tokIdent:
		switch t.text {
		case "true":
			p.next()
			return answer.Bool(true), nil
		case "false":
			p.next()
			return answer.Bool(false), nil
		}
	}
	return nil, p.errorf("expected literal value, got %q", t.text)
}

// ParseNumber parses a numeric literal: integers become Int, anything
// with a fraction or exponent becomes Double. Shared with the rule-file
// parser, which uses the same literal syntax.
func ParseNumber(text string, offset int) (answer.Answer, error) {
	if strings.ContainsAny(text, ".eE") {
		d, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &ParseError{Offset: offset, Message: fmt.Sprintf("invalid number %q", text)}
		}
		return answer.Double(d), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &ParseError{Offset: offset, Message: fmt.Sprintf("integer out of range: %q", text)}
	}
	return answer.Int(n), nil
}

// ParseLiteralText parses a standalone answer literal in predicate
// syntax. Used by the rule-file parser for right-hand sides.
func ParseLiteralText(text string) (answer.Answer, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected %q after literal", p.peek().text)
	}
	return lit, nil
}
