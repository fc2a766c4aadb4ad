package internal

/*
This file is for converting lexer tokens into syntax trees. If you're looking
for operator precedence, check optable.go. Evaluation is in eval.go.
*/

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

// keywords cannot be used as names.
var keywords = map[string]bool{
	"lambda": true,
	"class":  true,
	"pass":   true,
}

// Program is a parsed source. Every operator in it owns a call site, so
// evaluating the same Program repeatedly lets those sites warm up. A Program
// must only be evaluated by the VM that parsed it or by its threads.
type Program struct {
	Label string
	stmts []node
	sites []*Site
}

// Sites returns the operator call sites of the program in source order.
func (p *Program) Sites() []*Site {
	return append([]*Site(nil), p.sites...)
}

type parser struct {
	vm     *VM
	label  string
	tokens chan token
	// tok is the lookahead token when has is set.
	tok token
	has bool
	// depth is the bracket nesting depth. Newlines inside brackets are
	// insignificant.
	depth int
	sites []*Site
}

// Parse converts source code into a program. label names the source in
// error messages and call-site labels.
func (vm *VM) Parse(source io.Reader, label string) (*Program, error) {
	src := bufio.NewReader(source)
	tokens := make(chan token)
	go lex(src, tokens)
	p := &parser{vm: vm, label: label, tokens: tokens}
	defer p.drain()
	prog := &Program{Label: label}
	for {
		tok := p.peek()
		switch tok.Kind {
		case eofToken:
			prog.sites = p.sites
			vm.sites.add(p.sites...)
			return prog, nil
		case semiToken:
			// empty statement
			p.next()
			continue
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.stmts = append(prog.stmts, s)
		switch tok := p.peek(); tok.Kind {
		case semiToken:
			p.next()
		case eofToken:
		default:
			return nil, p.unexpected(tok)
		}
	}
}

// drain consumes the rest of the tokens so the lexer can finish.
func (p *parser) drain() {
	for range p.tokens {
	}
}

func (p *parser) peek() token {
	if !p.has {
		p.tok = p.read()
		p.has = true
	}
	return p.tok
}

func (p *parser) read() token {
	for tok := range p.tokens {
		switch {
		case tok.Kind == commentToken:
			continue
		case tok.Kind == semiToken && tok.Value == "\n" && p.depth > 0:
			continue
		}
		return tok
	}
	return token{Kind: eofToken}
}

// next consumes the lookahead token.
func (p *parser) next() token {
	tok := p.peek()
	p.has = false
	switch tok.Kind {
	case openToken:
		p.depth++
	case closeToken:
		if p.depth > 0 {
			p.depth--
		}
	}
	return tok
}

func (p *parser) pos(tok token) string {
	return fmt.Sprintf("%s:%d:%d", p.label, tok.Line, tok.Col)
}

func (p *parser) errorf(tok token, format string, args ...interface{}) error {
	return p.vm.NewException(SyntaxError, "%s: %s", p.pos(tok), fmt.Sprintf(format, args...))
}

func (p *parser) unexpected(tok token) error {
	switch tok.Kind {
	case badToken:
		return p.errorf(tok, "%v", tok.Err)
	case eofToken:
		return p.errorf(tok, "unexpected end of input")
	}
	return p.errorf(tok, "unexpected %s %q", tok.Kind, tok.Value)
}

func (p *parser) isOp(tok token, op string) bool {
	return tok.Kind == opToken && tok.Value == op
}

func (p *parser) expectOp(op string) error {
	tok := p.next()
	if !p.isOp(tok, op) {
		return p.errorf(tok, "expected '%s'", op)
	}
	return nil
}

func (p *parser) name() (string, error) {
	tok := p.next()
	if tok.Kind != identToken || keywords[tok.Value] {
		return "", p.unexpected(tok)
	}
	return tok.Value, nil
}

// site creates the call site for an operator token.
func (p *parser) site(tok token, symbol string, kind SiteKind) (*Site, error) {
	op := p.vm.Ops.Lookup(symbol)
	if op == nil {
		return nil, p.errorf(tok, "operator %s is not configured", symbol)
	}
	s := newSite(op, kind, p.pos(tok))
	p.sites = append(p.sites, s)
	return s, nil
}

func (p *parser) statement() (node, error) {
	if tok := p.peek(); tok.Kind == identToken && tok.Value == "class" {
		return p.class()
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.Kind != opToken {
		return x, nil
	}
	if tok.Value == "=" {
		p.next()
		if err := p.assignable(tok, x); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &assignNode{target: x, value: v}, nil
	}
	if sym, ok := augmented[tok.Value]; ok {
		p.next()
		if err := p.assignable(tok, x); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		s, err := p.site(tok, sym, InplaceSite)
		if err != nil {
			return nil, err
		}
		return &augNode{target: x, value: v, site: s}, nil
	}
	return x, nil
}

func (p *parser) assignable(tok token, x node) error {
	switch x := x.(type) {
	case *nameNode:
		switch x.name {
		case "None", "True", "False", "NotImplemented":
			return p.errorf(tok, "cannot assign to %s", x.name)
		}
		return nil
	case *attrNode:
		return nil
	}
	return p.errorf(tok, "cannot assign to expression")
}

// class parses a class statement:
//
//	class Name(Base, ...): attr = expr; attr = expr
func (p *parser) class() (node, error) {
	p.next()
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	n := &classNode{name: name}
	if tok := p.peek(); tok.Kind == openToken && tok.Value == "(" {
		p.next()
		if n.bases, _, err = p.list(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind == identToken && tok.Value == "pass" {
		p.next()
		return n, nil
	}
	for {
		attr, err := p.name()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		n.attrs = append(n.attrs, classAttr{name: attr, value: v})
		tok := p.peek()
		if tok.Kind != semiToken || tok.Value != ";" {
			return n, nil
		}
		p.next()
		if tok := p.peek(); tok.Kind == semiToken || tok.Kind == eofToken {
			return n, nil
		}
	}
}

func (p *parser) expression() (node, error) {
	if tok := p.peek(); tok.Kind == identToken && tok.Value == "lambda" {
		return p.lambda()
	}
	return p.binary(1)
}

func (p *parser) lambda() (node, error) {
	p.next()
	n := &lambdaNode{}
	seen := make(map[string]bool)
	for !p.isOp(p.peek(), ":") {
		if len(n.params) > 0 {
			if tok := p.next(); tok.Kind != commaToken {
				return nil, p.unexpected(tok)
			}
		}
		tok := p.peek()
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, p.errorf(tok, "duplicate argument '%s' in function definition", name)
		}
		seen[name] = true
		n.params = append(n.params, name)
	}
	p.next()
	body, err := p.expression()
	if err != nil {
		return nil, err
	}
	n.body = body
	return n, nil
}

// binary parses a chain of binary operators binding at least as tightly as
// min.
func (p *parser) binary(min int) (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Kind != opToken {
			return left, nil
		}
		prec, ok := binaryPrec[tok.Value]
		if !ok || prec.Prec < min {
			return left, nil
		}
		p.next()
		next := prec.Prec + 1
		if prec.Right {
			next = prec.Prec
		}
		right, err := p.binary(next)
		if err != nil {
			return nil, err
		}
		s, err := p.site(tok, tok.Value, BinarySite)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{site: s, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	if tok := p.peek(); p.isOp(tok, "-") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &negNode{x: x}, nil
	}
	return p.power()
}

// power parses primary ['**' unary]. The right operand of ** binds more
// tightly than a unary minus on the left, so -2**2 is -(2**2).
func (p *parser) power() (node, error) {
	x, err := p.postfix()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if !p.isOp(tok, "**") {
		return x, nil
	}
	p.next()
	y, err := p.unary()
	if err != nil {
		return nil, err
	}
	s, err := p.site(tok, "**", BinarySite)
	if err != nil {
		return nil, err
	}
	return &binaryNode{site: s, left: x, right: y}, nil
}

func (p *parser) postfix() (node, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.Kind == openToken && tok.Value == "(":
			p.next()
			args, _, err := p.list(")")
			if err != nil {
				return nil, err
			}
			x = &callNode{fn: x, args: args, label: p.pos(tok)}
		case p.isOp(tok, "."):
			p.next()
			name, err := p.name()
			if err != nil {
				return nil, err
			}
			x = &attrNode{x: x, name: name}
		default:
			return x, nil
		}
	}
}

// list parses comma-separated expressions up to and including the close
// bracket. comma reports whether the last expression was followed by a
// comma.
func (p *parser) list(close string) (xs []node, comma bool, err error) {
	for {
		if tok := p.peek(); tok.Kind == closeToken {
			p.next()
			if tok.Value != close {
				return nil, false, p.errorf(tok, "expected '%s', got '%s'", close, tok.Value)
			}
			return xs, comma, nil
		}
		x, err := p.expression()
		if err != nil {
			return nil, false, err
		}
		xs = append(xs, x)
		comma = false
		switch tok := p.peek(); tok.Kind {
		case commaToken:
			p.next()
			comma = true
		case closeToken:
		default:
			return nil, false, p.unexpected(tok)
		}
	}
}

func (p *parser) atom() (node, error) {
	tok := p.next()
	switch tok.Kind {
	case numberToken, hexToken:
		return p.number(tok)
	case stringToken:
		s, err := unquote(tok.Value)
		if err != nil {
			return nil, p.errorf(tok, "%v", err)
		}
		return &constNode{v: p.vm.NewStr(s)}, nil
	case identToken:
		if keywords[tok.Value] {
			return nil, p.unexpected(tok)
		}
		return &nameNode{name: tok.Value}, nil
	case openToken:
		switch tok.Value {
		case "(":
			xs, comma, err := p.list(")")
			if err != nil {
				return nil, err
			}
			if len(xs) == 1 && !comma {
				return xs[0], nil
			}
			return &seqNode{elems: xs, tuple: true}, nil
		case "[":
			xs, _, err := p.list("]")
			if err != nil {
				return nil, err
			}
			return &seqNode{elems: xs}, nil
		}
	}
	return nil, p.unexpected(tok)
}

func (p *parser) number(tok token) (node, error) {
	v := strings.ReplaceAll(tok.Value, "_", "")
	if tok.Kind == numberToken && strings.ContainsAny(v, ".eE") {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil && !isRangeError(err) {
			return nil, p.errorf(tok, "invalid float literal %s", tok.Value)
		}
		return &constNode{v: p.vm.NewFloat(f)}, nil
	}
	base := 10
	if tok.Kind == hexToken {
		base = 0
	}
	x, ok := new(big.Int).SetString(v, base)
	if !ok {
		return nil, p.errorf(tok, "invalid integer literal %s", tok.Value)
	}
	return &constNode{v: p.vm.NewBigInt(x)}, nil
}

// unquote interprets a quoted string literal, including its quotes.
func unquote(s string) (string, error) {
	s = s[1 : len(s)-1]
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash in string literal")
		}
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(c)
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
			if i+n >= len(s) {
				return "", fmt.Errorf("truncated \\%c escape", c)
			}
			r, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\%c escape", c)
			}
			b.WriteRune(rune(r))
			i += n
		default:
			// Unknown escapes are kept as written.
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
