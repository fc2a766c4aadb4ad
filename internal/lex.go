package internal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// A token is a single lexical element.
type token struct {
	Kind  tokenKind
	Value string
	Err   error

	Line, Col int
}

type tokenKind int

const (
	badToken tokenKind = iota

	semiToken    // semicolon and newline
	identToken   // identifier or keyword
	opToken      // operator or punctuation
	openToken    // open bracket: (, [
	closeToken   // close bracket: ), ]
	commaToken   // comma
	numberToken  // number
	hexToken     // hexadecimal number
	stringToken  // 'string' or "string"
	commentToken // # comment
	eofToken     // end of input
)

func (k tokenKind) String() string {
	switch k {
	case semiToken:
		return "end of statement"
	case identToken:
		return "name"
	case opToken:
		return "operator"
	case openToken:
		return "open bracket"
	case closeToken:
		return "close bracket"
	case commaToken:
		return "comma"
	case numberToken, hexToken:
		return "number"
	case stringToken:
		return "string"
	case commentToken:
		return "comment"
	case eofToken:
		return "end of input"
	}
	return "bad token"
}

// operators lists every operator and punctuation token. The lexer takes the
// longest one that matches.
var operators = map[string]bool{
	"+": true, "-": true, "*": true, "**": true, "/": true, "//": true,
	"%": true, "@": true, "<<": true, ">>": true, "&": true, "^": true,
	"|": true, "==": true, "!=": true, "<": true, "<=": true, ">": true,
	">=": true, "=": true, ":": true, ".": true,
	"+=": true, "-=": true, "*=": true, "**=": true, "/=": true, "//=": true,
	"%=": true, "@=": true, "<<=": true, ">>=": true, "&=": true, "^=": true,
	"|=": true,
}

// lexFn is a lexer state function. Each lexFn lexes a token, sends it on the
// supplied channel, and returns the next lexFn to use.
type lexFn func(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int)

// lex converts a source into a stream of tokens.
func lex(src *bufio.Reader, tokens chan<- token) {
	state := eatSpace
	line, col := 1, 1
	for state != nil {
		state, line, col = state(src, tokens, line, col)
	}
	close(tokens)
}

// accept appends the next run of characters in src which satisfy the predicate
// to b. Returns b after appending, the first rune which did not satisfy the
// predicate, and any error that occurred. If there was no such error, the
// last rune is unread.
func accept(src *bufio.Reader, predicate func(rune) bool, b []byte) ([]byte, rune, error) {
	r, _, err := src.ReadRune()
	for {
		if err != nil {
			return b, r, err
		}
		if !predicate(r) {
			break
		}
		b = append(b, string(r)...)
		r, _, err = src.ReadRune()
	}
	src.UnreadRune()
	return b, r, nil
}

// lexsend is a shortcut for sending a token with error checking. It returns
// eatSpace as the default lexing function.
func lexsend(err error, tokens chan<- token, good token) lexFn {
	if err != nil && err != io.EOF {
		good.Kind = badToken
		good.Err = err
	}
	tokens <- good
	if err != nil {
		return nil
	}
	return eatSpace
}

func isIdentStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_' || r >= 0x80 && unicode.IsLetter(r)
}

// eatSpace consumes space and decides the next lexFn to use.
func eatSpace(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int) {
	eaten, r, err := accept(src, func(r rune) bool { return strings.ContainsRune(" \r\f\t\v", r) }, nil)
	col += len(eaten)
	if err != nil {
		if err != io.EOF {
			tokens <- token{
				Kind:  badToken,
				Value: string(r),
				Err:   err,
			}
		}
		return nil, line, col
	}
	switch {
	case r == ';', r == '\n':
		src.ReadRune()
		tokens <- token{
			Kind:  semiToken,
			Value: string(r),
			Line:  line,
			Col:   col,
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		return eatSpace, line, col
	case isIdentStart(r):
		return lexIdent, line, col
	case strings.ContainsRune("([", r):
		src.ReadRune()
		tokens <- token{
			Kind:  openToken,
			Value: string(r),
			Line:  line,
			Col:   col,
		}
		col++
		return eatSpace, line, col
	case strings.ContainsRune(")]", r):
		src.ReadRune()
		tokens <- token{
			Kind:  closeToken,
			Value: string(r),
			Line:  line,
			Col:   col,
		}
		col++
		return eatSpace, line, col
	case r == ',':
		src.ReadRune()
		tokens <- token{
			Kind:  commaToken,
			Value: ",",
			Line:  line,
			Col:   col,
		}
		col++
		return eatSpace, line, col
	case '0' <= r && r <= '9':
		return lexNumber, line, col
	case r == '.':
		// . can be either a number or attribute access.
		peek, _ := src.Peek(2)
		if len(peek) > 1 && '0' <= peek[1] && peek[1] <= '9' {
			return lexNumber, line, col
		}
		return lexOp, line, col
	case r == '"', r == '\'':
		return lexString, line, col
	case r == '#':
		return lexHashComment, line, col
	case strings.ContainsRune("+-*/%@<>&^|=!:", r):
		return lexOp, line, col
	}
	tokens <- token{
		Kind:  badToken,
		Value: string(r),
		Err:   fmt.Errorf("invalid character %q", r),
		Line:  line,
		Col:   col,
	}
	return nil, line, col
}

// lexIdent lexes an identifier, which consists of letters, digits, and _.
// Identifiers are compared in NFKC form.
func lexIdent(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int) {
	b, _, err := accept(src, func(r rune) bool {
		return isIdentStart(r) || '0' <= r && r <= '9' || r >= 0x80 && unicode.IsDigit(r)
	}, nil)
	ncol := col + len([]rune(string(b)))
	return lexsend(err, tokens, token{Kind: identToken, Value: norm.NFKC.String(string(b)), Line: line, Col: col}), line, ncol
}

// lexOp lexes the longest operator at the start of src.
func lexOp(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int) {
	peek, _ := src.Peek(3)
	n := len(peek)
	for ; n > 0; n-- {
		if operators[string(peek[:n])] {
			break
		}
	}
	if n == 0 {
		r, _, _ := src.ReadRune()
		tokens <- token{Kind: badToken, Value: string(r), Err: fmt.Errorf("invalid character %q", r), Line: line, Col: col}
		return nil, line, col
	}
	op := string(peek[:n])
	src.Discard(n)
	tokens <- token{Kind: opToken, Value: op, Line: line, Col: col}
	return eatSpace, line, col + n
}

// lexHashComment lexes a # comment.
func lexHashComment(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int) {
	b, _, err := accept(src, func(r rune) bool { return r != '\n' }, nil)
	ncol := col + len(b)
	return lexsend(err, tokens, token{Kind: commentToken, Value: string(b), Line: line, Col: col}), line, ncol
}

// lexNumber lexes a number.
func lexNumber(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int) {
	digit := func(r rune) bool { return '0' <= r && r <= '9' || r == '_' }
	b, r, err := accept(src, digit, nil)
	ncol := col + len(b)
	if err != nil {
		return lexsend(err, tokens, token{Kind: numberToken, Value: string(b), Line: line, Col: col}), line, ncol
	}
	prelen := len(b)
	if r == 'x' || r == 'X' {
		if len(b) != 1 || b[0] != '0' {
			tokens <- token{Kind: badToken, Value: string(b), Err: fmt.Errorf("invalid numeric literal %s%c", b, r), Line: line, Col: col}
			return nil, line, ncol
		}
		b = append(b, 'x')
		src.ReadRune()
		b, _, err = accept(src, func(r rune) bool {
			return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F') || r == '_'
		}, b)
		ncol += len(b) - prelen
		return lexsend(err, tokens, token{Kind: hexToken, Value: string(b), Line: line, Col: col}), line, ncol
	}
	if r == '.' {
		b = append(b, '.')
		src.ReadRune()
		b, r, err = accept(src, digit, b)
		ncol += len(b) - prelen
		if err != nil {
			return lexsend(err, tokens, token{Kind: numberToken, Value: string(b), Line: line, Col: col}), line, ncol
		}
		prelen = len(b)
	}
	if r == 'e' || r == 'E' {
		src.ReadRune()
		b = append(b, 'e')
		peek, _ := src.Peek(1)
		if len(peek) == 1 && (peek[0] == '-' || peek[0] == '+') {
			src.ReadByte()
			b = append(b, peek[0])
		}
		b, _, err = accept(src, digit, b)
		ncol += len(b) - prelen
	}
	return lexsend(err, tokens, token{Kind: numberToken, Value: string(b), Line: line, Col: col}), line, ncol
}

// lexString lexes a string quoted with ' or ".
func lexString(src *bufio.Reader, tokens chan<- token, line, col int) (lexFn, int, int) {
	q, _, _ := src.ReadRune()
	b := []byte{byte(q)}
	ncol := col + 1
	ps := false
	for {
		r, _, err := src.ReadRune()
		if err != nil || r == '\n' {
			if err == nil || err == io.EOF {
				err = fmt.Errorf("unterminated string literal")
			}
			tokens <- token{
				Kind:  badToken,
				Value: string(b),
				Err:   err,
				Line:  line,
				Col:   col,
			}
			return nil, line, ncol
		}
		ncol++
		b = append(b, string(r)...)
		if r == '\\' {
			ps = !ps
		} else if r == q && !ps {
			return lexsend(err, tokens, token{Kind: stringToken, Value: string(b), Line: line, Col: col}), line, ncol
		} else {
			ps = false
		}
	}
}
