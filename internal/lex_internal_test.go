package internal

import (
	"bufio"
	"strings"
	"testing"
)

type lexResult struct {
	Kind  tokenKind
	Value string
}

func lexAll(src string) []token {
	ch := make(chan token)
	go lex(bufio.NewReader(strings.NewReader(src)), ch)
	var r []token
	for tok := range ch {
		r = append(r, tok)
	}
	return r
}

// TestLex tests that the lexer produces the correct tokens.
func TestLex(t *testing.T) {
	cases := map[string]struct {
		src  string
		toks []lexResult
	}{
		"empty": {"", nil},
		"space": {" \t ", nil},
		"ident": {"abc _x y1", []lexResult{{identToken, "abc"}, {identToken, "_x"}, {identToken, "y1"}}},
		"nfkc":  {"ﬁ", []lexResult{{identToken, "fi"}}},
		"ops": {"a+=b**-c//d", []lexResult{
			{identToken, "a"}, {opToken, "+="}, {identToken, "b"}, {opToken, "**"}, {opToken, "-"},
			{identToken, "c"}, {opToken, "//"}, {identToken, "d"},
		}},
		"longest": {"**= //= <<= >>= <= == != >", []lexResult{
			{opToken, "**="}, {opToken, "//="}, {opToken, "<<="}, {opToken, ">>="},
			{opToken, "<="}, {opToken, "=="}, {opToken, "!="}, {opToken, ">"},
		}},
		"numbers": {"1 2.5 .5 1e3 1.5e-2 1_000 0xFF", []lexResult{
			{numberToken, "1"}, {numberToken, "2.5"}, {numberToken, ".5"}, {numberToken, "1e3"},
			{numberToken, "1.5e-2"}, {numberToken, "1_000"}, {hexToken, "0xFF"},
		}},
		"strings": {`'a' "b" 'it\'s'`, []lexResult{{stringToken, "'a'"}, {stringToken, `"b"`}, {stringToken, `'it\'s'`}}},
		"brackets": {"([1, 2])", []lexResult{
			{openToken, "("}, {openToken, "["}, {numberToken, "1"}, {commaToken, ","},
			{numberToken, "2"}, {closeToken, "]"}, {closeToken, ")"},
		}},
		"statements": {"a;b\nc", []lexResult{
			{identToken, "a"}, {semiToken, ";"}, {identToken, "b"}, {semiToken, "\n"}, {identToken, "c"},
		}},
		"comment": {"a # b + c\nd", []lexResult{
			{identToken, "a"}, {commentToken, "# b + c"}, {semiToken, "\n"}, {identToken, "d"},
		}},
		"attr": {"a.b", []lexResult{{identToken, "a"}, {opToken, "."}, {identToken, "b"}}},
		"class": {"class A: x = 1", []lexResult{
			{identToken, "class"}, {identToken, "A"}, {opToken, ":"}, {identToken, "x"}, {opToken, "="}, {numberToken, "1"},
		}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			toks := lexAll(c.src)
			if len(toks) != len(c.toks) {
				t.Fatalf("wrong number of tokens: want %v, got %v", c.toks, toks)
			}
			for i, tok := range toks {
				if tok.Err != nil {
					t.Errorf("token %d has error %v", i, tok.Err)
				}
				if tok.Kind != c.toks[i].Kind || tok.Value != c.toks[i].Value {
					t.Errorf("wrong token %d: want %v %q, got %v %q", i, c.toks[i].Kind, c.toks[i].Value, tok.Kind, tok.Value)
				}
			}
		})
	}
}

// TestLexErrors tests that bad input ends in a bad token.
func TestLexErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated": "'abc",
		"newline":      "'ab\nc'",
		"character":    "a $ b",
		"bang":         "a ! b",
		"hex":          "12x3",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			toks := lexAll(src)
			if len(toks) == 0 {
				t.Fatal("no tokens")
			}
			last := toks[len(toks)-1]
			if last.Kind != badToken || last.Err == nil {
				t.Errorf("last token is %v %q, not an error", last.Kind, last.Value)
			}
		})
	}
}

// TestLexPositions tests token line and column numbers.
func TestLexPositions(t *testing.T) {
	toks := lexAll("ab + 1\n  c")
	want := [][2]int{{1, 1}, {1, 4}, {1, 6}, {1, 7}, {2, 3}}
	if len(toks) != len(want) {
		t.Fatalf("wrong tokens: %v", toks)
	}
	for i, tok := range toks {
		if tok.Line != want[i][0] || tok.Col != want[i][1] {
			t.Errorf("token %d %q at %d:%d, want %d:%d", i, tok.Value, tok.Line, tok.Col, want[i][0], want[i][1])
		}
	}
}
