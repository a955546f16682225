package lang

import (
	"go/scanner"
	"go/token"
	"strings"
)

// lexeme is one Go token of an invocation's argument text.
type lexeme struct {
	tok token.Token
	lit string
	off int // byte offset of the first character
	end int // byte offset just past the last character
}

func (l lexeme) is(tok token.Token) bool { return l.tok == tok }

func (l lexeme) isIdent(name string) bool {
	return l.tok == token.IDENT && l.lit == name
}

func (l lexeme) String() string {
	if l.lit != "" {
		return l.lit
	}

	return l.tok.String()
}

// tokenize splits src into Go tokens, dropping comments and the semicolons
// the scanner inserts at line ends. Unless strict, scanner errors are
// ignored and the offending text is returned as ILLEGAL or loose tokens,
// which is enough to find brackets and commas in other expression
// languages.
func tokenize(src string, strict bool) ([]lexeme, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var (
		s        scanner.Scanner
		firstErr *SourceError
	)

	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if strict && firstErr == nil {
			firstErr = malformed(src, pos.Offset, "%s", msg)
		}
	}, 0)

	var lex []lexeme

	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}

		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}

		off := file.Offset(pos)
		lex = append(lex, lexeme{tok: tok, lit: lit, off: off, end: tokenEnd(src, off, tok, lit)})
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return lex, nil
}

// tokenEnd locates the end of the token at off. Raw strings are measured in
// src because the scanner strips carriage returns from their literal.
func tokenEnd(src string, off int, tok token.Token, lit string) int {
	switch {
	case tok == token.STRING && strings.HasPrefix(lit, "`"):
		if i := strings.IndexByte(src[off+1:], '`'); i >= 0 {
			return off + i + 2
		}

		return len(src)
	case lit != "":
		return off + len(lit)
	default:
		return off + len(tok.String())
	}
}

// closing returns the index of the token that closes the bracket at
// lex[open], or -1.
func closing(lex []lexeme, open int) int {
	var stack []token.Token

	for i := open; i < len(lex); i++ {
		switch lex[i].tok {
		case token.LPAREN:
			stack = append(stack, token.RPAREN)
		case token.LBRACK:
			stack = append(stack, token.RBRACK)
		case token.LBRACE:
			stack = append(stack, token.RBRACE)
		case token.RPAREN, token.RBRACK, token.RBRACE:
			if len(stack) == 0 || stack[len(stack)-1] != lex[i].tok {
				return -1
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}

	return -1
}

// split divides lex at commas outside any brackets and returns the
// separating commas. bad is the index of the first unbalanced closing
// bracket, or -1.
func split(lex []lexeme) (parts [][]lexeme, commas []lexeme, bad int) {
	depth, start := 0, 0

	for i, l := range lex {
		switch l.tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
			if depth < 0 {
				return nil, nil, i
			}
		case token.COMMA:
			if depth == 0 {
				parts = append(parts, lex[start:i])
				commas = append(commas, l)
				start = i + 1
			}
		}
	}

	return append(parts, lex[start:]), commas, -1
}

// span returns the source text covered by lex.
func span(src string, lex []lexeme) string {
	if len(lex) == 0 {
		return ""
	}

	return src[lex[0].off:lex[len(lex)-1].end]
}
