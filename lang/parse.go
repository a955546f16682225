package lang

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"io"
	"log/slog"

	"github.com/expr-lang/expr/file"
	exprparser "github.com/expr-lang/expr/parser"

	"github.com/ardnew/clonelist/log"
)

// Parse parses the argument text of one invocation, the text between its
// parentheses:
//
//	[a, mut b, { s.Len() } as n], func() int { return a + b + n }
//
// Malformed input is reported as a [*SourceError] wrapping [ErrMalformed].
func Parse(ctx context.Context, args string, opts ...Option) (*Request, error) {
	cfg := makeConfig(opts...)

	p := &listParser{src: args, ctx: ctx, logger: cfg.logger, dialect: cfg.dialect}

	req, err := p.parseArgs()
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			se.Filename = cfg.filename
		}

		cfg.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	req.locate(origin{filename: cfg.filename, src: args})

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("bindings", len(req.Bindings)),
		slog.String("trailing", req.Trailing.Text))

	return req, nil
}

// ParseReader parses invocation arguments read from r.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return Parse(ctx, string(data), opts...)
}

// ParseInvocation parses text consisting of exactly one complete invocation,
// such as clone!([a], a + 1), optionally surrounded by white space.
func ParseInvocation(ctx context.Context, text string, opts ...Option) (*Request, error) {
	cfg := makeConfig(opts...)

	found, err := scanInvocations(text, cfg.macro)
	if err != nil {
		return nil, err
	}

	if len(found) != 1 || !isBlank(text[:found[0].start]) || !isBlank(text[found[0].end:]) {
		off := 0
		if len(found) > 0 && !isBlank(text[:found[0].start]) {
			off = found[0].start
		} else if len(found) > 0 {
			off = found[0].end
		}

		return nil, malformed(text, off, "expected a single %s!(...) invocation", cfg.macro)
	}

	inv := found[0]

	o := origin{filename: cfg.filename, src: text, base: inv.argStart}

	req, err := Parse(ctx, text[inv.argStart:inv.argEnd], opts...)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			return nil, se.relocate(o)
		}

		return nil, err
	}

	req.Type = inv.typ
	req.locate(o)

	return req, nil
}

type listParser struct {
	src     string
	ctx     context.Context
	logger  log.Logger
	dialect Dialect
}

func malformed(src string, off int, format string, args ...any) *SourceError {
	return ErrMalformed.Wrap(fmt.Errorf(format, args...)).At(src, off)
}

// parseArgs parses: ( '[' List ']' ',' )? Trailing ','?
//
// A leading '[' opens a list only when its matching ']' is followed by a
// comma; otherwise the whole text is the trailing expression.
func (p *listParser) parseArgs() (*Request, error) {
	lex, err := tokenize(p.src, p.dialect == DialectGo)
	if err != nil {
		return nil, err
	}

	req := new(Request)

	if len(lex) == 0 {
		return nil, malformed(p.src, len(p.src), "missing trailing expression")
	}

	rest := lex

	if lex[0].is(token.LBRACK) {
		end := closing(lex, 0)
		if end < 0 {
			return nil, malformed(p.src, lex[0].off, "unbalanced '['")
		}

		if end == len(lex)-1 {
			return nil, malformed(p.src, lex[end].end, "missing trailing expression after binding list")
		}

		if lex[end+1].is(token.COMMA) {
			req.Bindings, err = p.parseList(lex[1:end], lex[end])
			if err != nil {
				return nil, err
			}

			rest = lex[end+2:]
			if len(rest) == 0 {
				return nil, malformed(p.src, lex[end+1].end, "missing trailing expression")
			}
		}
	}

	req.Trailing, err = p.parseTrailing(rest)
	if err != nil {
		return nil, err
	}

	return req, nil
}

// parseList parses: ( Item ( ',' Item )* ','? )?
func (p *listParser) parseList(lex []lexeme, rbrack lexeme) ([]Binding, error) {
	if len(lex) == 0 {
		return nil, nil
	}

	parts, commas, bad := split(lex)
	if bad >= 0 {
		return nil, malformed(p.src, lex[bad].off, "unbalanced %q", lex[bad])
	}

	if n := len(parts); n > 1 && len(parts[n-1]) == 0 {
		parts = parts[:n-1]
	}

	bindings := make([]Binding, 0, len(parts))

	for i, part := range parts {
		if len(part) == 0 {
			off := rbrack.off
			if i < len(commas) {
				off = commas[i].off
			}

			if i == 0 {
				return nil, malformed(p.src, off, "unexpected ',' before first item")
			}

			return nil, malformed(p.src, off, "unexpected ',' between items")
		}

		b, err := p.parseItem(part)
		if err != nil {
			return nil, err
		}

		p.logger.TraceContext(p.ctx, "binding",
			slog.Int("index", i),
			slog.String("ident", b.Ident()),
			slog.Bool("mutable", b.Mutable),
			slog.Bool("alias", b.IsAlias()))

		bindings = append(bindings, b)
	}

	return bindings, nil
}

// parseItem parses one of:
//
//	'mut' '{' Expr '}' 'as' Ident
//	'mut' Ident
//	'{' Expr '}' 'as' Ident
//	Ident
func (p *listParser) parseItem(lex []lexeme) (Binding, error) {
	b := Binding{off: lex[0].off}

	rest := lex
	if rest[0].isIdent("mut") {
		b.Mutable = true
		rest = rest[1:]

		if len(rest) == 0 {
			return b, malformed(p.src, lex[0].end, "expected identifier or '{' after mut")
		}
	}

	switch {
	case rest[0].is(token.LBRACE):
		src, err := p.parseAlias(rest)
		if err != nil {
			return b, err
		}

		b.Source = src

	case rest[0].isIdent("as"):
		return b, malformed(p.src, rest[0].off, "'as' must follow a braced expression: { expr } as name")

	case rest[0].is(token.IDENT):
		if err := p.checkIdent(rest[0]); err != nil {
			return b, err
		}

		if len(rest) > 1 {
			if rest[1].isIdent("as") {
				return b, malformed(p.src, rest[1].off,
					"'as' must follow a braced expression: { %s } as name", rest[0].lit)
			}

			return b, malformed(p.src, rest[1].off,
				"unexpected %s after %s; separate items with ',' and write expressions as { expr } as name",
				rest[1], rest[0].lit)
		}

		b.Source = Name{Ident: rest[0].lit}

	default:
		return b, malformed(p.src, rest[0].off, "expected identifier or '{', found %s", rest[0])
	}

	return b, nil
}

// parseAlias parses: '{' Expr '}' 'as' Ident.
func (p *listParser) parseAlias(lex []lexeme) (Alias, error) {
	end := closing(lex, 0)
	if end < 0 {
		return Alias{}, malformed(p.src, lex[0].off, "unbalanced '{'")
	}

	inner := lex[1:end]
	if len(inner) == 0 {
		return Alias{}, malformed(p.src, lex[end].off, "empty expression in braces")
	}

	switch {
	case end+1 >= len(lex):
		return Alias{}, malformed(p.src, lex[end].end, "expected 'as' after braced expression")
	case !lex[end+1].isIdent("as"):
		return Alias{}, malformed(p.src, lex[end+1].off, "expected 'as' after braced expression, found %s", lex[end+1])
	case end+2 >= len(lex):
		return Alias{}, malformed(p.src, lex[end+1].end, "expected identifier after 'as'")
	}

	id := lex[end+2]
	if !id.is(token.IDENT) {
		return Alias{}, malformed(p.src, id.off, "expected identifier after 'as', found %s", id)
	}

	if err := p.checkIdent(id); err != nil {
		return Alias{}, err
	}

	if end+3 < len(lex) {
		return Alias{}, malformed(p.src, lex[end+3].off, "unexpected %s after %s", lex[end+3], id.lit)
	}

	x, err := p.parseExpr(inner)
	if err != nil {
		return Alias{}, err
	}

	return Alias{Expr: x, Ident: id.lit}, nil
}

// parseTrailing parses: Expr ','?
func (p *listParser) parseTrailing(lex []lexeme) (Expr, error) {
	if n := len(lex); n > 0 && lex[n-1].is(token.COMMA) {
		lex = lex[:n-1]
	}

	if len(lex) == 0 {
		return Expr{}, malformed(p.src, len(p.src), "missing trailing expression")
	}

	parts, commas, bad := split(lex)
	if bad >= 0 {
		return Expr{}, malformed(p.src, lex[bad].off, "unbalanced %q", lex[bad])
	}

	if len(parts) > 1 {
		return Expr{}, malformed(p.src, commas[0].off, "unexpected ',' after trailing expression")
	}

	return p.parseExpr(lex)
}

// parseExpr validates that lex spells a single expression of the parser's
// dialect and returns its verbatim text.
func (p *listParser) parseExpr(lex []lexeme) (Expr, error) {
	text := span(p.src, lex)
	base := lex[0].off

	if p.dialect == DialectExpr {
		if _, err := exprparser.Parse(text); err != nil {
			var fe *file.Error
			if errors.As(err, &fe) {
				return Expr{}, malformed(p.src, base+runeOffset(text, fe.From), "invalid expression: %s", fe.Message)
			}

			return Expr{}, malformed(p.src, base, "invalid expression: %v", err)
		}

		return Expr{Text: text, off: base}, nil
	}

	fset := token.NewFileSet()
	if _, err := parser.ParseExprFrom(fset, "", text, 0); err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			return Expr{}, malformed(p.src, base+list[0].Pos.Offset, "invalid expression: %s", list[0].Msg)
		}

		return Expr{}, malformed(p.src, base, "invalid expression: %v", err)
	}

	return Expr{Text: text, off: base}, nil
}

// runeOffset converts a count of runes from the start of s to a byte offset.
func runeOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}

		n--
	}

	return len(s)
}

var reserved = map[string]string{
	"mut": "'mut' is reserved",
	"as":  "'as' is reserved",
	"_":   "cannot bind the blank identifier",
}

func (p *listParser) checkIdent(l lexeme) error {
	if msg, ok := reserved[l.lit]; ok {
		return malformed(p.src, l.off, "%s", msg)
	}

	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}

	return true
}
