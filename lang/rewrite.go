package lang

import (
	"bytes"
	"context"
	"errors"
	"go/format"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/imports"
)

// Invocation is one expanded occurrence of the macro in a source file.
type Invocation struct {
	Request *Request
	Result  *Result
	// Pos is the location of the macro name.
	Pos Position
	// Text is the invocation as written.
	Text string
}

// File is a rewritten Go source file.
type File struct {
	Name string
	// Source is the formatted file with every invocation expanded. It is
	// the input unchanged when the file has no invocations.
	Source      []byte
	Invocations []*Invocation
}

// Rewrite expands every invocation in the Go source src, adds the import
// the expansions need, and formats the result with gofmt. Invocations may
// be nested; inner ones are expanded first.
//
// Strings, runes, and comments are never searched. The first malformed or
// unterminated invocation fails the whole file.
func Rewrite(ctx context.Context, name string, src []byte, opts ...Option) (*File, error) {
	cfg := makeConfig(opts...)
	cfg.filename = name

	logger := cfg.logger.With(slog.String("file", name))
	cfg.logger = logger

	text := string(src)

	out, _, invs, err := expandText(ctx, cfg, text, origin{filename: name, src: text})
	if err != nil {
		logger.DebugContext(ctx, "rewrite failed", slog.Any("error", err))

		return nil, err
	}

	f := &File{Name: name, Source: src, Invocations: invs}
	if len(invs) == 0 {
		logger.TraceContext(ctx, "no invocations")

		return f, nil
	}

	f.Source, err = finish(name, out, invs)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "rewrote file", slog.Int("invocations", len(invs)))

	return f, nil
}

// Scan parses and expands every invocation in src like [Rewrite] but leaves
// the file itself alone. Nested invocations are reported before the
// invocation that contains them.
func Scan(ctx context.Context, name string, src []byte, opts ...Option) ([]*Invocation, error) {
	cfg := makeConfig(opts...)
	cfg.filename = name
	cfg.logger = cfg.logger.With(slog.String("file", name))

	text := string(src)

	_, _, invs, err := expandText(ctx, cfg, text, origin{filename: name, src: text})
	if err != nil {
		return nil, err
	}

	return invs, nil
}

// expandText replaces every invocation in text, which begins at o.base
// within o.src, with its expansion. It returns the new text, the edits
// made, and the invocations expanded, innermost first.
func expandText(ctx context.Context, cfg config, text string, o origin) (string, []edit, []*Invocation, error) {
	sites, err := scanInvocations(text, cfg.macro)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			return "", nil, nil, se.relocate(o)
		}

		return "", nil, nil, err
	}

	var (
		b     strings.Builder
		edits []edit
		invs  []*Invocation
		last  int
	)

	for _, s := range sites {
		args := text[s.argStart:s.argEnd]
		inner := origin{filename: o.filename, src: o.src, base: o.abs(s.argStart)}

		expanded, innerEdits, nested, err := expandText(ctx, cfg, args, inner)
		if err != nil {
			return "", nil, nil, err
		}

		inner.edits = innerEdits

		p := &listParser{src: expanded, ctx: ctx, logger: cfg.logger, dialect: cfg.dialect}

		req, err := p.parseArgs()
		if err != nil {
			var se *SourceError
			if errors.As(err, &se) {
				return "", nil, nil, se.relocate(inner)
			}

			return "", nil, nil, err
		}

		req.Type = s.typ
		req.locate(inner)

		res, err := expand(ctx, cfg, req)
		if err != nil {
			return "", nil, nil, err
		}

		repl := res.String()

		invs = append(invs, nested...)
		invs = append(invs, &Invocation{
			Request: req,
			Result:  res,
			Pos:     o.position(s.start),
			Text:    text[s.start:s.end],
		})

		b.WriteString(text[last:s.start])
		b.WriteString(repl)

		edits = append(edits, edit{at: s.start, oldLen: s.end - s.start, newLen: len(repl)})
		last = s.end
	}

	b.WriteString(text[last:])

	return b.String(), edits, invs, nil
}

// finish adds the imports the expansions need and formats the file.
func finish(name, src string, invs []*Invocation) ([]byte, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	if err != nil {
		return nil, ErrFormat.Wrap(err).With(slog.String("file", name))
	}

	seen := map[string]bool{}

	for _, inv := range invs {
		r := inv.Result
		key := r.ImportName + " " + r.Import
		if r.Import == "" || seen[key] {
			continue
		}

		seen[key] = true

		astutil.AddNamedImport(fset, file, r.ImportName, r.Import)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, ErrFormat.Wrap(err).With(slog.String("file", name))
	}

	// Regroup so an added third-party import sits apart from the standard
	// library ones.
	out, err := imports.Process(name, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, ErrFormat.Wrap(err).With(slog.String("file", name))
	}

	return out, nil
}

// site locates one invocation: macro![T](args).
type site struct {
	start    int // macro name
	end      int // just past ')'
	typ      string
	argStart int // just past '('
	argEnd   int // ')'
}

// scanInvocations finds the outermost invocations of macro in src.
func scanInvocations(src, macro string) ([]site, error) {
	var sites []site

	for i := 0; i < len(src); {
		if n := skipLiteral(src, i); n > i {
			i = n

			continue
		}

		r, size := utf8.DecodeRuneInString(src[i:])
		if !isIdentRune(r, false) {
			i += size

			continue
		}

		start := i
		for i < len(src) {
			r, size = utf8.DecodeRuneInString(src[i:])
			if !isIdentRune(r, true) {
				break
			}

			i += size
		}

		if src[start:i] != macro || !isInvocation(src, start, i) {
			continue
		}

		s, err := scanSite(src, start, i+1)
		if err != nil {
			return nil, err
		}

		sites = append(sites, s)
		i = s.end
	}

	return sites, nil
}

// isInvocation reports whether the identifier src[start:end] is followed by
// '!' and then '(' or '[', and is not a selector.
func isInvocation(src string, start, end int) bool {
	if end+1 >= len(src) || src[end] != '!' {
		return false
	}

	if c := src[end+1]; c != '(' && c != '[' {
		return false
	}

	before := strings.TrimRight(src[:start], " \t")

	return !strings.HasSuffix(before, ".")
}

// scanSite reads an optional [T] and the parenthesized arguments beginning
// at offset i, just past the '!'.
func scanSite(src string, start, i int) (site, error) {
	s := site{start: start}

	if src[i] == '[' {
		end := matchClose(src, i)
		if end < 0 {
			return s, ErrUnterminated.Wrap(errors.New("missing ']' after result type")).At(src, start)
		}

		s.typ = strings.TrimSpace(src[i+1 : end])
		if s.typ == "" {
			return s, malformed(src, i, "empty result type")
		}

		if _, err := parseExprText(token.NewFileSet(), s.typ); err != nil {
			return s, malformed(src, i+1, "invalid result type: %v", err)
		}

		i = end + 1
		if i >= len(src) || src[i] != '(' {
			return s, malformed(src, i, "expected '(' after result type")
		}
	}

	end := matchClose(src, i)
	if end < 0 {
		return s, ErrUnterminated.Wrap(errors.New("missing ')'")).At(src, start)
	}

	s.argStart, s.argEnd, s.end = i+1, end, end+1

	return s, nil
}

var closer = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// matchClose returns the offset of the bracket closing the one at src[open],
// skipping literals and comments, or -1.
func matchClose(src string, open int) int {
	var stack []byte

	for i := open; i < len(src); {
		if n := skipLiteral(src, i); n > i {
			i = n

			continue
		}

		switch c := src[i]; c {
		case '(', '[', '{':
			stack = append(stack, closer[c])
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}

		i++
	}

	return -1
}

// skipLiteral returns the offset just past the string, rune, or comment
// starting at src[i], or i if none starts there. An unterminated literal
// extends to the end of its line, or of src for raw strings and general
// comments.
func skipLiteral(src string, i int) int {
	switch {
	case strings.HasPrefix(src[i:], "//"):
		if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
			return i + j
		}

		return len(src)

	case strings.HasPrefix(src[i:], "/*"):
		if j := strings.Index(src[i+2:], "*/"); j >= 0 {
			return i + 2 + j + 2
		}

		return len(src)

	case src[i] == '`':
		if j := strings.IndexByte(src[i+1:], '`'); j >= 0 {
			return i + 1 + j + 1
		}

		return len(src)

	case src[i] == '"' || src[i] == '\'':
		q := src[i]

		for j := i + 1; j < len(src); j++ {
			switch src[j] {
			case '\\':
				j++
			case q:
				return j + 1
			case '\n':
				return j
			}
		}

		return len(src)
	}

	return i
}

func isIdentRune(r rune, inner bool) bool {
	return r == '_' || unicode.IsLetter(r) || (inner && unicode.IsDigit(r))
}
