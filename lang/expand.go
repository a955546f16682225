package lang

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"log/slog"
	"path"
	"strings"
)

// Decl is one emitted declaration.
type Decl struct {
	Ident   string
	Mutable bool
	// Value is the initializer, the duplication of the binding's source.
	Value string
	// Nested opens a block before the declaration so that it shadows an
	// earlier binding of the same identifier.
	Nested bool
	// Unused marks a binding nothing reads; it is followed by _ = Ident.
	Unused bool
}

// Result is an expanded request: declarations in binding order followed by
// the trailing expression, wrapped in a function literal that is called
// immediately. A request without bindings expands to its trailing
// expression alone.
type Result struct {
	Decls    []Decl
	Trailing string
	// Type is the result type of the wrapping function literal.
	Type string
	// Import is the package the emitted code needs for duplication, and
	// ImportName its name when it differs from the last path element.
	Import     string
	ImportName string
}

// String renders r as a Go expression on a single line, except where the
// source expressions themselves span lines.
func (r *Result) String() string {
	if len(r.Decls) == 0 {
		return "(" + r.Trailing + ")"
	}

	var (
		b      strings.Builder
		blocks int
	)

	b.WriteString("func() " + r.Type + " { ")

	for _, d := range r.Decls {
		if d.Nested {
			b.WriteString("{ ")

			blocks++
		}

		b.WriteString(d.Ident + " := " + d.Value + "; ")

		if d.Unused {
			b.WriteString("_ = " + d.Ident + "; ")
		}
	}

	b.WriteString("return " + r.Trailing)
	b.WriteString(strings.Repeat(" }", blocks))
	b.WriteString(" }()")

	return b.String()
}

// Expand lowers req into declarations and its trailing expression.
//
// Each binding becomes a short variable declaration initialized with a
// duplicate of its source, in order, so a later binding may read an earlier
// one. Unless disabled with [WithMutabilityCheck], assigning to a binding
// not marked mut is rejected with [ErrImmutableAssign].
func Expand(req *Request, opts ...Option) (*Result, error) {
	return expand(context.TODO(), makeConfig(opts...), req)
}

// ExpandString parses args as with [Parse] and renders the expansion.
func ExpandString(ctx context.Context, args string, opts ...Option) (string, error) {
	req, err := Parse(ctx, args, opts...)
	if err != nil {
		return "", err
	}

	res, err := expand(ctx, makeConfig(opts...), req)
	if err != nil {
		return "", err
	}

	return res.String(), nil
}

type parsedBinding struct {
	Binding
	fset *token.FileSet
	x    ast.Expr
	use  usage
}

//nolint:funlen
func expand(ctx context.Context, cfg config, req *Request) (*Result, error) {
	if req == nil {
		return nil, ErrMalformed.Wrap(errors.New("nil request"))
	}

	if cfg.dialect != DialectGo {
		return nil, ErrMalformed.
			Wrap(fmt.Errorf("cannot expand %s expressions to Go", cfg.dialect)).
			With(slog.String("dialect", cfg.dialect.String()))
	}

	fset := token.NewFileSet()

	trailing, err := parseExprText(fset, req.Trailing.Text)
	if err != nil {
		return nil, req.errorAt(ErrMalformed.Wrap(err), req.Trailing.off)
	}

	bindings := make([]parsedBinding, len(req.Bindings))

	for i, b := range req.Bindings {
		if b.Ident() == "" {
			return nil, req.errorAt(ErrMalformed.Wrap(errors.New("binding has no identifier")), b.off)
		}

		pb := parsedBinding{Binding: b, fset: token.NewFileSet()}

		pb.x, err = parseExprText(pb.fset, b.Source.Text())
		if err != nil {
			off := b.off
			if a, ok := b.Source.(Alias); ok {
				off = a.Expr.off
			}

			return nil, req.errorAt(ErrMalformed.Wrap(err), off)
		}

		pb.use = analyze(pb.x)
		bindings[i] = pb
	}

	result := analyze(trailing)

	if cfg.checkMutable {
		if err := checkMutable(req, bindings, fset, result); err != nil {
			cfg.logger.DebugContext(ctx, "mutability check failed", slog.Any("error", err))

			return nil, err
		}
	}

	res := &Result{Trailing: req.Trailing.Text}

	if len(bindings) == 0 {
		cfg.logger.TraceContext(ctx, "expanded without bindings")

		return res, nil
	}

	res.Type = resultType(cfg, req, bindings, fset, trailing)
	res.Import, res.ImportName = dupImport(cfg)

	dupFunc, err := qualifyDup(cfg, req, bindings, res)
	if err != nil {
		return nil, err
	}

	frame := map[string]bool{}

	for i, b := range bindings {
		id := b.Ident()

		d := Decl{
			Ident:   id,
			Mutable: b.Mutable,
			Value:   dupCall(dupFunc, b.Source.Text()),
			Unused:  !readLater(bindings, i, result),
		}

		if frame[id] {
			d.Nested = true
			frame = map[string]bool{}
		}

		frame[id] = true

		res.Decls = append(res.Decls, d)
	}

	cfg.logger.TraceContext(ctx, "expanded",
		slog.Int("decls", len(res.Decls)),
		slog.String("type", res.Type))

	return res, nil
}

// readLater reports whether the binding at index i is read by a later
// binding's source before it is shadowed, or by the trailing expression if
// it never is.
func readLater(bindings []parsedBinding, i int, trailing usage) bool {
	id := bindings[i].Ident()

	for _, b := range bindings[i+1:] {
		if b.use.reads[id] {
			return true
		}

		if b.Ident() == id {
			return false
		}
	}

	return trailing.reads[id]
}

// checkMutable rejects assignments to bindings not marked mut, both in the
// trailing expression and in alias expressions reading earlier bindings.
func checkMutable(req *Request, bindings []parsedBinding, fset *token.FileSet, trailing usage) error {
	visible := func(n int, name string) (Binding, bool) {
		for j := n - 1; j >= 0; j-- {
			if bindings[j].Ident() == name {
				return bindings[j].Binding, true
			}
		}

		return Binding{}, false
	}

	check := func(n int, use usage, fs *token.FileSet, base int) error {
		for _, w := range use.writes {
			b, ok := visible(n, w.name)
			if !ok || b.Mutable {
				continue
			}

			err := ErrImmutableAssign.
				Wrap(fmt.Errorf("%s is not declared mut", w.name)).
				With(slog.String("ident", w.name), slog.String("op", w.tok.String()))

			return req.errorAt(err, base+fs.Position(w.pos).Offset)
		}

		return nil
	}

	for i, b := range bindings {
		a, ok := b.Source.(Alias)
		if !ok {
			continue
		}

		if err := check(i, b.use, b.fset, a.Expr.off); err != nil {
			return err
		}
	}

	return check(len(bindings), trailing, fset, req.Trailing.off)
}

func resultType(cfg config, req *Request, bindings []parsedBinding, fset *token.FileSet, x ast.Expr) string {
	switch {
	case req.Type != "":
		return req.Type
	case cfg.resultType != "":
		return cfg.resultType
	}

	if t := inferType(fset, x, bindingScope(bindings)); t != "" {
		return t
	}

	return cfg.fallbackType
}

// qualifyDup returns the duplication function as the declarations must
// call it. A binding named like the function's package would hide the
// package from the declarations after it, so the package is then imported
// under a name no binding uses. A function without an import to rename is
// rejected instead.
func qualifyDup(cfg config, req *Request, bindings []parsedBinding, res *Result) (string, error) {
	if cfg.dupFunc == "" {
		return "", nil
	}

	qual, sel, qualified := strings.Cut(cfg.dupFunc, ".")

	bound := func(name string) (parsedBinding, bool) {
		for _, b := range bindings {
			if b.Ident() == name {
				return b, true
			}
		}

		return parsedBinding{}, false
	}

	b, ok := bound(qual)
	if !ok {
		return cfg.dupFunc, nil
	}

	if !qualified || res.Import == "" {
		err := ErrMalformed.
			Wrap(fmt.Errorf("binding %s hides duplication function %s", qual, cfg.dupFunc)).
			With(slog.String("ident", qual))

		return "", req.errorAt(err, b.off)
	}

	name := qual + "_"
	for {
		if _, taken := bound(name); !taken {
			break
		}

		name += "_"
	}

	res.ImportName = name

	return name + "." + sel, nil
}

func dupCall(fn, src string) string {
	if fn == "" {
		return src
	}

	return fn + "(" + src + ")"
}

// dupImport returns the import the duplication function needs, and the name
// to import it under when the function's qualifier differs from the last
// element of the import path.
func dupImport(cfg config) (importPath, name string) {
	qual, _, ok := strings.Cut(cfg.dupFunc, ".")
	if !ok || cfg.dupImport == "" {
		return "", ""
	}

	if qual != importBase(cfg.dupImport) {
		name = qual
	}

	return cfg.dupImport, name
}

// importBase returns the package name implied by an import path, skipping a
// trailing major version element.
func importBase(p string) string {
	base := path.Base(p)
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		if dir := path.Dir(p); dir != "." {
			return path.Base(dir)
		}
	}

	return base
}

func parseExprText(fset *token.FileSet, text string) (ast.Expr, error) {
	x, err := parser.ParseExprFrom(fset, "", text, 0)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			return nil, errors.New(list[0].Msg)
		}

		return nil, err
	}

	return x, nil
}
