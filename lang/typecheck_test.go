package lang

import (
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// moduleImporter resolves the duplication package from its source in this
// module and everything else from the standard library sources.
type moduleImporter struct {
	fset *token.FileSet
	std  types.Importer
	pkgs map[string]*types.Package
}

func newModuleImporter(fset *token.FileSet) *moduleImporter {
	return &moduleImporter{
		fset: fset,
		std:  importer.ForCompiler(fset, "source", nil),
		pkgs: map[string]*types.Package{},
	}
}

func (m *moduleImporter) Import(path string) (*types.Package, error) {
	if path != DefaultDupImport {
		return m.std.Import(path)
	}

	if pkg, ok := m.pkgs[path]; ok {
		return pkg, nil
	}

	dir := filepath.Join("..", "dup")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []*ast.File

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		f, err := parser.ParseFile(m.fset, filepath.Join(dir, name), nil, 0)
		if err != nil {
			return nil, err
		}

		files = append(files, f)
	}

	conf := types.Config{Importer: m.std}

	pkg, err := conf.Check(path, m.fset, files, nil)
	if err != nil {
		return nil, err
	}

	m.pkgs[path] = pkg

	return pkg, nil
}

// checkRewrite rewrites src and type-checks the result as package p.
func checkRewrite(t *testing.T, src string) (*ast.File, *types.Info) {
	t.Helper()

	f, err := Rewrite(context.Background(), "p.go", []byte(src))
	require.NoError(t, err)

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "p.go", f.Source, 0)
	require.NoError(t, err, "%s", f.Source)

	info := &types.Info{
		Defs: map[*ast.Ident]types.Object{},
		Uses: map[*ast.Ident]types.Object{},
	}

	conf := types.Config{Importer: newModuleImporter(fset)}

	_, err = conf.Check("p", fset, []*ast.File{file}, info)
	require.NoError(t, err, "%s", f.Source)

	return file, info
}

func TestRewrite_TypeChecks(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "shadowing alias",
			src:  "package p\n\nfunc f(a int) any { return clone!([a, { a + 1 } as a], a) }\n",
		},
		{
			name: "unused binding",
			src:  "package p\n\nfunc f(a, b []int) any { return clone!([a, b], a) }\n",
		},
		{
			name: "array ellipsis",
			src:  "package p\n\nfunc f(a int) [2]int { return clone!([a], [...]int{a, 2}) }\n",
		},
		{
			name: "aliased literal",
			src:  "package p\n\nfunc f() int { return clone!([{ 7 } as a], a + 1) }\n",
		},
		{
			name: "binding named dup",
			src:  "package p\n\nfunc f(xs, ys []int) int { return clone![int]([{ xs } as dup, ys], len(dup) + len(ys)) }\n",
		},
		{
			name: "binding named dup beside plain import",
			src: "package p\n\nimport \"github.com/ardnew/clonelist/dup\"\n\nvar _ = dup.Of[int]\n\n" +
				"func f(dup []int) any { return clone!([dup], dup) }\n",
		},
		{
			name: "standard library import",
			src:  "package p\n\nimport \"fmt\"\n\nfunc f(s []int) string { return clone![string]([s], fmt.Sprint(s)) }\n",
		},
		{
			name: "nested invocation",
			src:  "package p\n\nfunc f(a, b int) int { return clone![int]([a], clone![int]([b], a + b)) }\n",
		},
		{
			name: "no bindings",
			src:  "package p\n\nvar x int = clone!([], 1 + 2)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkRewrite(t, tt.src)
		})
	}
}

const scenarioSrc = `package p

func scenario() (a, b, d, inner int) {
	a, b, d = 7, 0, 12
	inner = clone![int]([a, mut b, d], func() int { b = 42 - a - d; return b }())

	return a, b, d, inner
}
`

// The closure assigns only its own copy of b, so the caller's a, b and d
// keep 7, 0 and 12 while inner receives 42 - 7 - 12.
func TestRewrite_TypeChecksCopySemantics(t *testing.T) {
	file, info := checkRewrite(t, scenarioSrc)

	fn, ok := file.Decls[len(file.Decls)-1].(*ast.FuncDecl)
	require.True(t, ok)

	outer := map[string]types.Object{}

	for _, field := range fn.Type.Results.List {
		for _, name := range field.Names {
			outer[name.Name] = info.Defs[name]
		}
	}

	require.Len(t, outer, 4)

	var inner []*ast.AssignStmt

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		as, ok := n.(*ast.AssignStmt)
		if !ok || as.Tok != token.ASSIGN {
			return true
		}

		for _, lhs := range as.Lhs {
			id, ok := lhs.(*ast.Ident)
			if !ok {
				continue
			}

			if obj := info.Uses[id]; obj != nil && obj == outer[id.Name] && id.Name != "inner" {
				// The only writes to the named results are their
				// initialization on the first line of the body.
				require.Equal(t, fn.Body.List[0], ast.Stmt(as), "%s written after initialization", id.Name)
			}
		}

		if len(as.Lhs) == 1 {
			if id, ok := as.Lhs[0].(*ast.Ident); ok && id.Name == "b" {
				inner = append(inner, as)
			}
		}

		return true
	})

	require.Len(t, inner, 1, "want a single assignment to the copy of b")

	b := inner[0].Lhs[0].(*ast.Ident)
	require.NotSame(t, outer["b"], info.Uses[b], "closure assigns the caller's b")

	v, ok := info.Uses[b].(*types.Var)
	require.True(t, ok)
	require.Equal(t, "int", v.Type().String())
}

// funcTokens returns the tokens of function fn in src. Semicolons that end
// a block or call are dropped so the layout gofmt picks does not matter.
func funcTokens(t *testing.T, name string, src []byte, fn string) []string {
	t.Helper()

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, name, src, 0)
	require.NoError(t, err)

	var decl *ast.FuncDecl

	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == fn {
			decl = fd
		}
	}

	require.NotNil(t, decl, "%s has no func %s", name, fn)

	text := src[fset.Position(decl.Pos()).Offset:fset.Position(decl.End()).Offset]

	var s scanner.Scanner

	s.Init(token.NewFileSet().AddFile(name, -1, len(text)), text, nil, 0)

	var toks []string

	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}

		if tok == token.SEMICOLON || lit == "" {
			lit = tok.String()
		}

		toks = append(toks, lit)
	}

	out := toks[:0]

	for i, tok := range toks {
		if tok == ";" && (i+1 == len(toks) || toks[i+1] == "}" || toks[i+1] == ")") {
			continue
		}

		out = append(out, tok)
	}

	return out
}

func TestRewrite_ExpansionRuns(t *testing.T) {
	f, err := Rewrite(context.Background(), "p.go", []byte(scenarioSrc))
	require.NoError(t, err)

	compiled, err := os.ReadFile("scenario_test.go")
	require.NoError(t, err)

	require.Equal(t,
		funcTokens(t, "scenario_test.go", compiled, "scenario"),
		funcTokens(t, "p.go", f.Source, "scenario"),
		"scenario_test.go no longer matches the expansion:\n%s", f.Source)

	a, b, d, inner := scenario()

	require.Equal(t, []int{7, 0, 12}, []int{a, b, d}, "originals changed")
	require.Equal(t, 23, inner)
}
