package lang

import (
	"go/ast"
	"go/token"
)

// usage records how an expression refers to names declared outside it.
type usage struct {
	reads  map[string]bool
	writes []write
}

// write is an assignment, op-assignment, or increment whose target is rooted
// at a name declared outside the analyzed expression.
type write struct {
	name string
	pos  token.Pos
	tok  token.Token
}

type scope struct {
	outer *scope
	names map[string]bool
}

func (s *scope) declares(name string) bool {
	for ; s != nil; s = s.outer {
		if s.names[name] {
			return true
		}
	}

	return false
}

type walker struct {
	scope *scope
	usage
}

// analyze reports the names x reads and assigns that are not declared
// within x itself. Reads exclude selector field names and struct literal
// keys; a bare assignment target is not a read, matching how the compiler
// decides whether a variable is used.
func analyze(x ast.Node) usage {
	w := &walker{usage: usage{reads: map[string]bool{}}}
	w.node(x)

	return w.usage
}

func (w *walker) push() { w.scope = &scope{outer: w.scope, names: map[string]bool{}} }
func (w *walker) pop()  { w.scope = w.scope.outer }

func (w *walker) declare(id *ast.Ident) {
	if id != nil && id.Name != "_" && w.scope != nil {
		w.scope.names[id.Name] = true
	}
}

func (w *walker) nodes(list ...ast.Node) {
	for _, n := range list {
		w.node(n)
	}
}

func (w *walker) exprs(list []ast.Expr) {
	for _, x := range list {
		w.node(x)
	}
}

func (w *walker) stmts(list []ast.Stmt) {
	for _, s := range list {
		w.node(s)
	}
}

func (w *walker) node(n ast.Node) {
	if n == nil {
		return
	}

	ast.Inspect(n, w.visit)
}

//nolint:gocyclo,cyclop
func (w *walker) visit(n ast.Node) bool {
	switch x := n.(type) {
	case *ast.Ident:
		if !w.scope.declares(x.Name) {
			w.reads[x.Name] = true
		}

		return false

	case *ast.SelectorExpr:
		w.node(x.X)

		return false

	case *ast.KeyValueExpr:
		if _, ok := x.Key.(*ast.Ident); !ok {
			w.node(x.Key)
		}

		w.node(x.Value)

		return false

	case *ast.FuncLit:
		w.push()
		w.fields(x.Type.TypeParams)
		w.fields(x.Type.Params)
		w.fields(x.Type.Results)
		w.stmts(x.Body.List)
		w.pop()

		return false

	case *ast.BlockStmt:
		w.push()
		w.stmts(x.List)
		w.pop()

		return false

	case *ast.AssignStmt:
		w.exprs(x.Rhs)

		for _, lhs := range x.Lhs {
			if x.Tok == token.DEFINE {
				if id, ok := lhs.(*ast.Ident); ok {
					w.declare(id)

					continue
				}
			}

			w.target(lhs, x.Tok)
		}

		return false

	case *ast.IncDecStmt:
		w.target(x.X, x.Tok)

		return false

	case *ast.ValueSpec:
		w.node(x.Type)
		w.exprs(x.Values)

		for _, id := range x.Names {
			w.declare(id)
		}

		return false

	case *ast.TypeSpec:
		w.declare(x.Name)
		w.node(x.Type)

		return false

	case *ast.RangeStmt:
		w.node(x.X)
		w.push()

		for _, kv := range []ast.Expr{x.Key, x.Value} {
			if kv == nil {
				continue
			}

			if id, ok := kv.(*ast.Ident); ok && x.Tok == token.DEFINE {
				w.declare(id)
			} else {
				w.target(kv, x.Tok)
			}
		}

		w.stmts(x.Body.List)
		w.pop()

		return false

	case *ast.ForStmt:
		w.push()
		w.nodes(x.Init, x.Cond, x.Post)
		w.stmts(x.Body.List)
		w.pop()

		return false

	case *ast.IfStmt:
		w.push()
		w.nodes(x.Init, x.Cond, x.Body)

		if x.Else != nil {
			w.node(x.Else)
		}

		w.pop()

		return false

	case *ast.SwitchStmt:
		w.push()
		w.nodes(x.Init, x.Tag)
		w.stmts(x.Body.List)
		w.pop()

		return false

	case *ast.TypeSwitchStmt:
		w.push()
		w.node(x.Init)

		var bound *ast.Ident

		switch a := x.Assign.(type) {
		case *ast.AssignStmt:
			w.exprs(a.Rhs)

			if len(a.Lhs) == 1 {
				bound, _ = a.Lhs[0].(*ast.Ident)
			}
		case *ast.ExprStmt:
			w.node(a.X)
		}

		for _, s := range x.Body.List {
			cc, ok := s.(*ast.CaseClause)
			if !ok {
				continue
			}

			w.exprs(cc.List)
			w.push()
			w.declare(bound)
			w.stmts(cc.Body)
			w.pop()
		}

		w.pop()

		return false

	case *ast.CaseClause:
		w.exprs(x.List)
		w.push()
		w.stmts(x.Body)
		w.pop()

		return false

	case *ast.CommClause:
		w.push()
		w.node(x.Comm)
		w.stmts(x.Body)
		w.pop()

		return false

	case *ast.LabeledStmt:
		w.node(x.Stmt)

		return false

	case *ast.BranchStmt:
		return false
	}

	return true
}

func (w *walker) fields(list *ast.FieldList) {
	if list == nil {
		return
	}

	for _, f := range list.List {
		w.node(f.Type)
	}

	for _, f := range list.List {
		for _, id := range f.Names {
			w.declare(id)
		}
	}
}

// target handles the left side of an assignment. The root variable of a
// target is written but not read.
func (w *walker) target(x ast.Expr, tok token.Token) {
	if id, ok := x.(*ast.Ident); ok {
		if id.Name == "_" {
			return
		}

		if !w.scope.declares(id.Name) {
			w.writes = append(w.writes, write{name: id.Name, pos: id.Pos(), tok: tok})
		}

		return
	}

	if root := rootIdent(x); root != nil && !w.scope.declares(root.Name) {
		w.writes = append(w.writes, write{name: root.Name, pos: x.Pos(), tok: tok})
	}

	w.operands(x)
}

// operands reads everything in a target except its root variable.
func (w *walker) operands(x ast.Expr) {
	switch t := x.(type) {
	case *ast.Ident:
	case *ast.SelectorExpr:
		w.operands(t.X)
	case *ast.IndexExpr:
		w.operands(t.X)
		w.node(t.Index)
	case *ast.IndexListExpr:
		w.operands(t.X)
		w.exprs(t.Indices)
	case *ast.StarExpr:
		w.operands(t.X)
	case *ast.ParenExpr:
		w.operands(t.X)
	default:
		w.node(x)
	}
}

// rootIdent returns the variable an assignment target is rooted at:
// the a in a, a.f, a[i], *a, or (a).f.
func rootIdent(x ast.Expr) *ast.Ident {
	for {
		switch t := x.(type) {
		case *ast.Ident:
			return t
		case *ast.SelectorExpr:
			x = t.X
		case *ast.IndexExpr:
			x = t.X
		case *ast.IndexListExpr:
			x = t.X
		case *ast.StarExpr:
			x = t.X
		case *ast.ParenExpr:
			x = t.X
		default:
			return nil
		}
	}
}
