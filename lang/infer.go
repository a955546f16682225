package lang

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/token"
	"strconv"
)

var predeclaredTypes = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": false,
	"complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true,
}

// inferType returns the Go type of x when it is evident from syntax alone,
// or "" when it is not. The only names resolved are those in scope, which
// maps binding identifiers to the types of their sources, so a conversion
// is only recognized for predeclared and literal types.
//
//nolint:gocyclo,cyclop
func inferType(fset *token.FileSet, x ast.Expr, scope map[string]string) string {
	switch e := x.(type) {
	case *ast.ParenExpr:
		return inferType(fset, e.X, scope)

	case *ast.BasicLit:
		switch e.Kind {
		case token.INT:
			return "int"
		case token.FLOAT:
			return "float64"
		case token.IMAG:
			return "complex128"
		case token.CHAR:
			return "rune"
		case token.STRING:
			return "string"
		}

	case *ast.Ident:
		if t, ok := scope[e.Name]; ok {
			return t
		}

		if e.Name == "true" || e.Name == "false" {
			return "bool"
		}

	case *ast.FuncLit:
		return render(fset, e.Type)

	case *ast.CompositeLit:
		return literalType(fset, e)

	case *ast.TypeAssertExpr:
		if e.Type != nil {
			return render(fset, e.Type)
		}

	case *ast.CallExpr:
		if len(e.Args) == 1 && isLiteralType(e.Fun) {
			return render(fset, e.Fun)
		}

	case *ast.UnaryExpr:
		switch e.Op {
		case token.NOT:
			return "bool"
		case token.AND:
			if lit, ok := e.X.(*ast.CompositeLit); ok {
				if t := literalType(fset, lit); t != "" {
					return "*" + t
				}
			}
		case token.ADD, token.SUB, token.XOR:
			return inferType(fset, e.X, scope)
		}

	case *ast.BinaryExpr:
		switch e.Op {
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ,
			token.LAND, token.LOR:
			return "bool"
		case token.SHL, token.SHR:
			return inferType(fset, e.X, scope)
		}

		l, r := inferType(fset, e.X, scope), inferType(fset, e.Y, scope)

		switch {
		case l != "" && l == r:
			return l
		case l != "" && isUntypedConst(e.Y) && !isUntypedConst(e.X):
			return l
		case r != "" && isUntypedConst(e.X) && !isUntypedConst(e.Y):
			return r
		}
	}

	return ""
}

// isUntypedConst reports whether x is a literal constant that takes the
// type of the other operand.
func isUntypedConst(x ast.Expr) bool {
	switch e := x.(type) {
	case *ast.BasicLit:
		return true
	case *ast.ParenExpr:
		return isUntypedConst(e.X)
	case *ast.UnaryExpr:
		switch e.Op {
		case token.ADD, token.SUB, token.XOR:
			return isUntypedConst(e.X)
		}
	}

	return false
}

// bindingScope returns the types evident from the binding sources visible
// to the trailing expression. Each binding has the type of its source, read
// in the scope of the bindings before it; one whose type is unknown hides
// any earlier binding of the same name.
func bindingScope(bindings []parsedBinding) map[string]string {
	scope := map[string]string{}

	for _, b := range bindings {
		id := b.Ident()

		if t := inferType(b.fset, b.x, scope); t != "" {
			scope[id] = t
		} else {
			delete(scope, id)
		}
	}

	return scope
}

// literalType returns the type of a composite literal. An array literal
// of the form [...]T{...} has its length counted, unless an element is
// keyed and the length depends on the key values.
func literalType(fset *token.FileSet, lit *ast.CompositeLit) string {
	if lit.Type == nil {
		return ""
	}

	arr, ok := lit.Type.(*ast.ArrayType)
	if !ok {
		return render(fset, lit.Type)
	}

	if _, ok := arr.Len.(*ast.Ellipsis); !ok {
		return render(fset, lit.Type)
	}

	for _, elt := range lit.Elts {
		if _, ok := elt.(*ast.KeyValueExpr); ok {
			return ""
		}
	}

	elem := render(fset, arr.Elt)
	if elem == "" {
		return ""
	}

	return "[" + strconv.Itoa(len(lit.Elts)) + "]" + elem
}

// isLiteralType reports whether fun, used as a call, is certainly a
// conversion: a predeclared type name or a type literal.
func isLiteralType(fun ast.Expr) bool {
	switch f := fun.(type) {
	case *ast.Ident:
		return predeclaredTypes[f.Name]
	case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType, *ast.StructType:
		return true
	case *ast.ParenExpr:
		switch f.X.(type) {
		case *ast.StarExpr, *ast.FuncType, *ast.ChanType:
			return isTypeExpr(f.X)
		}

		return isLiteralType(f.X)
	}

	return false
}

func isTypeExpr(x ast.Expr) bool {
	switch t := x.(type) {
	case *ast.StarExpr:
		return isTypeExpr(t.X) || isLiteralType(t.X)
	case *ast.Ident:
		return predeclaredTypes[t.Name]
	default:
		return isLiteralType(x)
	}
}

func render(fset *token.FileSet, n ast.Node) string {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, n); err != nil {
		return ""
	}

	return buf.String()
}
