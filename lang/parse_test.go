package lang

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParse_Bindings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		idents   []string
		mutable  []bool
		alias    []bool
		trailing string
	}{
		{
			name:     "names",
			input:    `[a, b, c], a + b + c`,
			idents:   []string{"a", "b", "c"},
			mutable:  []bool{false, false, false},
			alias:    []bool{false, false, false},
			trailing: "a + b + c",
		},
		{
			name:     "mutable and alias",
			input:    `[a, mut b, { s.Len() } as n], a + b + n`,
			idents:   []string{"a", "b", "n"},
			mutable:  []bool{false, true, false},
			alias:    []bool{false, false, true},
			trailing: "a + b + n",
		},
		{
			name:     "mutable alias",
			input:    `[mut { m["k"] } as v], func() { v = 1 }`,
			idents:   []string{"v"},
			mutable:  []bool{true},
			alias:    []bool{true},
			trailing: "func() { v = 1 }",
		},
		{
			name:     "empty list",
			input:    `[], x`,
			idents:   []string{},
			trailing: "x",
		},
		{
			name:     "no list",
			input:    `x * 2`,
			idents:   []string{},
			trailing: "x * 2",
		},
		{
			name:     "leading bracket belongs to expression",
			input:    `[]int{1, 2}[0]`,
			idents:   []string{},
			trailing: "[]int{1, 2}[0]",
		},
		{
			name:     "trailing comma in list",
			input:    `[a, b,], a - b`,
			idents:   []string{"a", "b"},
			mutable:  []bool{false, false},
			alias:    []bool{false, false},
			trailing: "a - b",
		},
		{
			name:     "trailing comma after expression",
			input:    `[a], a,`,
			idents:   []string{"a"},
			mutable:  []bool{false},
			alias:    []bool{false},
			trailing: "a",
		},
		{
			name:     "duplicate identifiers",
			input:    `[a, { a + 1 } as a], a`,
			idents:   []string{"a", "a"},
			mutable:  []bool{false, false},
			alias:    []bool{false, true},
			trailing: "a",
		},
		{
			name: "multiline",
			input: `[
	a,
	mut b,
], func() int {
	b += a
	return b
}()`,
			idents:   []string{"a", "b"},
			mutable:  []bool{false, true},
			alias:    []bool{false, false},
			trailing: "func() int {\n\tb += a\n\treturn b\n}()",
		},
		{
			name:     "commas inside braces",
			input:    `[{ f(x, y) } as z], []int{z, z}`,
			idents:   []string{"z"},
			mutable:  []bool{false},
			alias:    []bool{true},
			trailing: "[]int{z, z}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if got := req.Idents(); !slices.Equal(got, tt.idents) {
				t.Errorf("idents = %q, want %q", got, tt.idents)
			}

			for i, b := range req.Bindings {
				if b.Mutable != tt.mutable[i] {
					t.Errorf("binding %d mutable = %v, want %v", i, b.Mutable, tt.mutable[i])
				}

				if b.IsAlias() != tt.alias[i] {
					t.Errorf("binding %d alias = %v, want %v", i, b.IsAlias(), tt.alias[i])
				}
			}

			if req.Trailing.Text != tt.trailing {
				t.Errorf("trailing = %q, want %q", req.Trailing.Text, tt.trailing)
			}
		})
	}
}

func TestParse_AliasExpr(t *testing.T) {
	req, err := Parse(context.Background(), `[{ s.Len() } as n], n`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	a, ok := req.Bindings[0].Source.(Alias)
	if !ok {
		t.Fatalf("source = %T, want Alias", req.Bindings[0].Source)
	}

	if a.Expr.Text != "s.Len()" {
		t.Errorf("expr = %q, want %q", a.Expr.Text, "s.Len()")
	}

	if a.Expr.Pos.Column != 4 {
		t.Errorf("expr column = %d, want 4", a.Expr.Pos.Column)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"empty", ``, "missing trailing expression"},
		{"list only", `[a, b]`, "missing trailing expression after binding list"},
		{"list and comma only", `[a], `, "missing trailing expression"},
		{"missing separator", `[a b], a`, "separate items with ','"},
		{"leading comma", `[, a], a`, "before first item"},
		{"double comma", `[a,, b], a`, "between items"},
		{"bare mut", `[mut], x`, "after mut"},
		{"double mut", `[mut mut a], a`, "'mut' is reserved"},
		{"as without braces", `[x as y], y`, "must follow a braced expression"},
		{"leading as", `[as], x`, "must follow a braced expression"},
		{"braces without as", `[{ x }], x`, "expected 'as'"},
		{"as without name", `[{ x } as], x`, "expected identifier after 'as'"},
		{"as keyword name", `[{ x } as func], x`, "expected identifier after 'as'"},
		{"empty braces", `[a, {}, b], a`, "empty expression"},
		{"blank identifier", `[_], x`, "blank identifier"},
		{"extra after alias", `[{ x } as y z], y`, "unexpected z"},
		{"literal item", `[1], x`, "expected identifier or '{'"},
		{"extra arguments", `[a], a, b`, "after trailing expression"},
		{"invalid trailing", `[a], a +`, "invalid expression"},
		{"invalid alias", `[{ 1 + } as x], x`, "invalid expression"},
		{"unbalanced bracket", `[a, b`, "unbalanced '['"},
		{"unbalanced brace", `[{ x as y], y`, "unbalanced"},
		{"unterminated string", `[a], "abc`, "string literal not terminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(context.Background(), tt.input)
			if err == nil {
				t.Fatalf("expected error, got request %s", req.Format(""))
			}

			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error %v is not ErrMalformed", err)
			}

			var se *SourceError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not a *SourceError", err)
			}

			if !strings.Contains(se.Err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", se.Err.Error(), tt.msg)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse(context.Background(), "[a,\n  b c], a", WithFilename("x.go"))

	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %v", err)
	}

	pos := se.Pos()
	if pos.Filename != "x.go" || pos.Line != 2 || pos.Column != 5 {
		t.Errorf("pos = %s, want x.go:2:5", pos)
	}

	if !strings.HasPrefix(se.Error(), "x.go:2:5: malformed invocation") {
		t.Errorf("error = %q", se.Error())
	}
}

func TestParse_Positions(t *testing.T) {
	req, err := Parse(context.Background(), "[a,\n mut b], a + b")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	want := []Position{
		{Offset: 1, Line: 1, Column: 2},
		{Offset: 5, Line: 2, Column: 2},
	}

	for i, b := range req.Bindings {
		if b.Pos != want[i] {
			t.Errorf("binding %d pos = %+v, want %+v", i, b.Pos, want[i])
		}
	}

	if got := req.Trailing.Pos; got.Line != 2 || got.Column != 10 {
		t.Errorf("trailing pos = %s, want 2:10", got)
	}
}

func TestParseReader(t *testing.T) {
	req, err := ParseReader(context.Background(), strings.NewReader("[a], a"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if got := req.Format(""); got != "clone!([a], a)" {
		t.Errorf("format = %q", got)
	}
}

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
		typ    string
	}{
		{"plain", `clone!([a, mut b], a + b)`, "clone!([a, mut b], a + b)", ""},
		{"result type", ` clone![int]([a], a) `, "clone![int]([a], a)", "int"},
		{"generic result type", "clone![map[string]int]([m], m)\n", "clone![map[string]int]([m], m)", "map[string]int"},
		{"no list", `clone!(x)`, "clone!(x)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseInvocation(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if req.Type != tt.typ {
				t.Errorf("type = %q, want %q", req.Type, tt.typ)
			}

			if got := req.Format(""); got != tt.format {
				t.Errorf("format = %q, want %q", got, tt.format)
			}
		})
	}
}

func TestParseInvocation_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{"not an invocation", `a + b`, ErrMalformed},
		{"two invocations", `clone!(a) clone!(b)`, ErrMalformed},
		{"trailing text", `clone!(a) + 1`, ErrMalformed},
		{"unterminated", `clone!([a], a`, ErrUnterminated},
		{"empty type", `clone![]([a], a)`, ErrMalformed},
		{"malformed args", `clone!([a b], a)`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInvocation(context.Background(), tt.input)
			if !errors.Is(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestParseInvocation_ErrorPosition(t *testing.T) {
	_, err := ParseInvocation(context.Background(), `clone!([a b], a)`)

	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %v", err)
	}

	if got := se.Pos().Column; got != 11 {
		t.Errorf("column = %d, want 11", got)
	}
}

func TestParse_ExprDialect(t *testing.T) {
	const input = `[xs, { len(xs) } as n], filter(xs, # > n)`

	req, err := Parse(context.Background(), input, WithDialect(DialectExpr))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if got := req.Idents(); !slices.Equal(got, []string{"xs", "n"}) {
		t.Errorf("idents = %q", got)
	}

	if _, err := Parse(context.Background(), input); !errors.Is(err, ErrMalformed) {
		t.Errorf("go dialect accepted expr syntax: %v", err)
	}

	_, err = Parse(context.Background(), `[a], a +* 2`, WithDialect(DialectExpr))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestParseDialect(t *testing.T) {
	for _, d := range []Dialect{DialectGo, DialectExpr} {
		got, err := ParseDialect(strings.ToUpper(d.String()))
		if err != nil || got != d {
			t.Errorf("ParseDialect(%q) = %v, %v", d, got, err)
		}
	}

	if _, err := ParseDialect("rust"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}
