package lang

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

const rewriteSrc = `package main

func main() {
	a, b := 1, 2
	println(clone!([a, mut b], func() int { b += a; return b }()))
	println(a, b)
}
`

func TestRewrite(t *testing.T) {
	f, err := Rewrite(context.Background(), "main.go", []byte(rewriteSrc))
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	if len(f.Invocations) != 1 {
		t.Fatalf("invocations = %d, want 1", len(f.Invocations))
	}

	out := string(f.Source)

	for _, want := range []string{
		`import "github.com/ardnew/clonelist/dup"`,
		"a := dup.Of(a)",
		"b := dup.Of(b)",
		"b += a",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "clone!") {
		t.Errorf("output still contains an invocation:\n%s", out)
	}

	if _, err := parser.ParseFile(token.NewFileSet(), "main.go", f.Source, 0); err != nil {
		t.Errorf("output does not parse: %v\n%s", err, out)
	}

	inv := f.Invocations[0]
	if inv.Pos.Line != 5 || inv.Pos.Column != 10 || inv.Pos.Filename != "main.go" {
		t.Errorf("pos = %s, want main.go:5:10", inv.Pos)
	}

	if !strings.HasPrefix(inv.Text, "clone!([a, mut b]") {
		t.Errorf("text = %q", inv.Text)
	}
}

func TestRewrite_NoInvocations(t *testing.T) {
	src := []byte("package p\n\nvar s = \"clone!([a], a)\" // clone!(x)\n/* clone!( */\nvar r = `clone!(`\n")

	f, err := Rewrite(context.Background(), "p.go", src)
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	if len(f.Invocations) != 0 {
		t.Errorf("invocations = %d, want 0", len(f.Invocations))
	}

	if string(f.Source) != string(src) {
		t.Errorf("source changed:\n%s", f.Source)
	}
}

func TestRewrite_ExistingImport(t *testing.T) {
	src := `package p

import (
	"fmt"

	"github.com/ardnew/clonelist/dup"
)

var _ = dup.Of[int]

func f(s []int) string { return clone![string]([s], fmt.Sprint(s)) }
`

	f, err := Rewrite(context.Background(), "p.go", []byte(src))
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	if n := strings.Count(string(f.Source), `"github.com/ardnew/clonelist/dup"`); n != 1 {
		t.Errorf("dup imported %d times:\n%s", n, f.Source)
	}
}

func TestRewrite_ImportGroups(t *testing.T) {
	src := "package p\n\nimport \"fmt\"\n\nfunc f(s []int) string { return clone![string]([s], fmt.Sprint(s)) }\n"

	f, err := Rewrite(context.Background(), "p.go", []byte(src))
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	want := "import (\n\t\"fmt\"\n\n\t\"github.com/ardnew/clonelist/dup\"\n)\n"
	if !strings.Contains(string(f.Source), want) {
		t.Errorf("imports not grouped, want %q in:\n%s", want, f.Source)
	}
}

func TestRewrite_BindingNamedDup(t *testing.T) {
	src := "package p\n\nfunc f(xs, ys []int) int { return clone![int]([{ xs } as dup, ys], len(dup) + len(ys)) }\n"

	f, err := Rewrite(context.Background(), "p.go", []byte(src))
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	out := string(f.Source)

	for _, want := range []string{
		`import dup_ "github.com/ardnew/clonelist/dup"`,
		"dup := dup_.Of(xs)",
		"ys := dup_.Of(ys)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRewrite_EmptyListNeedsNoImport(t *testing.T) {
	src := "package p\n\nvar x = clone!([], 1 + 2)\n"

	f, err := Rewrite(context.Background(), "p.go", []byte(src))
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	want := "package p\n\nvar x = (1 + 2)\n"
	if string(f.Source) != want {
		t.Errorf("got:\n%s\nwant:\n%s", f.Source, want)
	}
}

func TestRewrite_Nested(t *testing.T) {
	src := "package p\n\nfunc f(a, b int) int { return clone![int]([a], clone![int]([b], a + b)) }\n"

	f, err := Rewrite(context.Background(), "p.go", []byte(src))
	if err != nil {
		t.Fatalf("rewrite error: %v", err)
	}

	if len(f.Invocations) != 2 {
		t.Fatalf("invocations = %d, want 2", len(f.Invocations))
	}

	inner, outer := f.Invocations[0], f.Invocations[1]

	if inner.Text != "clone![int]([b], a + b)" {
		t.Errorf("inner text = %q", inner.Text)
	}

	if inner.Pos.Column != 48 {
		t.Errorf("inner column = %d, want 48", inner.Pos.Column)
	}

	if outer.Pos.Column != 31 {
		t.Errorf("outer column = %d, want 31", outer.Pos.Column)
	}

	if !outer.Request.Bindings[0].Pos.IsValid() || outer.Request.Bindings[0].Pos.Column != 44 {
		t.Errorf("outer binding pos = %s, want column 44", outer.Request.Bindings[0].Pos)
	}

	if got := outer.Request.Trailing.Pos.Column; got != 48 {
		t.Errorf("outer trailing column = %d, want 48", got)
	}

	if _, err := parser.ParseFile(token.NewFileSet(), "p.go", f.Source, 0); err != nil {
		t.Errorf("output does not parse: %v\n%s", err, f.Source)
	}
}

func TestRewrite_NestedErrorPosition(t *testing.T) {
	src := "package p\n\nvar x = clone!([a], clone!([b c], b))\n"

	_, err := Rewrite(context.Background(), "p.go", []byte(src))

	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %v", err)
	}

	pos := se.Pos()
	if pos.Filename != "p.go" || pos.Line != 3 || pos.Column != 31 {
		t.Errorf("pos = %s, want p.go:3:31", pos)
	}
}

func TestRewrite_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
		line int
		col  int
	}{
		{
			name: "malformed",
			src:  "package p\n\nvar x = clone!([a b], a)\n",
			kind: ErrMalformed,
			line: 3,
			col:  19,
		},
		{
			name: "unterminated",
			src:  "package p\n\nvar x = clone!([a], a\n",
			kind: ErrUnterminated,
			line: 3,
			col:  9,
		},
		{
			name: "immutable",
			src:  "package p\n\nvar f = clone!([a], func() { a = 1 })\n",
			kind: ErrImmutableAssign,
			line: 3,
			col:  30,
		},
		{
			name: "invalid type",
			src:  "package p\n\nvar x = clone![1 +]([a], a)\n",
			kind: ErrMalformed,
			line: 3,
			col:  16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rewrite(context.Background(), "p.go", []byte(tt.src))
			if !errors.Is(err, tt.kind) {
				t.Fatalf("error = %v, want %v", err, tt.kind)
			}

			var se *SourceError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SourceError, got %T", err)
			}

			if pos := se.Pos(); pos.Line != tt.line || pos.Column != tt.col {
				t.Errorf("pos = %s, want %d:%d", pos, tt.line, tt.col)
			}
		})
	}
}

func TestRewrite_FormatError(t *testing.T) {
	src := "package p\n\nvar x = clone!([a], a) +\n"

	_, err := Rewrite(context.Background(), "p.go", []byte(src))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("error = %v, want ErrFormat", err)
	}
}

func TestScan(t *testing.T) {
	src := "package p\n\n// clone!(ignored)\nvar (\n\tx = clone!([a], a)\n\ty = s.clone!(b)\n\tz = clone!(c)\n)\n"

	invs, err := Scan(context.Background(), "p.go", []byte(src))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}

	if len(invs) != 2 {
		t.Fatalf("invocations = %d, want 2", len(invs))
	}

	if invs[0].Pos.Line != 5 || invs[1].Pos.Line != 7 {
		t.Errorf("lines = %d, %d, want 5, 7", invs[0].Pos.Line, invs[1].Pos.Line)
	}

	if got := invs[1].Result.String(); got != "(c)" {
		t.Errorf("result = %q, want (c)", got)
	}
}

func TestRewrite_CustomMacro(t *testing.T) {
	src := "package p\n\nvar x = dupe!([a], a)\nvar y = clone!(b)\n"

	invs, err := Scan(context.Background(), "p.go", []byte(src), WithMacro("dupe"))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}

	if len(invs) != 1 || invs[0].Pos.Line != 3 {
		t.Errorf("invocations = %d, want 1 on line 3", len(invs))
	}
}

func TestSkipLiteral(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{`"a\"b" x`, 6},
		{"'\\'' x", 4},
		{"`raw` x", 5},
		{"// c\nx", 4},
		{"/* c */ x", 7},
		{`"open`, 5},
		{"x", 0},
	}

	for _, tt := range tests {
		if got := skipLiteral(tt.src, 0); got != tt.want {
			t.Errorf("skipLiteral(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}
