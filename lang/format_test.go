package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

func handBuilt() *Request {
	return &Request{
		Bindings: []Binding{
			{Source: Name{Ident: "a"}},
			{Mutable: true, Source: Alias{Expr: Expr{Text: "f()"}, Ident: "x"}},
		},
		Trailing: Expr{Text: "a + x"},
	}
}

func TestDocument_Format(t *testing.T) {
	d := &Document{Requests: []*Request{handBuilt(), {Trailing: Expr{Text: "y"}}}}

	var buf bytes.Buffer
	if err := d.Format(context.Background(), &buf, "", 0); err != nil {
		t.Fatalf("format error: %v", err)
	}

	want := "clone!([a, mut { f() } as x], a + x)\nclone!(y)\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestDocument_FormatIndent(t *testing.T) {
	d := &Document{Requests: []*Request{handBuilt()}}

	var buf bytes.Buffer
	if err := d.Format(context.Background(), &buf, "dupe", 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	want := "dupe!([\n  a,\n  mut { f() } as x,\n], a + x)\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}

	req, err := ParseInvocation(context.Background(), buf.String(), WithMacro("dupe"))
	if err != nil {
		t.Fatalf("formatted output does not parse: %v", err)
	}

	if got, want := req.Args(), handBuilt().Args(); got != want {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}

func TestRequest_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(handBuilt())
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	want := `{"bindings":[{"kind":"name","ident":"a","mutable":false},` +
		`{"kind":"alias","ident":"x","expr":"f()","mutable":true}],"trailing":"a + x"}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if got := req.Args(); got != handBuilt().Args() {
		t.Errorf("round trip = %q", got)
	}
}

func TestRequest_MarshalJSONPositions(t *testing.T) {
	req, err := Parse(context.Background(), `[a], a`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	if !strings.Contains(string(data), `"pos":{"offset":1,"line":1,"column":2}`) {
		t.Errorf("binding position missing: %s", data)
	}
}

func TestBinding_UnmarshalJSONUnknownKind(t *testing.T) {
	var b Binding
	if err := json.Unmarshal([]byte(`{"kind":"other","ident":"a"}`), &b); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRequest_MarshalYAML(t *testing.T) {
	data, err := yaml.Marshal(handBuilt())
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	out := string(data)
	for _, want := range []string{"kind: alias", "ident: x", "mutable: true", "trailing: a + x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDocument_FormatJSON(t *testing.T) {
	d := &Document{Name: "p.go", Requests: []*Request{handBuilt()}}

	var buf bytes.Buffer
	if err := d.FormatJSON(context.Background(), &buf, 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	var got struct {
		Name     string
		Requests []json.RawMessage
	}

	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got.Name != "p.go" || len(got.Requests) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestDocument_FormatYAML(t *testing.T) {
	d := &Document{Name: "p.go", Requests: []*Request{handBuilt()}}

	for _, indent := range []int{0, 2} {
		var buf bytes.Buffer
		if err := d.FormatYAML(context.Background(), &buf, indent); err != nil {
			t.Fatalf("format error: %v", err)
		}

		var got map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid YAML (indent %d): %v\n%s", indent, err, buf.String())
		}

		if got["name"] != "p.go" {
			t.Errorf("indent %d: name = %v", indent, got["name"])
		}
	}
}

func TestDocument_Print(t *testing.T) {
	invs, err := Scan(context.Background(), "p.go",
		[]byte("package p\n\nvar x = clone!([a, mut { f() } as y], a + y)\n"))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}

	var buf bytes.Buffer
	NewDocument("p.go", invs).Print(&buf)

	out := buf.String()
	for _, want := range []string{
		"Document p.go (1)",
		"Request @p.go:3:16",
		"Name a @p.go:3:17",
		"Alias mut y @p.go:3:20",
		`Expr "f()" @p.go:3:26`,
		`Trailing "a + y" @p.go:3:39`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
