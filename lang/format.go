package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Document is the set of invocations found in one source, in the order
// [Scan] reports them.
type Document struct {
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Requests []*Request `json:"requests"       yaml:"requests"`
}

// NewDocument collects the requests of invs.
func NewDocument(name string, invs []*Invocation) *Document {
	d := &Document{Name: name, Requests: make([]*Request, 0, len(invs))}
	for _, inv := range invs {
		d.Requests = append(d.Requests, inv.Request)
	}

	return d
}

// Format writes every request in invocation syntax, one per line. With a
// positive indent, bindings are written one per line with a trailing comma.
func (d *Document) Format(_ context.Context, w io.Writer, macro string, indent int) error {
	for _, r := range d.Requests {
		if _, err := fmt.Fprintln(w, formatRequest(r, macro, indent)); err != nil {
			return err
		}
	}

	return nil
}

func formatRequest(r *Request, macro string, indent int) string {
	if indent <= 0 || len(r.Bindings) == 0 {
		return r.Format(macro)
	}

	if macro == "" {
		macro = DefaultMacro
	}

	var b strings.Builder

	b.WriteString(macro + "!")

	if r.Type != "" {
		b.WriteString("[" + r.Type + "]")
	}

	b.WriteString("([\n")

	pad := strings.Repeat(" ", indent)
	for _, bind := range r.Bindings {
		b.WriteString(pad + bind.String() + ",\n")
	}

	b.WriteString("], " + r.Trailing.Text + ")")

	return b.String()
}

// FormatJSON writes d as JSON.
func (d *Document) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(d, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(d)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes d as YAML, in flow style when indent is not positive.
func (d *Document) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent), yaml.IndentSequence(true))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, d.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// Print writes d as an indented tree.
func (d *Document) Print(w io.Writer) {
	name := d.Name
	if name == "" {
		name = "-"
	}

	fmt.Fprintf(w, "Document %s (%d)\n", name, len(d.Requests))

	for _, r := range d.Requests {
		fmt.Fprintf(w, "  Request @%s", r.Pos)

		if r.Type != "" {
			fmt.Fprintf(w, " type=%s", r.Type)
		}

		fmt.Fprintln(w)

		for _, b := range r.Bindings {
			mut := ""
			if b.Mutable {
				mut = " mut"
			}

			switch src := b.Source.(type) {
			case Alias:
				fmt.Fprintf(w, "    Alias%s %s @%s\n", mut, src.Ident, b.Pos)
				fmt.Fprintf(w, "      Expr %q @%s\n", src.Expr.Text, src.Expr.Pos)
			case Name:
				fmt.Fprintf(w, "    Name%s %s @%s\n", mut, src.Ident, b.Pos)
			}
		}

		fmt.Fprintf(w, "    Trailing %q @%s\n", r.Trailing.Text, r.Trailing.Pos)
	}
}

// ToMap returns d as nested maps and slices for generic encoders.
func (d *Document) ToMap() map[string]any {
	reqs := make([]any, len(d.Requests))
	for i, r := range d.Requests {
		reqs[i] = r.ToMap()
	}

	m := map[string]any{"requests": reqs}
	if d.Name != "" {
		m["name"] = d.Name
	}

	return m
}

// ToMap returns r as nested maps and slices for generic encoders.
func (r *Request) ToMap() map[string]any {
	binds := make([]any, len(r.Bindings))
	for i, b := range r.Bindings {
		binds[i] = b.ToMap()
	}

	m := map[string]any{
		"bindings": binds,
		"trailing": r.Trailing.Text,
	}

	if r.Type != "" {
		m["type"] = r.Type
	}

	if r.Pos.IsValid() {
		m["pos"] = r.Pos.String()
	}

	return m
}

// ToMap returns b as a map for generic encoders.
func (b Binding) ToMap() map[string]any {
	rec := b.record()

	m := map[string]any{
		"kind":    rec.Kind,
		"ident":   rec.Ident,
		"mutable": rec.Mutable,
	}

	if rec.Expr != "" {
		m["expr"] = rec.Expr
	}

	return m
}

type bindingRecord struct {
	Kind    string    `json:"kind"`
	Ident   string    `json:"ident"`
	Expr    string    `json:"expr,omitempty"`
	Mutable bool      `json:"mutable"`
	Pos     *Position `json:"pos,omitempty"`
}

func (b Binding) record() bindingRecord {
	rec := bindingRecord{Kind: "name", Ident: b.Ident(), Mutable: b.Mutable}

	if a, ok := b.Source.(Alias); ok {
		rec.Kind = "alias"
		rec.Expr = a.Expr.Text
	}

	if b.Pos.IsValid() {
		pos := b.Pos
		rec.Pos = &pos
	}

	return rec
}

// MarshalJSON implements [json.Marshaler].
func (b Binding) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.record())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (b *Binding) UnmarshalJSON(data []byte) error {
	var rec bindingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	switch rec.Kind {
	case "name", "":
		b.Source = Name{Ident: rec.Ident}
	case "alias":
		b.Source = Alias{Expr: Expr{Text: rec.Expr}, Ident: rec.Ident}
	default:
		return fmt.Errorf("unknown binding kind %q", rec.Kind)
	}

	b.Mutable = rec.Mutable
	if rec.Pos != nil {
		b.Pos = *rec.Pos
	}

	return nil
}

type requestRecord struct {
	Type     string    `json:"type,omitempty"`
	Pos      *Position `json:"pos,omitempty"`
	Bindings []Binding `json:"bindings"`
	Trailing string    `json:"trailing"`
}

// MarshalJSON implements [json.Marshaler].
func (r *Request) MarshalJSON() ([]byte, error) {
	rec := requestRecord{Type: r.Type, Bindings: r.Bindings, Trailing: r.Trailing.Text}
	if rec.Bindings == nil {
		rec.Bindings = []Binding{}
	}

	if r.Pos.IsValid() {
		pos := r.Pos
		rec.Pos = &pos
	}

	return json.Marshal(rec)
}

// UnmarshalJSON implements [json.Unmarshaler]. Decoded requests have no
// source text, so expanding them reports errors without positions.
func (r *Request) UnmarshalJSON(data []byte) error {
	var rec requestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	*r = Request{Bindings: rec.Bindings, Type: rec.Type, Trailing: Expr{Text: rec.Trailing}}
	if rec.Pos != nil {
		r.Pos = *rec.Pos
	}

	return nil
}

// MarshalYAML implements the goccy/go-yaml InterfaceMarshaler.
func (r *Request) MarshalYAML() (any, error) {
	return r.ToMap(), nil
}
