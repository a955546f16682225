package lang

import (
	"strings"
)

// Source is the value a [Binding] duplicates: either a [Name] or an [Alias].
type Source interface {
	// Bound returns the identifier the duplicate is bound to.
	Bound() string
	// Text returns the Go expression whose value is duplicated.
	Text() string

	isSource()
}

// Name duplicates the existing binding Ident and shadows it.
type Name struct {
	Ident string
}

func (n Name) Bound() string { return n.Ident }
func (n Name) Text() string  { return n.Ident }
func (Name) isSource()       {}

// Alias duplicates the value of Expr and binds it to Ident. Expr itself is
// never bound to a name.
type Alias struct {
	Expr  Expr
	Ident string
}

func (a Alias) Bound() string { return a.Ident }
func (a Alias) Text() string  { return a.Expr.Text }
func (Alias) isSource()       {}

// Expr is the verbatim text of a Go expression and where it began.
type Expr struct {
	Text string
	Pos  Position

	off int // byte offset within the parsed argument text
}

// Binding is one item of a binding list.
type Binding struct {
	Mutable bool
	Source  Source
	Pos     Position

	off int
}

// Ident returns the identifier declared by b.
func (b Binding) Ident() string {
	if b.Source == nil {
		return ""
	}

	return b.Source.Bound()
}

// IsAlias reports whether b duplicates an expression rather than a name.
func (b Binding) IsAlias() bool {
	_, ok := b.Source.(Alias)

	return ok
}

// String renders b in invocation syntax.
func (b Binding) String() string {
	var s strings.Builder

	if b.Mutable {
		s.WriteString("mut ")
	}

	switch src := b.Source.(type) {
	case Alias:
		s.WriteString("{ " + src.Expr.Text + " } as " + src.Ident)
	case Name:
		s.WriteString(src.Ident)
	}

	return s.String()
}

// Request is a parsed invocation: an ordered binding list and the trailing
// expression evaluated in their scope.
type Request struct {
	Bindings []Binding
	Trailing Expr
	// Type, if set, is the explicit result type written as clone![T](...).
	Type string
	Pos  Position

	origin origin
}

// Idents returns the identifiers declared by r, in order.
func (r *Request) Idents() []string {
	ids := make([]string, len(r.Bindings))
	for i, b := range r.Bindings {
		ids[i] = b.Ident()
	}

	return ids
}

// Args renders r's arguments in canonical invocation syntax.
func (r *Request) Args() string {
	if len(r.Bindings) == 0 {
		return r.Trailing.Text
	}

	items := make([]string, len(r.Bindings))
	for i, b := range r.Bindings {
		items[i] = b.String()
	}

	return "[" + strings.Join(items, ", ") + "], " + r.Trailing.Text
}

// Format renders r as a complete invocation of macro.
func (r *Request) Format(macro string) string {
	if macro == "" {
		macro = DefaultMacro
	}

	if r.Type != "" {
		macro += "![" + r.Type + "]"
	} else {
		macro += "!"
	}

	return macro + "(" + r.Args() + ")"
}

// origin relates offsets in a request's parsed argument text to the text
// its positions are reported in.
type origin struct {
	filename string
	src      string // text positions refer to
	base     int    // offset of the argument text within src
	edits    []edit // replacements applied to the argument text before parsing
}

// edit records that oldLen bytes at offset at of the original text were
// replaced with newLen bytes.
type edit struct {
	at, oldLen, newLen int
}

// abs maps an offset in the edited argument text to an offset in o.src.
// Offsets inside a replacement map to the start of the replaced text.
func (o origin) abs(off int) int {
	delta := 0

	for _, e := range o.edits {
		at := e.at + delta
		if off < at {
			break
		}

		if off < at+e.newLen {
			return o.base + e.at
		}

		delta += e.newLen - e.oldLen
	}

	return o.base + off - delta
}

func (o origin) position(off int) Position {
	p := positionAt(o.src, o.abs(off))
	p.Filename = o.filename

	return p
}

func (o origin) errorAt(err *Error, off int) *SourceError {
	return &SourceError{Err: err, Filename: o.filename, Source: o.src, Offset: o.abs(off)}
}

// locate sets r's origin and recomputes every position from it.
func (r *Request) locate(o origin) {
	r.origin = o
	r.Pos = o.position(0)
	r.Trailing.Pos = o.position(r.Trailing.off)

	for i := range r.Bindings {
		b := &r.Bindings[i]
		b.Pos = o.position(b.off)

		if a, ok := b.Source.(Alias); ok {
			a.Expr.Pos = o.position(a.Expr.off)
			b.Source = a
		}
	}
}

// errorAt locates err at byte offset off of r's argument text. Requests
// built by hand have no source and report no position.
func (r *Request) errorAt(err *Error, off int) error {
	if r.origin.src == "" {
		return err
	}

	return r.origin.errorAt(err, off)
}
