package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Sentinel errors. Test with [errors.Is]; errors derived from a sentinel
// with [Error.With] or [Error.Wrap] still match it.
var (
	ErrMalformed       = NewError("malformed invocation")
	ErrImmutableAssign = NewError("assignment to immutable binding")
	ErrUnterminated    = NewError("unterminated invocation")
	ErrFormat          = NewError("invalid Go source after expansion")
	ErrEvaluate        = NewError("evaluation failed")
	ErrReadInput       = NewError("failed to read input")
)

// Error is an error with structured attributes for logging.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	kind  *Error
}

// NewError returns a new sentinel error.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError returns err as an *Error, wrapping it if necessary.
func WrapError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.kind != nil && e.kind == t.kind
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap returns a copy of e that wraps err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs, kind: e.kind}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(append(merged, e.attrs...), attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged, kind: e.kind}
}

// At returns a [SourceError] locating e at byte offset off of src.
func (e *Error) At(src string, off int) *SourceError {
	return &SourceError{Err: e, Source: src, Offset: off}
}

// SourceError locates an error within the text it was found in and renders
// the offending line with a caret under the error column.
type SourceError struct {
	Err      *Error
	Filename string
	Source   string
	Offset   int
}

// Pos returns the location of the error.
func (e *SourceError) Pos() Position {
	p := positionAt(e.Source, e.Offset)
	p.Filename = e.Filename

	return p
}

func (e *SourceError) Error() string {
	var b strings.Builder

	b.WriteString(e.Pos().String())
	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	if s := e.Snippet(); s != "" {
		b.WriteByte('\n')
		b.WriteString(s)
	}

	return b.String()
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) LogValue() slog.Value {
	p := e.Pos()

	return slog.GroupValue(
		slog.String("pos", p.String()),
		slog.Any("err", e.Err),
	)
}

// Snippet renders the line containing the error, prefixed with its line
// number, and a caret marking the column.
func (e *SourceError) Snippet() string {
	p := positionAt(e.Source, e.Offset)
	if p.Line == 0 {
		return ""
	}

	line := e.Source[p.Offset-(p.Column-1):]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	num := strconv.Itoa(p.Line)

	var b strings.Builder

	b.WriteString("  " + num + " | " + strings.TrimRight(line, "\r") + "\n")
	b.WriteString(strings.Repeat(" ", len(num)+5))

	for _, r := range line[:p.Column-1] {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}

	b.WriteByte('^')

	return b.String()
}

// relocate returns e moved from the argument text it was found in to o.
func (e *SourceError) relocate(o origin) *SourceError {
	return o.errorAt(e.Err, e.Offset)
}
