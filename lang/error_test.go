package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestError_Is(t *testing.T) {
	derived := ErrMalformed.Wrap(errors.New("cause")).With(slog.String("k", "v"))

	if !errors.Is(derived, ErrMalformed) {
		t.Error("derived error does not match its sentinel")
	}

	if errors.Is(derived, ErrEvaluate) {
		t.Error("derived error matches another sentinel")
	}

	located := derived.At("src", 1)
	if !errors.Is(located, ErrMalformed) {
		t.Error("located error does not match its sentinel")
	}

	wrapped := fmt.Errorf("outer: %w", located)
	if !errors.Is(wrapped, ErrMalformed) {
		t.Error("wrapped error does not match its sentinel")
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{ErrMalformed, "malformed invocation"},
		{ErrMalformed.Wrap(errors.New("bad")), "malformed invocation: bad"},
		{WrapError(errors.New("plain")), "plain"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	if WrapError(nil) != nil {
		t.Error("WrapError(nil) is not nil")
	}

	if e := ErrFormat.With(slog.Int("n", 1)); WrapError(fmt.Errorf("x: %w", e)) != e {
		t.Error("WrapError did not unwrap an *Error")
	}
}

func TestError_With(t *testing.T) {
	base := ErrEvaluate.With(slog.String("a", "1"))
	next := base.With(slog.String("b", "2"))

	if len(base.Attrs()) != 1 || len(next.Attrs()) != 2 {
		t.Errorf("attrs = %d, %d, want 1, 2", len(base.Attrs()), len(next.Attrs()))
	}

	if len(ErrEvaluate.Attrs()) != 0 {
		t.Error("sentinel modified")
	}

	v := next.LogValue()
	if v.Kind() != slog.KindGroup || len(v.Group()) != 3 {
		t.Errorf("log value = %v", v)
	}
}

func TestSourceError_Snippet(t *testing.T) {
	tests := []struct {
		name string
		src  string
		off  int
		want string
	}{
		{
			name: "first line",
			src:  "[a b], a",
			off:  3,
			want: "  1 | [a b], a\n         ^",
		},
		{
			name: "later line",
			src:  "[a,\n\tb c], a",
			off:  7,
			want: "  2 | \tb c], a\n      \t  ^",
		},
		{
			name: "end of input",
			src:  "[a]",
			off:  3,
			want: "  1 | [a]\n         ^",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := ErrMalformed.At(tt.src, tt.off)
			if got := se.Snippet(); got != tt.want {
				t.Errorf("snippet:\n%s\nwant:\n%s", got, tt.want)
			}

			if !strings.HasSuffix(se.Error(), tt.want) {
				t.Errorf("error does not end with snippet:\n%s", se.Error())
			}
		})
	}
}

func TestPosition_String(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{}, "-"},
		{Position{Filename: "a.go"}, "a.go"},
		{Position{Line: 2, Column: 3}, "2:3"},
		{Position{Filename: "a.go", Line: 2, Column: 3}, "a.go:2:3"},
	}

	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
