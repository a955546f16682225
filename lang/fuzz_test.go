package lang

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"
)

// FuzzParse checks that parsing never panics, that every failure is a
// located ErrMalformed, and that accepted requests survive formatting.
func FuzzParse(f *testing.F) {
	f.Add(`[a, mut b, { s.Len() } as n], a + b + n`)
	f.Add(`[], x`)
	f.Add(`[a,], a,`)
	f.Add(`[a b], a`)
	f.Add(`[, a], a`)
	f.Add(`[{ x } as], x`)
	f.Add(`"unterminated`)
	f.Add("[a, `raw\n`], a")
	f.Add(`[]int{1}[0]`)

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		ctx := context.Background()

		req, err := Parse(ctx, input)
		if err != nil {
			var se *SourceError
			if !errors.As(err, &se) || !errors.Is(err, ErrMalformed) {
				t.Fatalf("unlocated error for %q: %v", input, err)
			}

			if off := se.Offset; off < 0 || off > len(input) {
				t.Fatalf("offset %d out of range for %q", off, input)
			}

			_ = se.Snippet()

			return
		}

		again, err := Parse(ctx, req.Args())
		if err != nil {
			t.Fatalf("formatted %q does not parse: %v", req.Args(), err)
		}

		if again.Args() != req.Args() {
			t.Fatalf("format not stable: %q != %q", again.Args(), req.Args())
		}
	})
}

// FuzzRewrite checks that rewriting arbitrary text never panics.
func FuzzRewrite(f *testing.F) {
	f.Add("package p\n\nvar x = clone!([a], a)\n")
	f.Add("package p\n\nvar x = clone![int]([a], clone!([b], a + b))\n")
	f.Add("clone!(")
	f.Add("x.clone!(a) // clone!(")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		_, _ = Rewrite(context.Background(), "fuzz.go", []byte(input))
	})
}
