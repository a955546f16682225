package lang

import "github.com/ardnew/clonelist/dup"

// scenario is scenarioSrc as Rewrite expands it.
func scenario() (a, b, d, inner int) {
	a, b, d = 7, 0, 12
	inner = func() int {
		a := dup.Of(a)
		b := dup.Of(b)
		d := dup.Of(d)
		return func() int { b = 42 - a - d; return b }()
	}()

	return a, b, d, inner
}
