package lang

import (
	"strconv"
	"strings"
)

// Position is a location in source text. Line and Column are 1-based;
// Column counts bytes.
type Position struct {
	Filename string `json:"file,omitempty" yaml:"file,omitempty"`
	Offset   int    `json:"offset"         yaml:"offset"`
	Line     int    `json:"line"           yaml:"line"`
	Column   int    `json:"column"         yaml:"column"`
}

// IsValid reports whether p refers to a location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	s := p.Filename
	if p.IsValid() {
		if s != "" {
			s += ":"
		}

		s += strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
	}

	if s == "" {
		s = "-"
	}

	return s
}

// positionAt returns the position of byte offset off in src. Offsets beyond
// either end of src are clamped.
func positionAt(src string, off int) Position {
	off = max(0, min(off, len(src)))

	line := 1 + strings.Count(src[:off], "\n")
	col := off + 1

	if i := strings.LastIndexByte(src[:off], '\n'); i >= 0 {
		col = off - i
	}

	return Position{Offset: off, Line: line, Column: col}
}

// shift returns p moved into a larger text in which p's text begins at
// byte offset base.
func (p Position) shift(filename, src string, base int) Position {
	q := positionAt(src, base+p.Offset)
	q.Filename = filename

	return q
}
