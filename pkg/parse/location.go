package parse

import (
	"strings"

	"src.elv.sh/pkg/diag"
)

// Location is a span of the source text, measured in bytes.
type Location struct {
	Position int
	Length   int
}

// Loc returns l itself, so that types embedding a Location satisfy the Loc
// method of Node.
func (l Location) Loc() Location { return l }

// End returns the offset just past the span.
func (l Location) End() int { return l.Position + l.Length }

// Range implements diag.Ranger.
func (l Location) Range() diag.Ranging {
	return diag.Ranging{From: l.Position, To: l.End()}
}

// Returns the smallest span covering both a and b.
func span(a, b Location) Location {
	from, to := a.Position, a.End()
	if b.Position < from {
		from = b.Position
	}
	if b.End() > to {
		to = b.End()
	}
	return Location{from, to - from}
}

// LineColumn returns the 1-based line and column of offset in src. Columns
// count bytes.
func LineColumn(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, col
}
