// Package span holds source positions shared by the Java model, the manifest
// model and resolution targets.
package span

import "fmt"

// Position is a 1-based line and 1-based byte column.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is a half-open range [Start, End).
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s.Start.Line == 0 && s.End.Line == 0
}

// Contains reports whether pos lies within the span. The end position is
// included so that a cursor placed right after a token still hits it.
func (s Span) Contains(pos Position) bool {
	if pos.Before(s.Start) {
		return false
	}
	return !s.End.Before(pos)
}
