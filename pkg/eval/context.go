package eval

import "log/slog"

// EvalContext is the state of evaluating one line.
type EvalContext struct {
	// Whether words with glob metacharacters are expanded against the
	// filesystem.
	ExpandPaths bool
	Escapes     EscapeMap
	Stats       Stats
}

// Stats counts work done during evaluation.
type Stats struct {
	Expansions  int
	Expressions int
}

func (s *Stats) add(other Stats) {
	s.Expansions += other.Expansions
	s.Expressions += other.Expressions
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("expansions", s.Expansions),
		slog.Int("expressions", s.Expressions))
}
