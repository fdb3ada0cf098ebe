package parse

import (
	"errors"
	"fmt"
	"strings"

	"src.elv.sh/pkg/diag"
)

// ErrorKind classifies errors by the stage that produced them.
type ErrorKind int

const (
	LexicalError ErrorKind = iota
	SyntaxError
	EvaluationError
	ResolutionError
	OSError
)

var errorKindNames = [...]string{
	LexicalError:    "lexer error",
	SyntaxError:     "parser error",
	EvaluationError: "evaluation error",
	ResolutionError: "resolution error",
	OSError:         "os error",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return "error"
	}
	return errorKindNames[k]
}

// Causes that callers may want to test for with errors.Is.
var (
	ErrUnknownCharacter   = errors.New("unknown character")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrUnterminatedParen  = errors.New("unterminated parenthesis")
	ErrNestingLimit       = errors.New("nesting limit exceeded")
	ErrUnsupported        = errors.New("not supported")
)

// Error is the error type used throughout the interpreter. It optionally
// points into the source text of the line being evaluated.
type Error struct {
	Kind     ErrorKind
	Message  string
	Location Location
	Located  bool
	// The underlying cause, if any.
	Err error
}

// Errorf builds a located error. The format is interpreted by fmt.Errorf, so
// %w can be used to record a cause.
func Errorf(kind ErrorKind, loc Location, format string, args ...any) *Error {
	e := Unlocatedf(kind, format, args...)
	e.Location = loc
	e.Located = true
	return e
}

// Unlocatedf is like Errorf, for errors that don't belong to a specific part
// of the source.
func Unlocatedf(kind ErrorKind, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: err.Error(), Err: errors.Unwrap(err)}
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Range implements diag.Ranger.
func (e *Error) Range() diag.Ranging { return e.Location.Range() }

// Context returns the part of src the error points to, named name. It returns
// nil for unlocated errors.
func (e *Error) Context(name, src string) *diag.Context {
	if !e.Located {
		return nil
	}
	r := e.Range()
	r.From = min(r.From, len(src))
	r.To = min(max(r.To, r.From), len(src))
	return diag.NewContext(name, src, r)
}

// Header returns the first line of the rendered error, with the line and
// column computed from src.
func (e *Error) Header(src string) string {
	if !e.Located {
		return e.Error()
	}
	line, col := LineColumn(src, e.Location.Position)
	return fmt.Sprintf("%v: %d:%d: %s", e.Kind, line, col, e.Message)
}

// Width of the source context shown on each side of the error position.
const contextWidth = 32

// Snippet returns the line of src containing the error, clipped to a fixed
// window around the error position, followed by a line marking the span. It
// returns an empty string for unlocated errors.
func (e *Error) Snippet(src string) string {
	if !e.Located {
		return ""
	}
	pos := e.Location.Position
	if pos > len(src) {
		pos = len(src)
	}
	lineStart := strings.LastIndexByte(src[:pos], '\n') + 1
	lineEnd := len(src)
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		lineEnd = pos + i
	}
	line := src[lineStart:lineEnd]
	col := pos - lineStart

	from, to := 0, len(line)
	if col > contextWidth {
		from = col - contextWidth
	}
	if to-from > 2*contextWidth {
		to = from + 2*contextWidth
	}
	var prefix, suffix string
	if from > 0 {
		prefix = "..."
	}
	if to < len(line) {
		suffix = "..."
	}

	width := e.Location.Length
	if col+width > to {
		width = to - col
	}
	if width < 1 {
		width = 1
	}

	var sb strings.Builder
	sb.WriteString("  " + prefix + strings.ReplaceAll(line[from:to], "\t", " ") + suffix + "\n")
	sb.WriteString("  " + strings.Repeat(" ", len(prefix)+col-from))
	sb.WriteString("^" + strings.Repeat("~", width-1) + "\n")
	return sb.String()
}

// Show renders the error against src: the header followed by the snippet.
func (e *Error) Show(src string) string {
	return e.Header(src) + "\n" + e.Snippet(src)
}
