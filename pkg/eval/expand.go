package eval

import (
	"errors"
	"os"
	"strings"

	"github.com/toiletbril/shit/pkg/parse"
)

// Words of a simple command go through three steps before they become
// arguments:
//
//  1. Escape scanning. A backslash outside quotes escapes the byte after it
//     and is dropped, and all bytes inside quotes are escaped. Escaped bytes
//     are recorded in the EscapeMap by their source offset.
//  2. Tilde expansion. A leading unescaped "~" followed by "/" or the end of
//     the word becomes the home directory. "~user" is left alone.
//  3. Pathname expansion, done by (*frame).glob when the word has unescaped
//     metacharacters.
//
// The intermediate result is a [word], which remembers which parts are
// escaped for the purpose of parsing glob metacharacters.

var (
	ErrTrailingBackslash = errors.New("trailing backslash")
	ErrNoExpansion       = errors.New("no expansion found")
)

type word []wordSegment

// A word segment, along with the bit of whether it is quoted or not for the
// purpose of parsing of glob characters.
type wordSegment struct {
	text   string
	quoted bool
}

func (w word) String() string {
	var sb strings.Builder
	for _, seg := range w {
		sb.WriteString(seg.text)
	}
	return sb.String()
}

// Appends s, merging it into the last segment when the quoting matches.
func (w word) add(s string, quoted bool) word {
	if s == "" {
		return w
	}
	if n := len(w); n > 0 && w[n-1].quoted == quoted {
		w[n-1].text += s
		return w
	}
	return append(w, wordSegment{s, quoted})
}

// Splits the word at each occurrence of sep, quoted or not. The result has
// one more element than there are separators.
func (w word) split(sep byte) []word {
	words := []word{nil}
	for _, seg := range w {
		parts := strings.Split(seg.text, string(sep))
		for i, part := range parts {
			if i > 0 {
				words = append(words, nil)
			}
			last := len(words) - 1
			words[last] = words[last].add(part, seg.quoted)
		}
	}
	return words
}

// A byte of a word that survived escape scanning, with its source offset.
type wordByte struct {
	c      byte
	offset int
}

// Marks escaped bytes of w in the EscapeMap and returns the bytes that remain
// after dropping backslashes and quotes.
func (fm *frame) scanEscapes(w *parse.Word) ([]wordByte, error) {
	var out []wordByte
	for _, part := range w.Parts {
		if part.Kind == parse.String {
			start := part.Position + 1
			for i := 0; i < len(part.Text); i++ {
				fm.ctx.Escapes.Set(start + i)
				out = append(out, wordByte{part.Text[i], start + i})
			}
			continue
		}
		text := part.Text
		for i := 0; i < len(text); i++ {
			if text[i] != '\\' {
				out = append(out, wordByte{text[i], part.Position + i})
				continue
			}
			if i+1 == len(text) {
				return nil, parse.Errorf(parse.EvaluationError,
					parse.Location{Position: part.Position + i, Length: 1},
					"%w", ErrTrailingBackslash)
			}
			i++
			fm.ctx.Escapes.Set(part.Position + i)
			out = append(out, wordByte{text[i], part.Position + i})
		}
	}
	return out, nil
}

// Performs the first two steps of expansion.
func (fm *frame) scanWord(w *parse.Word) (word, error) {
	bytes, err := fm.scanEscapes(w)
	if err != nil {
		return nil, err
	}
	var result word
	for _, b := range bytes {
		result = result.add(string(b.c), fm.ctx.Escapes.Has(b.offset))
	}
	return fm.expandTilde(w, result)
}

func (fm *frame) expandTilde(n *parse.Word, w word) (word, error) {
	if len(w) == 0 || w[0].quoted || !strings.HasPrefix(w[0].text, "~") {
		return w, nil
	}
	s := w.String()
	if len(s) > 1 && s[1] != '/' {
		return w, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, parse.Errorf(parse.EvaluationError, n.Location,
			"cannot expand ~: %w", err)
	}
	fm.ctx.Stats.Expansions++
	// The result of tilde expansion is considered quoted and not subject to
	// further expansions.
	expanded := word{{home, true}}.add(w[0].text[1:], false)
	return append(expanded, w[1:]...), nil
}

// Expands a command word into arguments. Directories are always eligible
// results of pathname expansion; files only when files is true.
func (fm *frame) expandWord(w *parse.Word, files bool) ([]string, error) {
	scanned, err := fm.scanWord(w)
	if err != nil {
		return nil, err
	}
	if fm.ctx.ExpandPaths && scanned.hasMeta() {
		return fm.glob(w.Location, scanned, files)
	}
	return []string{scanned.String()}, nil
}

// Expands a word that must stay a single string, such as a redirection
// target. Pathname expansion is not performed.
func (fm *frame) expandLiteral(w *parse.Word) (string, error) {
	scanned, err := fm.scanWord(w)
	if err != nil {
		return "", err
	}
	return scanned.String(), nil
}
