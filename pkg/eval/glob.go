package eval

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/pattern"

	"github.com/toiletbril/shit/pkg/parse"
)

// Returns the word as a pattern, with quoted segments escaped so that only
// unquoted metacharacters are special.
func (w word) pattern() string {
	var sb strings.Builder
	for _, seg := range w {
		if seg.quoted {
			sb.WriteString(pattern.QuoteMeta(seg.text, 0))
		} else {
			sb.WriteString(seg.text)
		}
	}
	return sb.String()
}

func (w word) hasMeta() bool {
	return pattern.HasMeta(w.pattern(), 0)
}

// Performs pathname expansion on w, one path component at a time.
func (fm *frame) glob(loc parse.Location, w word, files bool) ([]string, error) {
	comps := w.split('/')
	prefixes := []string{""}
	if len(comps[0]) == 0 {
		// Absolute path
		prefixes = []string{"/"}
		comps = comps[1:]
	}
	trailingSlash := false
	if n := len(comps); n > 0 && len(comps[n-1]) == 0 {
		trailingSlash = true
		comps = comps[:n-1]
		files = false
	}

	globbed := false
	for i, comp := range comps {
		if len(comp) == 0 {
			continue
		}
		last := i == len(comps)-1
		if !comp.hasMeta() {
			lit := comp.String()
			var next []string
			for _, prefix := range prefixes {
				name := joinPath(prefix, lit)
				if globbed {
					if _, err := fm.ev.fs.Stat(fm.ev.abs(name)); err != nil {
						continue
					}
				}
				next = append(next, name)
			}
			prefixes = next
			continue
		}

		globbed = true
		re, err := compilePattern(comp.pattern())
		if err != nil {
			return nil, parse.Errorf(parse.EvaluationError, loc, "bad pattern: %w", err)
		}
		matchDot := strings.HasPrefix(comp.String(), ".")
		var next []string
		for _, prefix := range prefixes {
			infos, err := afero.ReadDir(fm.ev.fs, fm.ev.abs(prefix))
			if err != nil {
				fm.ev.logger.Debug("cannot read directory", "dir", prefix, "err", err)
				continue
			}
			for _, info := range infos {
				name := info.Name()
				if strings.HasPrefix(name, ".") && !matchDot {
					continue
				}
				if !info.IsDir() && !(last && files) {
					continue
				}
				if re.MatchString(name) {
					next = append(next, joinPath(prefix, name))
				}
			}
		}
		prefixes = next
		if len(prefixes) == 0 {
			break
		}
	}

	if len(prefixes) == 0 {
		return nil, parse.Errorf(parse.EvaluationError, loc, "%w", ErrNoExpansion)
	}
	fm.ctx.Stats.Expansions++
	if trailingSlash {
		for i := range prefixes {
			prefixes[i] += "/"
		}
	}
	sortNames(prefixes)
	return prefixes, nil
}

func compilePattern(pat string) (*regexp.Regexp, error) {
	expr, err := pattern.Regexp(pat, pattern.Filenames|pattern.EntireString)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(expr)
}

func joinPath(dir, name string) string {
	switch {
	case dir == "":
		return name
	case strings.HasSuffix(dir, "/"):
		return dir + name
	default:
		return dir + "/" + name
	}
}

// Makes a path produced by globbing absolute, relative to the working
// directory.
func (ev *Evaler) abs(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	wd, err := ev.getwd()
	if err != nil {
		return name
	}
	return filepath.Join(wd, name)
}

// Sorts names case-insensitively, with all punctuation weighted equally. The
// sort is stable, so names that only differ in punctuation keep the order in
// which they were found.
func sortNames(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		return strings.Compare(collationKey(a), collationKey(b))
	})
}

func collationKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return '!'
		}
		return unicode.ToLower(r)
	}, s)
}
