// Package cli parses the command line of the interpreter.
package cli

import (
	"fmt"
	"io"
	"strings"

	"src.elv.sh/pkg/getopt"
)

// Flags is the parsed command line.
type Flags struct {
	// Read the whole line from stdin.
	Stdin bool
	// Parse lines without evaluating them.
	NoExec bool
	// Echo commands before running them.
	XTrace bool
	// Disable pathname expansion.
	NoGlob   bool
	PrintAST bool
	// Path of the configuration file; empty for the default location.
	Config string
	Help   bool

	// Words to evaluate as one line, joined with spaces.
	Words []string
}

// Line returns the words joined into the line to evaluate.
func (f *Flags) Line() string { return strings.Join(f.Words, " ") }

type flagSpec struct {
	getopt.OptionSpec
	argName string
	usage   string
	set     func(f *Flags, arg string)
}

var flagSpecs = []*flagSpec{
	{
		getopt.OptionSpec{Short: 'i'}, "",
		"read the line to evaluate from standard input",
		func(f *Flags, _ string) { f.Stdin = true },
	},
	{
		getopt.OptionSpec{Short: 'n', Long: "noexec"}, "",
		"parse lines without evaluating them",
		func(f *Flags, _ string) { f.NoExec = true },
	},
	{
		getopt.OptionSpec{Short: 'x', Long: "xtrace"}, "",
		"print commands before running them",
		func(f *Flags, _ string) { f.XTrace = true },
	},
	{
		getopt.OptionSpec{Short: 'f', Long: "noglob"}, "",
		"disable pathname expansion",
		func(f *Flags, _ string) { f.NoGlob = true },
	},
	{
		getopt.OptionSpec{Long: "print-ast"}, "",
		"print the syntax tree of each line",
		func(f *Flags, _ string) { f.PrintAST = true },
	},
	{
		getopt.OptionSpec{Long: "config", Arity: getopt.RequiredArgument}, "FILE",
		"read the configuration from FILE",
		func(f *Flags, arg string) { f.Config = arg },
	},
	{
		getopt.OptionSpec{Short: 'h', Long: "help"}, "",
		"show this help and exit",
		func(f *Flags, _ string) { f.Help = true },
	},
}

// Parse parses the arguments of the interpreter, excluding the program name.
//
// Options must precede words (BSD style): "shit ls -l" runs "ls -l" instead of
// treating -l as an option of the interpreter.
func Parse(args []string) (*Flags, error) {
	specs := make([]*getopt.OptionSpec, len(flagSpecs))
	bySpec := make(map[*getopt.OptionSpec]*flagSpec, len(flagSpecs))
	for i, fs := range flagSpecs {
		specs[i] = &fs.OptionSpec
		bySpec[specs[i]] = fs
	}
	opts, words, err := getopt.Parse(args, specs, getopt.BSD)
	if err != nil {
		return nil, err
	}
	f := &Flags{Words: words}
	for _, opt := range opts {
		bySpec[opt.Spec].set(f, opt.Argument)
	}
	return f, nil
}

// Usage writes the synopsis and the option table.
func Usage(w io.Writer, program string) {
	fmt.Fprintf(w, "usage: %s [OPTION]... [WORD]...\n", program)
	fmt.Fprintln(w, "Evaluate WORDs as one line; without WORDs, start an interactive shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	for _, fs := range flagSpecs {
		fmt.Fprintf(w, "  %-22s %s\n", names(fs), fs.usage)
	}
}

func names(fs *flagSpec) string {
	var parts []string
	if fs.Short != 0 {
		parts = append(parts, "-"+string(fs.Short))
	}
	if fs.Long != "" {
		parts = append(parts, "--"+fs.Long)
	}
	s := strings.Join(parts, ", ")
	if fs.argName != "" {
		s += " " + fs.argName
	}
	return s
}
