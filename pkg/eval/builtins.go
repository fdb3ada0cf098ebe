package eval

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"mvdan.cc/sh/v3/expand"
)

var builtins = map[string]func(*builtinContext, []string) int{
	"cd":     cd,
	"echo":   echo,
	"pwd":    pwd,
	"whoami": whoami,
}

func init() {
	// which looks names up in builtins, so it is added here to avoid an
	// initialization cycle.
	builtins["which"] = which
}

// What a builtin sees of the shell. Builtins don't read input.
type builtinContext struct {
	fm     *frame
	stdout io.Writer
	stderr io.Writer
}

// Runs a builtin stage with its descriptor table. Inside a pipeline, an exit
// request only ends the stage.
func (fm *frame) runBuiltin(ec *execContext, inPipeline bool) (int64, error) {
	bc := &builtinContext{
		fm:     fm,
		stdout: writerOrDiscard(ec.files[1]),
		stderr: writerOrDiscard(ec.files[2]),
	}
	status, err := ec.builtin(bc, ec.args)
	ec.closeOwned()
	if fm.ev.interactive {
		fm.ev.signals.arm()
	}
	var exit *ExitRequest
	if inPipeline && errors.As(err, &exit) {
		return int64(exit.Code), nil
	}
	return int64(status), err
}

func writerOrDiscard(f *os.File) io.Writer {
	if f == nil {
		return io.Discard
	}
	return f
}

// builtinCommand parses the flags of a builtin and prints its help.
type builtinCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// NeverBail runs the callback with the unparsed arguments when the flags
	// can't be parsed, instead of printing an error.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (c *builtinCommand) Flags() *getopt.Set {
	if c.flags == nil {
		c.flags = getopt.New()
	}
	return c.flags
}

// PrintHelp writes help for the command to the given writer.
func (c *builtinCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, c.Use)
	fmt.Fprintln(w, c.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	c.Flags().PrintOptions(w)
}

// Run parses args, which start with the command name, and calls the
// callback with the remaining operands if parsing was successful.
func (c *builtinCommand) Run(bc *builtinContext, args []string, callback func(operands []string) int) int {
	opts := c.Flags()
	help := opts.BoolLong("help", 'h', "show this help and exit")

	if err := opts.Getopt(args, nil); err != nil {
		if c.NeverBail {
			opts.Reset()
			return callback(args[1:])
		}
		fmt.Fprintf(bc.stderr, "%s: %s\n\n", args[0], err)
		c.PrintHelp(bc.stderr)
		return StatusError
	}
	if *help {
		c.PrintHelp(bc.stdout)
		return 0
	}
	return callback(opts.Args())
}

// Interprets backslash escapes the way printf does. Format reads past the end
// of a trailing escape, so the input gets a terminator. Output that stopped
// at a \x00 escape never has one.
func unescape(s string) string {
	cfg := &expand.Config{}
	out, _, _ := expand.Format(cfg, s+"\n", nil)
	if !strings.HasSuffix(out, "\n") {
		return out
	}
	if check, _, _ := expand.Format(cfg, s+".", nil); !strings.HasSuffix(check, ".") {
		return out
	}
	return out[:len(out)-1]
}

func echo(bc *builtinContext, args []string) int {
	cmd := &builtinCommand{
		Use:   "echo [-ne] [ARG]...",
		Short: "Display a line of text.",
		// Unknown flags are printed as arguments.
		NeverBail: true,
	}
	opt := cmd.Flags()
	noNewline := opt.BoolLong("no-newlines", 'n', "do not output the trailing newline")
	escapes := opt.BoolLong("escapes", 'e', "interpret backslash escapes")

	return cmd.Run(bc, args, func(operands []string) int {
		s := strings.Join(operands, " ")
		if *escapes {
			s = unescape(s)
		}
		if !*noNewline {
			s += "\n"
		}
		if _, err := io.WriteString(bc.stdout, s); err != nil {
			fmt.Fprintln(bc.stderr, "echo:", err)
			return StatusError
		}
		return 0
	})
}

func cd(bc *builtinContext, args []string) int {
	cmd := &builtinCommand{
		Use:   "cd [DIR]",
		Short: "Change the working directory. Without DIR, go to the parent directory.",
	}
	return cmd.Run(bc, args, func(operands []string) int {
		dir := ".."
		if len(operands) > 0 {
			dir = strings.Join(operands, " ")
		}
		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(bc.stderr, "cd: %s: %s\n", dir, describeError(err))
			return StatusError
		}
		if wd, err := os.Getwd(); err == nil {
			os.Setenv("PWD", wd)
			bc.fm.ev.logger.Debug("changed directory", "dir", wd)
		}
		return 0
	})
}

// Describes an error from the os package without repeating the path.
func describeError(err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, os.ErrNotExist) {
			return "no such directory"
		}
		return pathErr.Err.Error()
	}
	return err.Error()
}

func pwd(bc *builtinContext, args []string) int {
	cmd := &builtinCommand{
		Use:   "pwd",
		Short: "Print the working directory.",
	}
	return cmd.Run(bc, args, func([]string) int {
		wd, err := bc.fm.ev.getwd()
		if err != nil {
			fmt.Fprintln(bc.stderr, "pwd:", err)
			return StatusError
		}
		fmt.Fprintln(bc.stdout, wd)
		return 0
	})
}

func which(bc *builtinContext, args []string) int {
	cmd := &builtinCommand{
		Use:   "which [-a] COMMAND...",
		Short: "Locate a command.",
	}
	all := cmd.Flags().BoolLong("all", 'a', "print all matches in PATH")

	return cmd.Run(bc, args, func(operands []string) int {
		status := 0
		wd, _ := bc.fm.ev.getwd()
		for _, name := range operands {
			_, special := specialBuiltins[name]
			_, regular := builtins[name]
			if special || regular {
				fmt.Fprintf(bc.stdout, "%s: shell builtin\n", name)
				if !*all {
					continue
				}
			}
			paths, _ := lookPathAll(name, wd, os.Getenv("PATH"), *all)
			for _, path := range paths {
				fmt.Fprintln(bc.stdout, path)
			}
			if len(paths) == 0 && !special && !regular {
				fmt.Fprintf(bc.stderr, "which: %s not found\n", name)
				status = StatusError
			}
		}
		return status
	})
}

// Overridden in tests.
var currentUser = user.Current

func whoami(bc *builtinContext, args []string) int {
	cmd := &builtinCommand{
		Use:   "whoami",
		Short: "Print the current user.",
	}
	return cmd.Run(bc, args, func([]string) int {
		u, err := currentUser()
		if err != nil {
			fmt.Fprintln(bc.stderr, "whoami: cannot find the current user:", err)
			return StatusError
		}
		fmt.Fprintln(bc.stdout, u.Username)
		return 0
	})
}
