package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"src.elv.sh/pkg/sys"

	"github.com/toiletbril/shit/pkg/cli"
	"github.com/toiletbril/shit/pkg/config"
	"github.com/toiletbril/shit/pkg/eval"
	"github.com/toiletbril/shit/pkg/logs"
	"github.com/toiletbril/shit/pkg/parse"
	"github.com/toiletbril/shit/pkg/repl"
)

const programName = "shit"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		cli.Usage(os.Stderr, programName)
		return eval.StatusSyntaxError
	}
	if flags.Help {
		cli.Usage(os.Stdout, programName)
		return 0
	}

	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot load configuration: %v\n", programName, err)
		cfg = config.Default()
	}

	logger, closeLog, err := logs.New(fs, logs.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Journal: cfg.Log.Journal,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot open log: %v\n", programName, err)
		return eval.StatusError
	}
	defer closeLog()

	ev := eval.NewEvaler(eval.StdFiles)
	ev.SetLogger(logger.With("component", "eval"))
	ev.SetColor(useColor(cfg.Color))
	ev.SetOption("noglob", flags.NoGlob || !cfg.PathExpansion)
	ev.SetOption("noexec", flags.NoExec)
	ev.SetOption("xtrace", flags.XTrace)

	le := &lineEvaler{ev, flags.PrintAST, os.Stdout}
	var code int
	switch {
	case flags.Stdin:
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
			return eval.StatusError
		}
		code = evalOnce(le, string(buf))
	case len(flags.Words) > 0:
		code = evalOnce(le, flags.Line())
	case sys.IsATTY(os.Stdin.Fd()):
		code = interact(le, cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "%s: no input\n", programName)
		code = eval.StatusError
	}

	ev.WaitBackground()
	logger.Debug("exiting", "code", code, "totals", ev.Totals())
	return code
}

func loadConfig(fs afero.Fs, path string) (*config.Configuration, error) {
	if path == "" {
		return config.LoadDefault(fs)
	}
	return config.Load(fs, path)
}

func useColor(setting string) bool {
	switch setting {
	case "always":
		return true
	case "never":
		return false
	default:
		return os.Getenv("TERM") != "dumb" && sys.IsATTY(os.Stderr.Fd())
	}
}

func evalOnce(le *lineEvaler, line string) int {
	status, err := le.Eval(line)
	var exit *eval.ExitRequest
	if errors.As(err, &exit) {
		return exit.Code
	}
	le.Report(line, err)
	return status
}

func interact(le *lineEvaler, cfg *config.Configuration, logger logs.Logger) int {
	historyFile, err := cfg.HistoryPath()
	if err != nil {
		logger.Warn("cannot find history file", "err", err)
	}
	rl, err := repl.NewReadline(historyFile, cfg.HistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return eval.StatusError
	}
	defer rl.Close()

	le.ev.SetInteractive(true)
	defer le.ev.SetInteractive(false)

	r := &repl.REPL{
		Reader: rl,
		Evaler: le,
		Prompt: func() string {
			return repl.ExpandPrompt(cfg.Prompt, repl.CurrentPromptInfo())
		},
		Logger: logger.With("component", "repl"),
	}
	code, err := r.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return eval.StatusError
	}
	return code
}

// Evaluates lines, printing their syntax tree first when asked to.
type lineEvaler struct {
	ev       *eval.Evaler
	printAST bool
	out      io.Writer
}

func (le *lineEvaler) Eval(code string) (int, error) {
	if le.printAST {
		n, err := parse.Parse(code)
		var e *parse.Error
		switch {
		case err == nil:
			fmt.Fprintln(le.out, parse.PprintAST(n))
		case errors.As(err, &e) && e.Located:
			fmt.Fprintf(le.out, "no tree: %s\n  %s\n", e.Message, e.Context("input", code).ShowCompact("  "))
		}
	}
	return le.ev.Eval(code)
}

func (le *lineEvaler) Report(code string, err error) { le.ev.Report(code, err) }
