// Package repl implements the interactive loop of the shell.
package repl

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"github.com/toiletbril/shit/pkg/eval"
)

// LineReader reads lines from the user. *readline.Instance implements it.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	Close() error
}

// Evaluator evaluates lines and reports their errors. *eval.Evaler implements
// it.
type Evaluator interface {
	Eval(code string) (int, error)
	Report(code string, err error)
}

// NewReadline returns a line reader keeping up to limit lines of history in
// historyFile. An empty historyFile or a zero limit disables the history file.
func NewReadline(historyFile string, limit int) (*readline.Instance, error) {
	if limit == 0 {
		historyFile = ""
		// readline uses its own default for 0.
		limit = -1
	}
	return readline.NewEx(&readline.Config{
		HistoryFile:       historyFile,
		HistoryLimit:      limit,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
}

// REPL reads lines from Reader and evaluates them with Evaler until the input
// ends or exit is run.
type REPL struct {
	Reader LineReader
	Evaler Evaluator
	// Prompt is called before reading each line.
	Prompt func() string
	Logger *slog.Logger
}

// Run runs the loop. It returns the code the shell should exit with: the
// code given to exit, or the status of the last line at the end of input.
func (r *REPL) Run() (int, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	status := 0
	for {
		if r.Prompt != nil {
			r.Reader.SetPrompt(r.Prompt())
		}
		line, err := r.Reader.Readline()

		switch {
		case err == io.EOF:
			return status, nil

		case err == readline.ErrInterrupt:
			// The line being edited is dropped.
			continue

		case err != nil:
			return status, err

		case strings.TrimSpace(line) == "":
			continue
		}

		var exit *eval.ExitRequest
		status, err = r.Evaler.Eval(line)
		if errors.As(err, &exit) {
			logger.Debug("exit requested", "code", exit.Code)
			return exit.Code, nil
		}
		if err != nil {
			r.Evaler.Report(line, err)
		}
	}
}
