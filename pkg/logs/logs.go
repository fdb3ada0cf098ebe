// Package logs builds the logger of the interpreter.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/afero"
)

// Options selects where logs go.
type Options struct {
	// One of debug, info, warn and error.
	Level string
	// Path of a file that logs are appended to.
	File string
	// Whether to also log to the systemd journal.
	Journal bool
}

type Logger = *slog.Logger

// New returns a logger writing according to opts, and a function that closes
// the log file. With neither a file nor the journal, logs are discarded.
func New(fs afero.Fs, opts Options) (Logger, func() error, error) {
	level := new(slog.LevelVar)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, err
		}
	}

	var handlers []slog.Handler
	closeFn := func() error { return nil }

	var fileHandler slog.Handler
	if opts.File != "" {
		f, err := fs.OpenFile(opts.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closeFn = f.Close
		fileHandler = slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
		handlers = append(handlers, fileHandler)
	}

	if opts.Journal {
		journalHandler, err := newJournalHandler()
		if err != nil {
			if fileHandler != nil {
				record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
				record.Add("error", err)
				_ = fileHandler.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler), closeFn, nil
	}
	return slog.New(&Handler{
		Handler: slogmulti.Fanout(handlers...),
		Level:   level,
	}), closeFn, nil
}

// NewWriter returns a logger writing text to w, for tests and debugging.
func NewWriter(w io.Writer, level slog.Leveler) Logger {
	return slog.New(&Handler{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
		Level:   level,
	})
}

// Handler drops records below Level before they reach any of the fanned-out
// handlers.
type Handler struct {
	slog.Handler
	Level slog.Leveler
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.Level.Level() && h.Handler.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{h.Handler.WithAttrs(attrs), h.Level}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h.Handler.WithGroup(name), h.Level}
}

// Journal fields are upper case letters, digits and underscores.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	str = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
	return str
}
