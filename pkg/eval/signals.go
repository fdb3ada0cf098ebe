package eval

import (
	"log/slog"
	"os"
	"os/signal"
)

// Keeps an interactive shell alive on Ctrl-C.
//
// The signals are caught with signal.Notify rather than ignored: dispositions
// of caught signals are reset to the default in exec'd children, while
// ignored ones would be inherited.
type signalCatcher struct {
	ch     chan os.Signal
	logger *slog.Logger
}

func newSignalCatcher(logger *slog.Logger) *signalCatcher {
	s := &signalCatcher{make(chan os.Signal, 1), logger}
	go func() {
		for sig := range s.ch {
			s.logger.Debug("caught signal", "signal", sig)
		}
	}()
	return s
}

// Installs the handlers. Calling it again re-arms them.
func (s *signalCatcher) arm() {
	signal.Notify(s.ch, interruptSignals...)
}

func (s *signalCatcher) disarm() {
	signal.Stop(s.ch)
}
