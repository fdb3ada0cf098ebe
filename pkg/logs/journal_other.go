//go:build !unix

package logs

import (
	"errors"
	"log/slog"
)

var errNoJournal = errors.New("the systemd journal is only available on unix")

func newJournalHandler() (slog.Handler, error) {
	return nil, errNoJournal
}
