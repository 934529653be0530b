package tlsutil

import (
	"log/slog"
	"os"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/gotimeout/internal/log"
)

// Options are used to configure reloadable TLS material.
type Options struct {
	// Log is the logger that will be used with the store.
	// Reloads are logged at debug level.
	// If nil, a noop logger is used.
	Log *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Noop
	}
	return o.Log
}

func fileModTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, errtrace.Wrap(err)
	}
	return fi.ModTime(), nil
}
