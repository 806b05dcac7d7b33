// Package logging configures the global zerolog logger of the dataflow
// command.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup directs the global logger to the semicolon-separated outputs in out
// (stdout, stderr or file paths) at the given level. The returned function
// closes any opened log files.
func Setup(out string, level zerolog.Level) (func(), error) {
	var (
		writers []io.Writer
		files   []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, split := range strings.Split(out, ";") {
		switch split = strings.TrimSpace(split); split {
		case "":
		case "stdout":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout})
		case "stderr":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
		default:
			f, err := os.OpenFile(split, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
			if err != nil {
				closeAll()
				return nil, errors.Wrapf(err, "failed to open log file %q", split)
			}
			files = append(files, f)
			writers = append(writers, zerolog.SyncWriter(f))
		}
	}
	log.Logger = New(zerolog.MultiLevelWriter(writers...), level)
	return closeAll, nil
}

// New returns a timestamped logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
