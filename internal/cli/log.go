package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// newLogger returns a text logger writing to w with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logFormats maps --log-format values to formatters. JSON and logfmt are
// meant for serve running under a log collector.
var logFormats = map[string]log.Formatter{
	"text":   log.TextFormatter,
	"json":   log.JSONFormatter,
	"logfmt": log.LogfmtFormatter,
}

// parseLogFormat resolves a --log-format value.
func parseLogFormat(name string) (log.Formatter, error) {
	f, ok := logFormats[strings.ToLower(name)]
	if !ok {
		return 0, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown log format %q (want text, json or logfmt)", name)
	}
	return f, nil
}
