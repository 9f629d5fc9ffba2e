package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// New returns an info-level text logger on stderr.
func New() *slog.Logger {
	return NewWithOptions(os.Stderr, "info", "text")
}

// NewWithOptions builds a slog logger backed by charmbracelet/log.
// Unknown levels fall back to info, unknown formats to text.
func NewWithOptions(w io.Writer, level, format string) *slog.Logger {
	lvl, err := charmlog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = charmlog.InfoLevel
	}

	formatter := charmlog.TextFormatter
	switch strings.ToLower(format) {
	case "json":
		formatter = charmlog.JSONFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Level:           lvl,
		Formatter:       formatter,
	})
	return slog.New(handler)
}
