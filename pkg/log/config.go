package log

import (
	"bytes"
	stdlog "log"
	"strings"
)

// Config declares a logger in data form, suitable for flags and env vars.
type Config struct {
	// Level is one of debug|info|warn|error|fatal.
	Level string
	// Format is one of text|json.
	Format string
}

// ApplyConfig builds a Logger from a declarative Config.
func ApplyConfig(cfg *Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch cfg.Format {
	case "json", "JSON":
		formatter = &JSONFormatter{}
	case "text", "":
		formatter = &TextFormatter{}
	default:
		formatter = &TextFormatter{}
	}
	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
	), nil
}

// RedirectStdLog routes the standard library's default logger (used by
// Pebble among others) through the provided Logger at info level.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdLogAdapter{logger: logger})
}

type stdLogAdapter struct {
	logger Logger
}

func (a stdLogAdapter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(bytes.TrimRight(p, "\n")), " ")
	if msg != "" {
		a.logger.Info(msg, Str("source", "stdlog"))
	}
	return len(p), nil
}
