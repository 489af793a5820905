// Package logging builds the leveled loggers shared by every component.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`

// ParseLevel maps a LOG_LEVEL value onto a gommon level.
func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("logging: unknown level %q", s)
}

// New returns a logger tagged with prefix.
func New(prefix string, level log.Lvl) *log.Logger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// OrDefault returns l, or an info-level logger tagged with prefix when l is nil.
func OrDefault(l *log.Logger, prefix string) *log.Logger {
	if l != nil {
		return l
	}
	return New(prefix, log.INFO)
}
