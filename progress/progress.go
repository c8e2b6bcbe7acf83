// Package progress records the human-readable outcome log of a fill run.
package progress

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

const (
	markOK   = "✓"
	markWarn = "⚠"
	markFail = "✗"
)

// Log is an ordered list of lines. Every line is mirrored to the structured
// logger at debug level. Safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	lines  []string
	logger *slog.Logger
}

// New returns an empty log. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) add(level slog.Level, line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	n := len(l.lines)
	l.mu.Unlock()
	l.logger.Log(context.Background(), level, "progress: line", "n", n, "text", line)
}

// Section opens a step: "=== title ===".
func (l *Log) Section(title string) { l.add(slog.LevelDebug, "=== "+title+" ===") }

// Info appends a plain line.
func (l *Log) Info(format string, args ...any) {
	l.add(slog.LevelDebug, fmt.Sprintf(format, args...))
}

// Ok appends a "✓" line.
func (l *Log) Ok(format string, args ...any) {
	l.add(slog.LevelDebug, markOK+" "+fmt.Sprintf(format, args...))
}

// Warn appends a "⚠" line.
func (l *Log) Warn(format string, args ...any) {
	l.add(slog.LevelDebug, markWarn+" "+fmt.Sprintf(format, args...))
}

// Fail appends a "✗" line.
func (l *Log) Fail(format string, args ...any) {
	l.add(slog.LevelDebug, markFail+" "+fmt.Sprintf(format, args...))
}

// Lines returns a copy of the log.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.lines...)
}

// Len is the number of lines.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

var strict = bluemonday.StrictPolicy()

// Untrusted cleans page-derived text before it enters the log: markup is
// stripped, whitespace collapsed, and the result cut to max runes (with an
// ellipsis). max <= 0 disables truncation.
func Untrusted(s string, max int) string {
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 {
		if r := []rune(s); len(r) > max {
			s = string(r[:max]) + "…"
		}
	}
	return s
}
