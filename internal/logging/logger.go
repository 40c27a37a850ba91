// Package logging provides the process-wide structured logger. Entries go
// to a writer in logfmt-style lines, into a bounded in-memory buffer, and
// out to live subscribers via a hub.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultBufferSize = 256

// Logger writes leveled, structured entries. Derived loggers from With
// share the same writer, buffer, and hub.
type Logger struct {
	mu       *sync.Mutex
	out      io.Writer
	buffer   *LogBuffer
	hub      *LogHub
	minLevel Level
	base     map[string]string
}

// NewLogger returns a logger writing to stderr at Info level.
func NewLogger() *Logger {
	return NewLoggerWithOutput(os.Stderr, LevelInfo)
}

// NewLoggerWithOutput returns a logger writing to out, dropping entries
// below min.
func NewLoggerWithOutput(out io.Writer, min Level) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{
		mu:       &sync.Mutex{},
		out:      out,
		buffer:   NewLogBuffer(defaultBufferSize),
		hub:      NewLogHub(),
		minLevel: min,
		base:     nil,
	}
}

// ParseLevel maps a user-supplied level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// With returns a derived logger whose entries always carry fields.
func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return nil
	}
	merged := cloneFields(l.base)
	for k, v := range fields {
		if merged == nil {
			merged = make(map[string]string, len(fields))
		}
		merged[k] = v
	}
	clone := *l
	clone.base = merged
	return &clone
}

// Enabled reports whether entries at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level.severity() >= l.minLevel.severity()
}

// Buffer exposes the retained recent entries.
func (l *Logger) Buffer() *LogBuffer {
	if l == nil {
		return nil
	}
	return l.buffer
}

// Subscribe attaches a live listener to the logger's hub.
func (l *Logger) Subscribe(bufferSize int) (<-chan LogEntry, func()) {
	if l == nil {
		ch := make(chan LogEntry)
		close(ch)
		return ch, func() {}
	}
	return l.hub.Subscribe(bufferSize)
}

// Close shuts down the hub. The logger remains usable for writing.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.hub.Close()
}

func (l *Logger) Debug(msg string, fields ...map[string]string) {
	l.log(LevelDebug, msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]string) {
	l.log(LevelInfo, msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]string) {
	l.log(LevelWarn, msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]string) {
	l.log(LevelError, msg, fields)
}

func (l *Logger) log(level Level, msg string, extra []map[string]string) {
	if l == nil || !l.Enabled(level) {
		return
	}
	merged := cloneFields(l.base)
	for _, fields := range extra {
		for k, v := range fields {
			if merged == nil {
				merged = make(map[string]string, len(fields))
			}
			merged[k] = v
		}
	}
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Fields:    merged,
	}
	l.buffer.Add(entry)
	l.hub.Broadcast(entry)
	line := formatEntry(entry)
	l.mu.Lock()
	fmt.Fprintln(l.out, line)
	l.mu.Unlock()
}

// formatEntry renders one entry as a single line with sorted field keys so
// output is stable across runs.
func formatEntry(entry LogEntry) string {
	var sb strings.Builder
	sb.WriteString(entry.Timestamp.Format(time.RFC3339))
	sb.WriteString(" level=")
	sb.WriteString(string(entry.Level))
	sb.WriteString(" msg=")
	sb.WriteString(quoteValue(entry.Message))
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(" ")
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(quoteValue(entry.Fields[k]))
		}
	}
	return sb.String()
}

func quoteValue(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func cloneFields(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
