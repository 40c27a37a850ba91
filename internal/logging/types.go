package logging

import "time"

// Level names a log severity. Levels are ordered Debug < Info < Warn < Error.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// severity returns the numeric rank of a level for threshold checks.
func (l Level) severity() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

// LogEntry is one structured log record. Fields carries the flattened
// key/value pairs attached via Logger.With or per-call field maps.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Fields    map[string]string
}
