package types

import "strings"

// Level is the severity of a logcat record
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelDebug   Level = "debug"
	LevelVerbose Level = "verbose"
)

// Markers that identify an application-not-responding record. Matching is case-sensitive.
const (
	ANRMarker     = "ANR"
	ANRLongMarker = "Application Not Responding"
)

// LogRecord represents one successfully parsed logcat line
type LogRecord struct {
	Timestamp string `json:"timestamp"` // MM-DD HH:MM:SS.mmm, stored verbatim
	Level     Level  `json:"level"`
	Tag       string `json:"tag"`
	PID       string `json:"pid,omitempty"` // empty when the line carries no pid
	Message   string `json:"message"`
	Raw       string `json:"raw,omitempty"` // Original trimmed line
}

// IsError reports whether the record was logged at error level
func (r *LogRecord) IsError() bool {
	return r.Level == LevelError
}

// IsANR reports whether the record signals an application-not-responding event
func (r *LogRecord) IsANR() bool {
	return strings.Contains(r.Message, ANRMarker) || strings.Contains(r.Message, ANRLongMarker)
}

// Category is a failure domain assigned to error records
type Category string

const (
	CategoryBluetooth  Category = "bluetooth"
	CategoryNetwork    Category = "network"
	CategoryANR        Category = "anr"
	CategoryService    Category = "service"
	CategoryFile       Category = "file"
	CategoryPermission Category = "permission"
	CategoryMemory     Category = "memory"
	CategoryOther      Category = "other"
)

// CategorizedError is an error record bound to exactly one category
type CategorizedError struct {
	Record   *LogRecord
	Category Category
}

// ANRDetail is the extracted summary of one application-not-responding event
type ANRDetail struct {
	Timestamp string  `json:"timestamp"`
	PID       *string `json:"pid"`
	Process   string  `json:"process"`
	Message   string  `json:"message"`
}

// RunStats tracks line-level counters for a single analysis pass
type RunStats struct {
	LinesRead int64 `json:"lines_read"`
	Blank     int64 `json:"blank"`
	Parsed    int64 `json:"parsed"`
	Dropped   int64 `json:"dropped"`
}
