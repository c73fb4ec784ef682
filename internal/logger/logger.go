// Package logger provides structured JSON logging and run metrics for the
// scrape pipeline.
//
// Every line is a JSON object with a timestamp, level, message, optional
// fields and optional error. Loggers derived with With carry fields such as
// the run ID or the store name on every line they write.
//
// Example usage:
//
//	log := logger.Default().With(logger.Fields{"run_id": runID})
//	log.Info("scraping date", logger.Fields{"date": "2025-11-10"})
//	log.Error("page fetch failed", logger.Fields{"tier": "fetch"}, err)
//
//	logger.IncrCounter("pages.fetched")
//	logger.RecordTiming("date.merge", time.Since(start))
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a config string such as "debug" to a Level
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log line
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger writes structured entries at or above a minimum level
type Logger struct {
	minLevel Level
	out      *output
	base     Fields
}

type output struct {
	mu sync.Mutex
	w  io.Writer
}

var defaultLogger = New(LevelInfo, os.Stderr)

// New creates a logger writing to w. Messages below level are discarded.
func New(level Level, w io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		out:      &output{w: w},
	}
}

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the package-level logger used by Debug, Info, Warn and Error
func SetDefault(l *Logger) {
	defaultLogger = l
}

// With returns a logger that adds fields to every entry. Per-call fields win on conflict.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{minLevel: l.minLevel, out: l.out, base: merged}
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
	}

	if len(l.base)+len(fields) > 0 {
		entry.Fields = make(Fields, len(l.base)+len(fields))
		for k, v := range l.base {
			entry.Fields[k] = v
		}
		for k, v := range fields {
			entry.Fields[k] = v
		}
	}

	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if marshalErr != nil {
		// plain text fallback keeps the line visible
		fmt.Fprintf(l.out.w, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}
	fmt.Fprintln(l.out.w, string(data))
}

// Debug logs detailed diagnostics such as individual page URLs
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs run progress
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a contained failure: a skipped page, row or date
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs a failure with its error value
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Debug logs with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}
