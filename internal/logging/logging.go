// Package logging provides the structured logger shared by all kluster components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	// DebugLevel for debug messages
	DebugLevel LogLevel = "debug"
	// InfoLevel for informational messages
	InfoLevel LogLevel = "info"
	// WarnLevel for warning messages
	WarnLevel LogLevel = "warn"
	// ErrorLevel for error messages
	ErrorLevel LogLevel = "error"
)

var levelPriority = map[LogLevel]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// Format represents the output format for logs
type Format string

const (
	// JSONFormat outputs logs as JSON lines
	JSONFormat Format = "json"
	// HumanFormat outputs logs in human-readable format
	HumanFormat Format = "human"
)

// Config holds logger configuration
type Config struct {
	Format Format
	Level  LogLevel
	Output io.Writer // Optional, defaults to stderr
}

// Logger provides leveled structured logging
type Logger struct {
	config Config
	writer io.Writer
	base   map[string]interface{}
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config Config) *Logger {
	writer := config.Output
	if writer == nil {
		writer = os.Stderr
	}
	return &Logger{config: config, writer: writer}
}

// With returns a child logger that attaches the given fields to every entry
func (l *Logger) With(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{config: l.config, writer: l.writer, base: merged}
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) log(level LogLevel, message string, fields map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.config.Level] {
		return
	}

	merged := fields
	if len(l.base) > 0 {
		merged = make(map[string]interface{}, len(l.base)+len(fields))
		for k, v := range l.base {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    merged,
	}

	if l.config.Format == JSONFormat {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Fprintln(l.writer, string(data))
		return
	}

	fmt.Fprintf(l.writer, "%s [%s] %s", e.Timestamp, e.Level, e.Message)
	if len(e.Fields) > 0 {
		// Stable key order so human output is diffable
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprint(l.writer, " |")
		for _, k := range keys {
			fmt.Fprintf(l.writer, " %s=%v", k, e.Fields[k])
		}
	}
	fmt.Fprintln(l.writer)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.log(DebugLevel, message, fields)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.log(InfoLevel, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.log(WarnLevel, message, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.log(ErrorLevel, message, fields)
}
