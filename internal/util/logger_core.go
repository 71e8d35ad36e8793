package util

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel orders log severities; entries below the logger level are dropped
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLogLevel parses a log level string, defaulting to info
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (lvl LogLevel) String() string {
	if lvl < LevelDebug || lvl > LevelError {
		return "UNKNOWN"
	}
	return levelNames[lvl]
}

// Field is one structured key/value attached to an entry
type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Output is a log destination
type Output interface {
	Write(entry LogEntry) error
	Close() error
}

// LogEntry is one rendered log record
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type contextKey string

// RequestEpochKey carries the loader request epoch through a context
const RequestEpochKey contextKey = "request_epoch"

// LoggerInterface is the logging surface used across the application
type LoggerInterface interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) LoggerInterface
	WithContext(ctx context.Context) LoggerInterface
}

// sink is shared by a logger and every child derived from it, so level
// changes and added outputs apply to all of them.
type sink struct {
	mu      sync.RWMutex
	level   LogLevel
	outputs []Output
	clock   Clock
}

// Logger writes structured entries to its sink
type Logger struct {
	sink   *sink
	fields []Field
}

// NewLogger creates a logger writing to logFile, and to stderr when debugToConsole is set.
// At least one destination is required.
func NewLogger(levelStr string, logFile string, debugToConsole bool, format LogFormat) (*Logger, error) {
	var outputs []Output
	if debugToConsole {
		outputs = append(outputs, NewConsoleOutput(os.Stderr, format))
	}
	if logFile != "" {
		fileOutput, err := NewFileOutput(logFile, format)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		outputs = append(outputs, fileOutput)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("log file must be specified when not in debug mode")
	}
	return NewLoggerWithOutputs(ParseLogLevel(levelStr), nil, outputs...), nil
}

// NewLoggerWithOutputs builds a logger over explicit outputs. A nil clock
// stamps entries with the wall clock.
func NewLoggerWithOutputs(level LogLevel, clock Clock, outputs ...Output) *Logger {
	return &Logger{sink: &sink{level: level, outputs: outputs, clock: clock}}
}

func (l *Logger) log(level LogLevel, msg string, fields []Field) {
	s := l.sink
	s.mu.RLock()
	defer s.mu.RUnlock()

	if level < s.level || len(s.outputs) == 0 {
		return
	}

	now := time.Now()
	if s.clock != nil {
		now = s.clock.Now()
	}
	entry := LogEntry{Timestamp: now, Level: level.String(), Message: msg}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]interface{}, n)
		// call-site fields override inherited ones
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	for _, output := range s.outputs {
		if err := output.Write(entry); err != nil {
			log.Printf("Failed to write log entry: %v", err)
		}
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

// With returns a child logger carrying additional fields
func (l *Logger) With(fields ...Field) LoggerInterface {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{sink: l.sink, fields: merged}
}

// WithContext tags entries with the request epoch carried by ctx, if any
func (l *Logger) WithContext(ctx context.Context) LoggerInterface {
	if epoch := ctx.Value(RequestEpochKey); epoch != nil {
		return l.With(F("epoch", epoch))
	}
	return l
}

func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *Logger) AddOutput(output Output) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.outputs = append(l.sink.outputs, output)
}

// Close closes every output and returns the first error
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	var firstErr error
	for _, output := range l.sink.outputs {
		if err := output.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.sink.outputs = nil
	return firstErr
}
