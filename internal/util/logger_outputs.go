package util

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// WriterOutput writes log entries to any io.Writer
type WriterOutput struct {
	writer io.Writer
	closer io.Closer
	format LogFormat
	mu     sync.Mutex
}

// NewConsoleOutput creates an output for a console stream
func NewConsoleOutput(writer io.Writer, format LogFormat) Output {
	return &WriterOutput{writer: writer, format: format}
}

// NewFileOutput opens path for appending and returns an output writing to it
func NewFileOutput(path string, format LogFormat) (Output, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &WriterOutput{writer: file, closer: file, format: format}, nil
}

// Write renders a log entry in the configured format
func (w *WriterOutput) Write(entry LogEntry) error {
	line, err := renderEntry(entry, w.format)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.writer, line)
	return err
}

// Close closes the underlying file, if any
func (w *WriterOutput) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

func renderEntry(entry LogEntry, format LogFormat) (string, error) {
	if format == FormatJSON {
		data, err := sonic.Marshal(entry)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line := fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format("2006/01/02 15:04:05"), entry.Level, entry.Message)
	if len(entry.Fields) == 0 {
		return line, nil
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
	}
	return line + " " + strings.Join(parts, " "), nil
}
