// Package telemetry writes structured JSON events to the run log file.
package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

type JSONLogger struct {
	mu     sync.Mutex
	logger *clog.Logger
	closer io.Closer
}

// NewJSONLogger appends to path. An empty path discards every event.
func NewJSONLogger(path string) (*JSONLogger, error) {
	if path == "" {
		return newJSONLogger(io.Discard, nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return newJSONLogger(f, f), nil
}

func newJSONLogger(w io.Writer, c io.Closer) *JSONLogger {
	logger := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       clog.JSONFormatter,
		Level:           clog.DebugLevel,
	})
	return &JSONLogger{logger: logger, closer: c}
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	l.log(clog.InfoLevel, msg, fields)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	l.log(clog.ErrorLevel, msg, fields)
}

func (l *JSONLogger) log(level clog.Level, msg string, fields map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Log(level, msg, kv...)
}

func (l *JSONLogger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
