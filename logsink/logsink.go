// Package logsink routes pipeline log lines to the console, a timestamped
// log file and any attached live-display hooks, so the core never knows
// which presentation layer is watching.
package logsink

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Line is one emitted log entry.
type Line struct {
	At      time.Time
	Message string
}

// Func receives lines for live display (the GUI hook).
type Func func(Line)

// Logger fans log lines out to stderr, an optional file and attached funcs.
type Logger struct {
	mu    sync.Mutex
	std   *log.Logger
	file  io.WriteCloser
	hooks []Func
}

// New creates a Logger writing to stderr and, when logDir is non-empty, to
// a timestamped file under logDir.
func New(logDir string) (*Logger, error) {
	l := &Logger{std: log.New(os.Stderr, "", log.LstdFlags)}
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		name := filepath.Join(logDir, fmt.Sprintf("producer_%s.log", time.Now().Format("20060102_150405")))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	return l, nil
}

// NewNop returns a Logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{std: log.New(io.Discard, "", 0)}
}

// Attach registers a live-display hook.
func (l *Logger) Attach(fn Func) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Printf formats and emits one line to every sink.
func (l *Logger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := Line{At: time.Now(), Message: msg}

	l.mu.Lock()
	hooks := make([]Func, len(l.hooks))
	copy(hooks, l.hooks)
	l.std.Print(msg)
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %s\n", line.At.Format(time.RFC3339), msg)
	}
	l.mu.Unlock()

	for _, fn := range hooks {
		fn(line)
	}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
