// Package logging provides a simple leveled logger.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects the line layout.
type Format int

const (
	FormatText Format = iota // 15:04:05.000 [INFO] refiner: message
	FormatJSON               // one JSON object per line
)

// sink is shared by a logger and all of its component children.
type sink struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
	now    func() time.Time
}

// Logger is a simple leveled logger. Component children share the parent's
// output and level.
type Logger struct {
	sink      *sink
	component string
}

// New creates a new logger.
func New(level Level) *Logger {
	return &Logger{sink: &sink{
		level:  level,
		output: os.Stderr,
		now:    time.Now,
	}}
}

// Component returns a child logger that prefixes messages with name.
func (l *Logger) Component(name string) *Logger {
	if l.component != "" {
		name = l.component + "." + name
	}
	return &Logger{sink: l.sink, component: name}
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetFormat switches between text and JSON lines.
func (l *Logger) SetFormat(f Format) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = f
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level
}

type jsonLine struct {
	Time      string `json:"time"`
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Msg       string `json:"msg"`
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}

	now := s.now()
	msg := fmt.Sprintf(format, args...)

	var line string
	if s.format == FormatJSON {
		b, err := json.Marshal(jsonLine{
			Time:      now.UTC().Format(time.RFC3339Nano),
			Level:     level.String(),
			Component: l.component,
			Msg:       msg,
		})
		if err != nil {
			return
		}
		line = string(b) + "\n"
	} else if l.component != "" {
		line = fmt.Sprintf("%s [%s] %s: %s\n", now.Format("15:04:05.000"), level.String(), l.component, msg)
	} else {
		line = fmt.Sprintf("%s [%s] %s\n", now.Format("15:04:05.000"), level.String(), msg)
	}

	_, _ = s.output.Write([]byte(line))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return &Logger{sink: &sink{
		level:  LevelError + 1, // Higher than any level
		output: io.Discard,
		now:    time.Now,
	}}
}
