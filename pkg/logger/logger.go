// Package logger provides leveled, component-tagged logging.
// Every line carries a [component] tag so output from the dispatch engine,
// session stores and the HTTP server can be told apart at a glance.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int32

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
		return "?"
	}
}

// ParseLevel maps a config string to a Level. Unknown strings fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// ANSI colors per level. Disabled when the logger writes to a non-terminal
// sink (tests, files).
var levelColors = map[Level]string{
	LevelDebug: "\033[36m", // cyan
	LevelInfo:  "\033[32m", // green
	LevelWarn:  "\033[33m", // yellow
	LevelError: "\033[31m", // red
}

const colorReset = "\033[0m"

// Logger writes component-tagged lines to a single sink.
// Safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	color bool
}

// New creates a Logger writing to out at the given minimum level.
func New(out io.Writer, level Level) *Logger {
	return &Logger{out: out, level: level, color: out == os.Stderr || out == os.Stdout}
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetColor toggles ANSI colors.
func (l *Logger) SetColor(on bool) {
	l.mu.Lock()
	l.color = on
	l.mu.Unlock()
}

func (l *Logger) log(level Level, component, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("15:04:05"))
	b.WriteByte(' ')
	if l.color {
		b.WriteString(levelColors[level])
	}
	fmt.Fprintf(&b, "%-5s", level.String())
	if l.color {
		b.WriteString(colorReset)
	}
	fmt.Fprintf(&b, " [%s] %s", component, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')

	io.WriteString(l.out, b.String())
}

func (l *Logger) DebugC(component, msg string) { l.log(LevelDebug, component, msg, nil) }
func (l *Logger) InfoC(component, msg string)  { l.log(LevelInfo, component, msg, nil) }
func (l *Logger) WarnC(component, msg string)  { l.log(LevelWarn, component, msg, nil) }
func (l *Logger) ErrorC(component, msg string) { l.log(LevelError, component, msg, nil) }

func (l *Logger) DebugCF(component, msg string, fields map[string]interface{}) {
	l.log(LevelDebug, component, msg, fields)
}

func (l *Logger) InfoCF(component, msg string, fields map[string]interface{}) {
	l.log(LevelInfo, component, msg, fields)
}

func (l *Logger) WarnCF(component, msg string, fields map[string]interface{}) {
	l.log(LevelWarn, component, msg, fields)
}

func (l *Logger) ErrorCF(component, msg string, fields map[string]interface{}) {
	l.log(LevelError, component, msg, fields)
}

// --- Package-level default ---

var std = New(os.Stderr, LevelInfo)

// Default returns the process-wide logger. Components that want explicit
// injection (the dispatch engine does) take a *Logger instead of calling
// the package-level helpers.
func Default() *Logger { return std }

// SetLevel changes the default logger's minimum level.
func SetLevel(level Level) { std.SetLevel(level) }

func DebugC(component, msg string) { std.DebugC(component, msg) }
func InfoC(component, msg string)  { std.InfoC(component, msg) }
func WarnC(component, msg string)  { std.WarnC(component, msg) }
func ErrorC(component, msg string) { std.ErrorC(component, msg) }

func DebugCF(component, msg string, fields map[string]interface{}) { std.DebugCF(component, msg, fields) }
func InfoCF(component, msg string, fields map[string]interface{})  { std.InfoCF(component, msg, fields) }
func WarnCF(component, msg string, fields map[string]interface{})  { std.WarnCF(component, msg, fields) }
func ErrorCF(component, msg string, fields map[string]interface{}) { std.ErrorCF(component, msg, fields) }
