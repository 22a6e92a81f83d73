package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel is a logging severity. Messages below a logger's level are dropped.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

// String returns the upper case level name.
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
	return levelNames[l]
}

// ParseLevel converts a level name such as "debug" or "WARN" into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off", "disable":
		return LogLevelNone, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is the printf-style logger accepted by raglab components.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// DefaultLogger writes "[raglab] <time> [LEVEL] message" lines through the
// standard log package.
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

// NewDefaultLogger creates a logger writing to stderr.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewCustomLogger(os.Stderr, level)
}

// NewCustomLogger creates a logger writing to out.
func NewCustomLogger(out io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(out, "[raglab] ", log.LstdFlags),
		level:  level,
	}
}

func (l *DefaultLogger) logf(level LogLevel, format string, v []any) {
	if level < l.level {
		return
	}
	l.logger.Printf("["+level.String()+"] "+format, v...)
}

func (l *DefaultLogger) Debug(format string, v ...any) { l.logf(LogLevelDebug, format, v) }
func (l *DefaultLogger) Info(format string, v ...any)  { l.logf(LogLevelInfo, format, v) }
func (l *DefaultLogger) Warn(format string, v ...any)  { l.logf(LogLevelWarn, format, v) }
func (l *DefaultLogger) Error(format string, v ...any) { l.logf(LogLevelError, format, v) }

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(format string, v ...any) {}
func (l *NoOpLogger) Info(format string, v ...any)  {}
func (l *NoOpLogger) Warn(format string, v ...any)  {}
func (l *NoOpLogger) Error(format string, v ...any) {}

type loggerBox struct{ Logger }

var defaultLogger atomic.Pointer[loggerBox]

func init() {
	SetLogLevel(LogLevelInfo)
}

// SetDefaultLogger replaces the package-level logger. nil silences it.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	defaultLogger.Store(&loggerBox{logger})
}

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() Logger {
	return defaultLogger.Load().Logger
}

// OrDefault returns logger, or the package-level logger when logger is nil.
func OrDefault(logger Logger) Logger {
	if logger == nil {
		return GetDefaultLogger()
	}
	return logger
}

// SetLogLevel replaces the package-level logger with a DefaultLogger at level.
func SetLogLevel(level LogLevel) {
	SetDefaultLogger(NewDefaultLogger(level))
}

func Debug(format string, v ...any) { GetDefaultLogger().Debug(format, v...) }
func Info(format string, v ...any)  { GetDefaultLogger().Info(format, v...) }
func Warn(format string, v ...any)  { GetDefaultLogger().Warn(format, v...) }
func Error(format string, v ...any) { GetDefaultLogger().Error(format, v...) }
