package log

import (
	"github.com/kataras/golog"
)

var gologLevels = map[LogLevel]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
	LogLevelNone:  "disable",
}

// GologLogger routes raglab logging through a kataras/golog instance, which
// gives the CLI colored, timestamped output.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps logger. The wrapper starts at LogLevelInfo.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	if logger == nil {
		logger = golog.New()
	}
	return &GologLogger{logger: logger, level: LogLevelInfo}
}

func (l *GologLogger) enabled(level LogLevel) bool {
	return l.level != LogLevelNone && level >= l.level
}

func (l *GologLogger) Debug(format string, v ...any) {
	if l.enabled(LogLevelDebug) {
		l.logger.Debugf(format, v...)
	}
}

func (l *GologLogger) Info(format string, v ...any) {
	if l.enabled(LogLevelInfo) {
		l.logger.Infof(format, v...)
	}
}

func (l *GologLogger) Warn(format string, v ...any) {
	if l.enabled(LogLevelWarn) {
		l.logger.Warnf(format, v...)
	}
}

func (l *GologLogger) Error(format string, v ...any) {
	if l.enabled(LogLevelError) {
		l.logger.Errorf(format, v...)
	}
}

// SetLevel changes the threshold of the wrapper and of the golog instance.
// Unknown levels fall back to info.
func (l *GologLogger) SetLevel(level LogLevel) {
	name, ok := gologLevels[level]
	if !ok {
		level, name = LogLevelInfo, "info"
	}
	l.level = level
	l.logger.SetLevel(name)
}

// GetLevel returns the current threshold.
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}
