package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func newBufferedGolog() (*golog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	g := golog.New()
	g.SetOutput(buf)
	g.SetTimeFormat("")
	return g, buf
}

func TestNewGologLogger(t *testing.T) {
	logger := NewGologLogger(golog.New())

	assert.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_LevelControl(t *testing.T) {
	logger := NewGologLogger(golog.New())

	logger.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	logger.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, logger.GetLevel())
}

func TestGologLogger_FormatsArguments(t *testing.T) {
	g, buf := newBufferedGolog()
	logger := NewGologLogger(g)
	logger.SetLevel(LogLevelDebug)

	logger.Info("indexed %d chunks from %s", 12, "example.com")
	assert.Contains(t, buf.String(), "indexed 12 chunks from example.com")
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	g, buf := newBufferedGolog()
	logger := NewGologLogger(g)
	logger.SetLevel(LogLevelError)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.NotContains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestGologLogger_Fallbacks(t *testing.T) {
	logger := NewGologLogger(nil)
	logger.SetLevel(LogLevel(99))
	assert.Equal(t, LogLevelInfo, logger.GetLevel())

	g, buf := newBufferedGolog()
	silent := NewGologLogger(g)
	silent.SetLevel(LogLevelNone)
	silent.Error("never")
	assert.Empty(t, buf.String())
}
