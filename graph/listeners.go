package graph

import (
	"context"
	"time"

	"github.com/smallnest/raglab/log"
)

// NodeListener is notified around every node execution.
type NodeListener interface {
	OnNodeStart(ctx context.Context, node string)
	OnNodeEnd(ctx context.Context, node string, elapsed time.Duration)
	OnNodeError(ctx context.Context, node string, err error)
}

// LoggingListener writes node events to a log.Logger.
type LoggingListener struct {
	logger log.Logger
	prefix string
}

// NewLoggingListener creates a listener that logs through logger, or the
// package-level logger when logger is nil. prefix names the pipeline in each line.
func NewLoggingListener(logger log.Logger, prefix string) *LoggingListener {
	return &LoggingListener{logger: log.OrDefault(logger), prefix: prefix}
}

func (l *LoggingListener) OnNodeStart(ctx context.Context, node string) {
	l.logger.Debug("%s: node %s started", l.prefix, node)
}

func (l *LoggingListener) OnNodeEnd(ctx context.Context, node string, elapsed time.Duration) {
	l.logger.Info("%s: node %s finished in %s", l.prefix, node, elapsed.Round(time.Millisecond))
}

func (l *LoggingListener) OnNodeError(ctx context.Context, node string, err error) {
	l.logger.Error("%s: node %s failed: %v", l.prefix, node, err)
}
