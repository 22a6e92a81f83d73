// Package log provides the leveled logging interface used across raglab.
//
// Pipelines, search providers and vector stores all log through the Logger
// interface. Two implementations ship with the package: DefaultLogger, backed by
// the standard library logger, and GologLogger, backed by github.com/kataras/golog,
// which is what the raglab command installs.
//
// # Log Levels
//
//   - LogLevelDebug: node inputs, request URLs, chunk counts
//   - LogLevelInfo: pipeline progress
//   - LogLevelWarn: skipped pages, unavailable model service
//   - LogLevelError: failed runs
//   - LogLevelNone: silence
//
// # Usage
//
//	logger := log.NewGologLogger(golog.New())
//	logger.SetLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
//
//	log.Info("indexed %d chunks", n)
//
// Components that accept a Logger fall back to GetDefaultLogger when given nil.
package log
