// Package logger provides structured logging for getfnative using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("sweep")
//	log.Info("sweep finished", logger.Fields("completed", 42))
package logger
