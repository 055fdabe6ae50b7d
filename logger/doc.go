// Package logger provides structured logging for opflow using zerolog.
//
// It supports JSON and console formats, stdout/stderr/file outputs (files
// are rotated with lumberjack), level configuration and component-scoped
// loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "file"
//	  filename: "/var/log/opflow/opflow.log"
//
// # Usage
//
//	log := logger.Get("container")
//	log.Info("task finished", logger.Fields("operator", "extract"))
package logger
