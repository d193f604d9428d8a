// Package logger provides structured logging for forge using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("build")
//	log.Info("node updated", logger.Fields("rule", "compile.c", "node", id))
package logger
