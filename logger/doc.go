// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "authmaster").WithComponent("resolver")
//	log.Info("credential resolved", logger.Fields(logger.FieldKeyName, "adminToken"))
//
// Secrets and raw credentials must never be passed as field values; use
// MaskCredential when a hint of the presented credential is needed.
package logger
