// Package logging provides structured logging for openhab-ghome.
//
// It wraps log/slog. Every entry carries the service name and version, and
// components tag their own entries via Component:
//
//	logger := logging.New(cfg.Logging, version)
//	apiLog := logger.Component("api")
//	apiLog.Info("fulfillment request", "intent", intent, "devices", n)
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Access tokens forwarded from the assistant must never be logged.
package logging
