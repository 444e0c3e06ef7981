// Package logging provides structured logging for the EcoNet core.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same format and default fields.
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected to broker", "host", cfg.MQTT.Broker.Host)
//	logger.Error("snapshot refresh failed", "error", err)
//
// # Security
//
// Never log the account password, the user token, or the system secret.
package logging
