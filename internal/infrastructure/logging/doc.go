// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a named child (logger.Component("window")) so every
// line carries its origin. Persistence failures log at Warn, session
// restores at Info, gestures at Debug.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Failed to open store", zap.Error(err))
package logging
