// Package config provides 12-factor configuration management for the webdesk
// backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// A .env file in the working directory is read first when present. CLI flags
// can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, allowed origins)
//   - Logging: Log level and output format
//   - Storage: Session store backend (memory or sqlite) and data directory
//   - Apps: App manifest directory
//   - Window: Minimum size, cascade origin, frame interval, restore stagger
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS (comma-separated)
//   - LOG_LEVEL, LOG_DEV
//   - STORAGE_DRIVER, STORAGE_PATH, APPS_DIR
//   - WM_MIN_WIDTH, WM_MIN_HEIGHT, WM_CASCADE_BASE, WM_FRAME_INTERVAL, WM_RESTORE_STAGGER
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
