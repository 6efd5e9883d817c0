// Package main is the entry point for the webdesk backend.
//
// The backend owns the window registry of a browser desktop shell: which app
// windows are open, where they sit, how they stack, and the session that
// brings them back after a reload. The shell talks to it over REST and a
// websocket stream.
//
// Configuration:
//   - Environment variables, optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Run the server (the default command)
//	webdesk serve --port 8000 --storage-driver sqlite --storage-path ./data
//
//	# Development mode (colored logs, debug level)
//	webdesk serve --dev
//
//	# Inspect the catalog and the saved session
//	webdesk apps list --category system
//	webdesk session show --storage-driver sqlite
//	webdesk session clear --storage-driver sqlite
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, with a final session save
package main
