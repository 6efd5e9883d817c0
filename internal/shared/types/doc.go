// Package types provides shared data structures for the desktop backend.
//
// Core Types:
//   - AppEntry: Launchable application in the catalog
//   - Position, Size, Geometry: Window geometry
//   - GeometryRecord: Last known geometry of an app (persisted)
//   - SessionSnapshot: Open apps plus geometry records (persisted)
//
// Persisted shapes use the JSON names the browser shell already stores:
//
//	openWindows:  ["notepad", "terminal"]
//	windowStates: [{"appId": "notepad", "state": {"position": {...}, "size": {...}}}]
//
// Example Usage:
//
//	entry := types.AppEntry{ID: "notepad", Title: "Notepad", DefaultWidth: 800, DefaultHeight: 600}
//	min := entry.MinSize() // 200x150 unless overridden
package types
