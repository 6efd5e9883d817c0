// Package http provides HTTP handlers and routing for the webdesk REST API.
//
// The REST surface mirrors the window registry operations one to one so a
// shell without a websocket can still drive the desktop.
//
// Endpoints:
//   - Health: / and /health
//   - Windows: /windows, /windows/:id and
//     /windows/:id/{minimize,maximize,focus,move,resize,title,icon,badge}
//   - Apps: /apps, /apps/:id
//   - Session: /session, /session/save, /session/restore
//   - Metrics: /metrics/json (Prometheus text is served by the server on /metrics)
//
// Unknown windows and apps answer 404; malformed bodies and ids answer 400.
// Operations on a known window answer 200; "success" carries the registry's
// own answer and "window" the state after the change.
//
// Example Usage:
//
//	handlers := http.NewHandlers(windows, apps, bridge, metrics)
//	handlers.Register(router)
package http
