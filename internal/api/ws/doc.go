// Package ws provides the WebSocket channel between the desktop shell and
// the window manager.
//
// Each connection gets an id (uuid) and its own gesture controller. Pointer
// samples drive that controller; the coalesced visual updates go back to the
// same connection as frame messages, while committed changes reach every
// connection as window events.
//
// Message Types (Client → Server):
//   - pointer: {phase: down|move|up|cancel, window_id, gesture: drag|resize, direction, pointer}
//   - open: {app_id, props}
//   - close, minimize, maximize, focus: {window_id}
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - welcome: Connection id and the current window list
//   - frame: Coalesced in-flight geometry of a gesture
//   - window: Registry event (opened, closed, moved, ...)
//   - sound, launcher: Feedback cues
//   - storage: Echo of a persisted session key
//   - ack, pong, error
//
// Example Usage:
//
//	hub := ws.NewHub(windows, ws.WithLogger(logger))
//	hub.Start(signals, bridge)
//	router.GET("/stream", hub.HandleConnection)
package ws
