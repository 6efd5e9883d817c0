// Package feedback carries the user-facing side effects of window
// operations: lifecycle sounds and the request to dismiss the app launcher.
// Sounds are best-effort; nothing in the window registry waits on them.
package feedback
