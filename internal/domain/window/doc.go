/*
Package window is the registry of open application windows.

A Manager owns every window instance and enforces the rules the rest of the
desktop relies on:

  - at most one window per app; opening a running app raises it instead
  - stacking values only grow, so the most recently raised window is always
    on top without comparing timestamps
  - a window is never smaller than its app's minimum size
  - closing a window remembers its geometry for the next open of that app

Operations never fail loudly. Unknown ids and apps are reported through a
bool and otherwise ignored.

The open app list and geometry are persisted through a Persister after every
change to membership or geometry. Title, icon and badge overrides live in
RuntimeState and are never persisted.

# Usage

	wm := window.NewManager(catalog,
		window.WithFeedback(sounds),
		window.WithPersister(bridge),
		window.WithLogger(logger),
	)

	inst, ok := wm.Open("notepad", nil)
	wm.Move(inst.ID, types.Position{X: 120, Y: 80})
	wm.Close(inst.ID)
*/
package window
