// Package session persists the window registry between reloads.
//
// A Bridge is the registry's Persister: after every change to which windows
// are open or where they are, it writes the snapshot to the store under two
// keys, openWindows and windowStates. Writes run in the background and are
// never retried; a failed write is logged and counted, and the in-memory
// registry stays authoritative.
//
// On startup Restore reads the snapshot once, seeds the registry with the
// saved geometry records, drops apps no longer in the catalog, and opens the
// rest one after another, DefaultStagger apart, in their saved order.
//
// Example Usage:
//
//	bridge := session.NewBridge(store, catalog, session.WithLogger(logger))
//	wm := window.NewManager(catalog, window.WithPersister(bridge))
//	bridge.Attach(wm)
//	scheduled, err := bridge.Restore(ctx)
package session
