// Package server wires the webdesk backend together: logger, metrics,
// session store, app catalog, window manager, session bridge, websocket
// hub and the gin router.
//
// Run serves HTTP and performs the one-shot session restore in an errgroup;
// cancelling its context shuts the HTTP server down, saves the session and
// closes the store.
package server
