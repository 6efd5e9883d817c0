/*
Package storage is the key-value persistence layer behind session state.

Two backends implement Store:

  - MemoryStore: process memory, for tests and throwaway sessions
  - SQLiteStore: a WAL-mode SQLite file with a single kv table

Values are JSON-encoded with sonic. Encoded values larger than
CompressThreshold are zstd-compressed; a one-byte header records which.

Subscribers registered with Subscribe receive the JSON of every value set
under their key, which the websocket hub uses to echo session changes to
other open tabs.

# Usage

	store, err := storage.Open(storage.Config{Driver: "sqlite", Path: dir})
	if err != nil {
		return err
	}
	defer store.Close()

	_ = store.Set(ctx, "openWindows", []string{"notepad"})

	var open []string
	found, err := store.Get(ctx, "openWindows", &open)
*/
package storage
