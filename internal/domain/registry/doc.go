// Package registry is the catalog of launchable apps.
//
// Each entry maps an app id to its title, icon, default window size and
// optional minimum size. The window manager consults it on every open;
// session restore consults it to drop apps that no longer exist.
//
// Components:
//   - Manager: concurrent in-memory catalog
//   - Seeder: built-in entries plus manifests found under the apps directory
//
// Manifests are matched by ManifestPatterns and decoded by extension:
// YAML, TOML or JSON. Field names are snake_case:
//
//	id: notepad
//	title: Notepad
//	icon: "📝"
//	default_width: 800
//	default_height: 600
//	min_width: 320
//
// Example Usage:
//
//	catalog := registry.NewManager()
//	_, err := registry.NewSeeder(catalog, "./apps", logger).Seed()
//	entry, ok := catalog.GetApp("notepad")
package registry
