package types

// Position is a window origin in desktop pixels
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by (dx, dy)
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Size is a window's outer dimensions
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geometry is a window's position and size
type Geometry struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// GeometryRecord is the last known geometry of an app, keyed by app ID
type GeometryRecord struct {
	AppID string   `json:"appId"`
	State Geometry `json:"state"`
}

// SessionSnapshot is what gets persisted between reloads: the ordered list
// of open app IDs and every known geometry record
type SessionSnapshot struct {
	OpenWindows  []string         `json:"openWindows"`
	WindowStates []GeometryRecord `json:"windowStates"`

	// Version orders snapshots taken from one registry; later mutations
	// carry higher versions. Zero means unordered. Not persisted.
	Version uint64 `json:"-"`
}

// Record looks up the geometry record for appID
func (s SessionSnapshot) Record(appID string) (GeometryRecord, bool) {
	for _, rec := range s.WindowStates {
		if rec.AppID == appID {
			return rec, true
		}
	}
	return GeometryRecord{}, false
}

// WindowStats contains window manager statistics
type WindowStats struct {
	TotalWindows     int     `json:"total_windows"`
	MinimizedWindows int     `json:"minimized_windows"`
	MaximizedWindows int     `json:"maximized_windows"`
	TopZIndex        int64   `json:"top_z_index"`
	FocusedWindowID  *string `json:"focused_window_id,omitempty"`
	FocusedAppID     *string `json:"focused_app_id,omitempty"`
}
