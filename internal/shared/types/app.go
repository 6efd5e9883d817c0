package types

// DefaultMinWidth and DefaultMinHeight bound every window unless the app
// entry overrides them.
const (
	DefaultMinWidth  = 200
	DefaultMinHeight = 150
)

// ContentFactory builds the hosted UI handle for a new window. The result is
// opaque to the window manager.
type ContentFactory func(props map[string]interface{}) interface{}

// AppEntry is a launchable application in the catalog
type AppEntry struct {
	ID            string `json:"id" yaml:"id" toml:"id"`
	Title         string `json:"title" yaml:"title" toml:"title"`
	Icon          string `json:"icon" yaml:"icon" toml:"icon"`
	Category      string `json:"category,omitempty" yaml:"category" toml:"category"`
	DefaultWidth  int    `json:"default_width" yaml:"default_width" toml:"default_width"`
	DefaultHeight int    `json:"default_height" yaml:"default_height" toml:"default_height"`
	MinWidth      int    `json:"min_width,omitempty" yaml:"min_width" toml:"min_width"`
	MinHeight     int    `json:"min_height,omitempty" yaml:"min_height" toml:"min_height"`

	// Factory is never serialized; manifests cannot carry one
	Factory ContentFactory `json:"-" yaml:"-" toml:"-"`
}

// DefaultSize returns the initial window size for the app
func (e AppEntry) DefaultSize() Size {
	return Size{Width: e.DefaultWidth, Height: e.DefaultHeight}
}

// MinSize returns the app's minimum window size, falling back to the
// package defaults for unset dimensions
func (e AppEntry) MinSize() Size {
	minSize := Size{Width: DefaultMinWidth, Height: DefaultMinHeight}
	if e.MinWidth > 0 {
		minSize.Width = e.MinWidth
	}
	if e.MinHeight > 0 {
		minSize.Height = e.MinHeight
	}
	return minSize
}

// RegistryStats contains app catalog statistics
type RegistryStats struct {
	TotalApps  int            `json:"total_apps"`
	Categories map[string]int `json:"categories"`
	Loaded     bool           `json:"loaded"`
}
