package window

import (
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// Instance is a read-only copy of one open window
type Instance struct {
	ID          string         `json:"id"`
	AppID       string         `json:"app_id"`
	Title       string         `json:"title"`
	Icon        string         `json:"icon"`
	Badge       *int           `json:"badge,omitempty"`
	IsMinimized bool           `json:"is_minimized"`
	IsMaximized bool           `json:"is_maximized"`
	ZIndex      int64          `json:"z_index"`
	Position    types.Position `json:"position"`
	Size        types.Size     `json:"size"`
	MinSize     types.Size     `json:"min_size"`
	Content     interface{}    `json:"-"`
}

// Geometry returns the instance's position and size
func (i Instance) Geometry() types.Geometry {
	return types.Geometry{Position: i.Position, Size: i.Size}
}

// RuntimeState holds the cosmetic overrides a window's content may set.
// None of it is persisted.
type RuntimeState struct {
	DynamicTitle *string
	DynamicIcon  *string
	Badge        *int
}

// window is the registry's internal record. Geometry and flags are the
// persisted half; runtime is the ephemeral half.
type window struct {
	id       string
	entry    types.AppEntry
	seq      uint64
	geometry types.Geometry
	minSize  types.Size

	minimized bool
	maximized bool
	zIndex    int64

	runtime RuntimeState
	content interface{}
}

// snapshot returns a value copy safe to hand to callers. Must hold mu.
func (w *window) snapshot() Instance {
	title := w.entry.Title
	if w.runtime.DynamicTitle != nil {
		title = *w.runtime.DynamicTitle
	}
	icon := w.entry.Icon
	if w.runtime.DynamicIcon != nil {
		icon = *w.runtime.DynamicIcon
	}

	var badge *int
	if w.runtime.Badge != nil {
		b := *w.runtime.Badge
		badge = &b
	}

	return Instance{
		ID:          w.id,
		AppID:       w.entry.ID,
		Title:       title,
		Icon:        icon,
		Badge:       badge,
		IsMinimized: w.minimized,
		IsMaximized: w.maximized,
		ZIndex:      w.zIndex,
		Position:    w.geometry.Position,
		Size:        w.geometry.Size,
		MinSize:     w.minSize,
		Content:     w.content,
	}
}

// EventType names a registry mutation
type EventType string

const (
	EventOpened    EventType = "opened"
	EventClosed    EventType = "closed"
	EventMinimized EventType = "minimized"
	EventMaximized EventType = "maximized"
	EventFocused   EventType = "focused"
	EventMoved     EventType = "moved"
	EventResized   EventType = "resized"
	EventUpdated   EventType = "updated"
)

// Event is delivered to subscribers after every mutation. Window holds the
// state after the change; for EventClosed it is the state just before removal.
type Event struct {
	Type   EventType `json:"type"`
	Window Instance  `json:"window"`
}
