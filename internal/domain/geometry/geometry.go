package geometry

import (
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// CascadeStep is the offset applied per already-open window when placing a
// new window that has no saved geometry
const CascadeStep = 20

// Point is a pointer location or delta in desktop pixels
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Direction names one of the eight resize affordances
type Direction string

const (
	North     Direction = "n"
	South     Direction = "s"
	East      Direction = "e"
	West      Direction = "w"
	NorthEast Direction = "ne"
	NorthWest Direction = "nw"
	SouthEast Direction = "se"
	SouthWest Direction = "sw"
)

// ParseDirection validates a resize direction string
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case North, South, East, West, NorthEast, NorthWest, SouthEast, SouthWest:
		return d, true
	default:
		return "", false
	}
}

// Horizontal returns -1 when the direction moves the west edge, +1 for the
// east edge and 0 when the width is untouched
func (d Direction) Horizontal() int {
	switch d {
	case East, NorthEast, SouthEast:
		return 1
	case West, NorthWest, SouthWest:
		return -1
	default:
		return 0
	}
}

// Vertical returns -1 when the direction moves the north edge, +1 for the
// south edge and 0 when the height is untouched
func (d Direction) Vertical() int {
	switch d {
	case South, SouthEast, SouthWest:
		return 1
	case North, NorthEast, NorthWest:
		return -1
	default:
		return 0
	}
}

// ApplyDrag returns the window origin for a pointer position given the offset
// between the pointer and the window origin at grab time. No viewport
// clamping is applied; windows may leave the screen.
func ApplyDrag(pointer, grabOffset Point) types.Position {
	return types.Position{X: pointer.X - grabOffset.X, Y: pointer.Y - grabOffset.Y}
}

// ApplyResize computes the geometry produced by dragging the dir affordance
// by delta, starting from orig. Each axis is resolved independently.
func ApplyResize(dir Direction, orig types.Geometry, delta Point, minSize types.Size) types.Geometry {
	x, width := resizeAxis(dir.Horizontal(), orig.Position.X, orig.Size.Width, delta.X, minSize.Width)
	y, height := resizeAxis(dir.Vertical(), orig.Position.Y, orig.Size.Height, delta.Y, minSize.Height)

	return types.Geometry{
		Position: types.Position{X: x, Y: y},
		Size:     types.Size{Width: width, Height: height},
	}
}

// resizeAxis resolves one axis. edge is +1 for the far edge (origin fixed),
// -1 for the near edge (origin slides with the pointer) and 0 for no change.
func resizeAxis(edge, origin, length, delta, minLength int) (int, int) {
	switch edge {
	case 1:
		return origin, max(length+delta, minLength)
	case -1:
		next := length - delta
		if next < minLength {
			// Pin the origin so the far edge stays put
			return origin + (length - minLength), minLength
		}
		return origin + delta, next
	default:
		return origin, length
	}
}

// Clamp raises size to at least minSize on both axes
func Clamp(size, minSize types.Size) types.Size {
	return types.Size{
		Width:  max(size.Width, minSize.Width),
		Height: max(size.Height, minSize.Height),
	}
}

// Cascade places the next window relative to base, offset by CascadeStep for
// every window already open
func Cascade(base types.Position, openCount int) types.Position {
	offset := CascadeStep * openCount
	return base.Add(offset, offset)
}
