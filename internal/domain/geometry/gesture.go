package geometry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// PrimaryButton is the button index of the main pointer button
const PrimaryButton = 0

// Region identifies which part of a window a pointer-down landed on
type Region string

const (
	// RegionTitle is the non-interactive part of the title bar
	RegionTitle Region = "title"
	// RegionControl is an embedded control (button, link, input)
	RegionControl Region = "control"
	// RegionContent is the hosted content area
	RegionContent Region = "content"
	// RegionResize is one of the eight resize affordances
	RegionResize Region = "resize"
)

// Kind is the type of gesture in progress
type Kind string

const (
	KindDrag   Kind = "drag"
	KindResize Kind = "resize"
)

// PointerEvent is one pointer-down/move/up/cancel sample
type PointerEvent struct {
	PointerID int64  `json:"pointer_id"`
	Button    int    `json:"button"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Region    Region `json:"region,omitempty"`
}

// Point returns the event's pointer position
func (e PointerEvent) Point() Point {
	return Point{X: e.X, Y: e.Y}
}

// Target receives committed gesture results. window.Manager implements it.
type Target interface {
	Geometry(windowID string) (geometry types.Geometry, minSize types.Size, ok bool)
	IsMaximized(windowID string) bool
	Move(windowID string, pos types.Position) bool
	Resize(windowID string, size types.Size, pos *types.Position) bool
}

// Painter receives coalesced visual updates while a gesture is in flight
type Painter interface {
	Paint(windowID string, geometry types.Geometry)
}

// PainterFunc adapts a function to Painter
type PainterFunc func(windowID string, geometry types.Geometry)

// Paint implements Painter
func (f PainterFunc) Paint(windowID string, geometry types.Geometry) {
	f(windowID, geometry)
}

// gesture is the per-gesture state from pointer-down to pointer-up
type gesture struct {
	kind      Kind
	windowID  string
	pointerID int64
	direction Direction
	origin    types.Geometry
	start     Point
	grab      Point
	minSize   types.Size

	pending     types.Geometry
	scheduled   bool
	cancelFrame func()
	generation  uint64
}

// Controller turns pointer events on one window surface into drag and
// resize gestures. At most one gesture is active at a time; pointer events
// from any other pointer are ignored until it ends.
type Controller struct {
	mu         sync.Mutex
	active     *gesture
	generation uint64

	// paintMu orders paints so a frame cannot land after the final paint.
	// Taken before mu when both are held.
	paintMu sync.Mutex

	target    Target
	painter   Painter
	scheduler FrameScheduler
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewController creates a gesture controller committing to target
func NewController(target Target, painter Painter, scheduler FrameScheduler) *Controller {
	if scheduler == nil {
		scheduler = NewTimerScheduler(DefaultFrameInterval)
	}
	if painter == nil {
		painter = PainterFunc(func(string, types.Geometry) {})
	}
	return &Controller{
		target:    target,
		painter:   painter,
		scheduler: scheduler,
		logger:    zap.NewNop(),
	}
}

// WithMetrics adds gesture metrics to the controller
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	return c
}

// WithLogger sets the controller's logger
func (c *Controller) WithLogger(logger *zap.Logger) *Controller {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Active reports the window and kind of the gesture in progress
func (c *Controller) Active() (windowID string, kind Kind, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return "", "", false
	}
	return c.active.windowID, c.active.kind, true
}

// BeginDrag starts dragging windowID. It refuses non-primary buttons,
// pointer-downs outside the bare title area, maximized windows, and any
// request while another gesture is active.
func (c *Controller) BeginDrag(windowID string, ev PointerEvent) bool {
	if ev.Button != PrimaryButton || ev.Region != RegionTitle {
		return false
	}
	return c.begin(KindDrag, windowID, "", ev)
}

// BeginResize starts resizing windowID from the dir affordance
func (c *Controller) BeginResize(windowID string, dir Direction, ev PointerEvent) bool {
	if ev.Button != PrimaryButton {
		return false
	}
	if _, ok := ParseDirection(string(dir)); !ok {
		return false
	}
	return c.begin(KindResize, windowID, dir, ev)
}

func (c *Controller) begin(kind Kind, windowID string, dir Direction, ev PointerEvent) bool {
	if c.target.IsMaximized(windowID) {
		return false
	}
	origin, minSize, ok := c.target.Geometry(windowID)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return false
	}

	c.generation++
	start := ev.Point()
	c.active = &gesture{
		kind:       kind,
		windowID:   windowID,
		pointerID:  ev.PointerID,
		direction:  dir,
		origin:     origin,
		start:      start,
		grab:       start.Sub(Point{X: origin.Position.X, Y: origin.Position.Y}),
		minSize:    minSize,
		pending:    origin,
		generation: c.generation,
	}

	c.logger.Debug("Gesture started",
		zap.String("kind", string(kind)),
		zap.String("window_id", windowID),
		zap.Int64("pointer_id", ev.PointerID),
	)
	return true
}

// HandleMove records the latest pointer position for the active gesture and
// schedules a single visual update for the next frame
func (c *Controller) HandleMove(ev PointerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.active
	if g == nil || g.pointerID != ev.PointerID {
		return false
	}

	g.pending = c.compute(g, ev.Point())

	if !g.scheduled {
		g.scheduled = true
		generation := g.generation
		g.cancelFrame = c.scheduler.Schedule(func() { c.frame(generation) })
	}
	return true
}

// HandleUp ends the active gesture, committing the last pending geometry.
// The up event's own coordinates are not used: a cancel carries none worth
// trusting, and both paths must commit the same value.
func (c *Controller) HandleUp(ev PointerEvent) bool {
	c.mu.Lock()
	g := c.active
	if g == nil || g.pointerID != ev.PointerID {
		c.mu.Unlock()
		return false
	}

	if g.scheduled && g.cancelFrame != nil {
		g.cancelFrame()
	}
	c.active = nil
	c.mu.Unlock()

	c.paintMu.Lock()
	c.painter.Paint(g.windowID, g.pending)
	c.paintMu.Unlock()

	var committed bool
	switch g.kind {
	case KindDrag:
		committed = c.target.Move(g.windowID, g.pending.Position)
	case KindResize:
		pos := g.pending.Position
		committed = c.target.Resize(g.windowID, g.pending.Size, &pos)
	}

	outcome := "committed"
	if !committed {
		outcome = "dropped"
	}
	if c.metrics != nil {
		c.metrics.RecordGesture(string(g.kind), outcome)
	}
	c.logger.Debug("Gesture ended",
		zap.String("kind", string(g.kind)),
		zap.String("window_id", g.windowID),
		zap.String("outcome", outcome),
	)
	return committed
}

// HandleCancel ends the active gesture exactly like HandleUp; there is no
// abort-and-revert path
func (c *Controller) HandleCancel(ev PointerEvent) bool {
	return c.HandleUp(ev)
}

// Release ends whatever gesture is active as if its pointer had been
// cancelled. Used when the input surface goes away mid-gesture.
func (c *Controller) Release() bool {
	c.mu.Lock()
	g := c.active
	c.mu.Unlock()

	if g == nil {
		return false
	}
	return c.HandleCancel(PointerEvent{PointerID: g.pointerID})
}

// compute derives the pending geometry for a pointer position. Must hold mu.
func (c *Controller) compute(g *gesture, pointer Point) types.Geometry {
	switch g.kind {
	case KindDrag:
		return types.Geometry{
			Position: ApplyDrag(pointer, g.grab),
			Size:     g.origin.Size,
		}
	case KindResize:
		return ApplyResize(g.direction, g.origin, pointer.Sub(g.start), g.minSize)
	default:
		return g.pending
	}
}

// frame applies the newest pending geometry to the painter. The gesture is
// checked under paintMu, so once HandleUp has cleared it no frame paints.
func (c *Controller) frame(generation uint64) {
	c.paintMu.Lock()
	defer c.paintMu.Unlock()

	c.mu.Lock()
	g := c.active
	if g == nil || g.generation != generation || !g.scheduled {
		c.mu.Unlock()
		return
	}
	g.scheduled = false
	g.cancelFrame = nil
	windowID, pending := g.windowID, g.pending
	c.mu.Unlock()

	c.painter.Paint(windowID, pending)
}
