package window

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/domain/feedback"
	"github.com/GriffinCanCode/webdesk/internal/domain/geometry"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/shared/id"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/internal/shared/utils"
)

// BaseZIndex is the stacking value below every window; the first window
// opened receives BaseZIndex+1
const BaseZIndex int64 = 100

// DefaultCascadeBase is where the first window without saved geometry lands
var DefaultCascadeBase = types.Position{X: 50, Y: 50}

// AppCatalog resolves app ids to launchable entries
type AppCatalog interface {
	GetApp(appID string) (types.AppEntry, bool)
}

// Persister receives a fresh snapshot after every change to membership or
// geometry. Implementations must not block.
type Persister interface {
	Persist(snapshot types.SessionSnapshot)
}

// Option configures a Manager
type Option func(*Manager)

// WithFeedback routes sounds and launcher dismissal to svc
func WithFeedback(svc feedback.Service) Option {
	return func(m *Manager) {
		if svc != nil {
			m.feedback = svc
		}
	}
}

// WithPersister attaches the session bridge
func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

// WithMetrics adds metrics tracking to the manager
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger sets the manager's logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCascadeBase sets the origin of the cascade used for new windows
func WithCascadeBase(base types.Position) Option {
	return func(m *Manager) { m.cascadeBase = base }
}

// WithDefaultMinSize overrides the minimum size for apps that do not set one
func WithDefaultMinSize(size types.Size) Option {
	return func(m *Manager) {
		if size.Width > 0 {
			m.defaultMin.Width = size.Width
		}
		if size.Height > 0 {
			m.defaultMin.Height = size.Height
		}
	}
}

// WithIDGenerator sets the generator used for window ids
func WithIDGenerator(gen *id.Generator) Option {
	return func(m *Manager) {
		if gen != nil {
			m.ids = gen
		}
	}
}

// Manager is the authoritative registry of open windows. It enforces one
// instance per app, hands out strictly increasing stacking values, and
// remembers the last geometry of every app it has seen.
type Manager struct {
	mu      sync.RWMutex
	windows map[string]*window              // Protected by mu
	byApp   map[string]string               // appID -> window id, protected by mu
	records map[string]types.GeometryRecord // Protected by mu
	zIndex  int64                           // Protected by mu
	seq     uint64                          // Protected by mu
	version uint64                          // Snapshot version, protected by mu

	listenerMu sync.RWMutex
	listeners  map[uint64]func(Event)
	listenerID uint64

	apps        AppCatalog
	feedback    feedback.Service
	persister   Persister
	metrics     *monitoring.Metrics
	logger      *zap.Logger
	ids         *id.Generator
	cascadeBase types.Position
	defaultMin  types.Size
}

var _ geometry.Target = (*Manager)(nil)

// NewManager creates a window manager resolving apps through catalog
func NewManager(catalog AppCatalog, opts ...Option) *Manager {
	m := &Manager{
		windows:     make(map[string]*window),
		byApp:       make(map[string]string),
		records:     make(map[string]types.GeometryRecord),
		zIndex:      BaseZIndex,
		listeners:   make(map[uint64]func(Event)),
		apps:        catalog,
		feedback:    feedback.Nop{},
		logger:      zap.NewNop(),
		ids:         id.Default(),
		cascadeBase: DefaultCascadeBase,
		defaultMin:  types.Size{Width: types.DefaultMinWidth, Height: types.DefaultMinHeight},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// effects collects the side effects of one mutation so they run after the
// lock is released
type effects struct {
	sounds   []feedback.Sound
	launcher bool
	snapshot *types.SessionSnapshot // Taken under the lock so versions follow mutation order
	events   []Event
}

func (fx *effects) emit(t EventType, w *window) {
	fx.events = append(fx.events, Event{Type: t, Window: w.snapshot()})
}

// Open raises the existing window for appID or creates a new one. Unknown
// apps are ignored and reported through the bool.
func (m *Manager) Open(appID string, props map[string]interface{}) (Instance, bool) {
	if inst, ok := m.reopen(appID); ok {
		return inst, true
	}

	entry, ok := m.lookup(appID)
	if !ok {
		m.logger.Debug("Open ignored for unknown app", zap.String("app_id", appID))
		return Instance{}, false
	}

	// Build content outside the lock; factories are foreign code
	var content interface{}
	if entry.Factory != nil {
		content = entry.Factory(props)
	}

	var fx effects

	m.mu.Lock()
	if _, ok := m.byApp[appID]; ok {
		// Opened by another caller while the factory ran
		m.mu.Unlock()
		return m.reopen(appID)
	}

	minSize := m.minSizeFor(entry)
	geom := types.Geometry{
		Position: geometry.Cascade(m.cascadeBase, len(m.windows)),
		Size:     entry.DefaultSize(),
	}
	if rec, ok := m.records[appID]; ok {
		geom = rec.State
	}
	geom.Size = geometry.Clamp(geom.Size, minSize)

	m.seq++
	w := &window{
		id:       m.ids.NewWindowID().String(),
		entry:    entry,
		seq:      m.seq,
		geometry: geom,
		minSize:  minSize,
		zIndex:   m.nextZ(),
		content:  content,
	}
	m.windows[w.id] = w
	m.byApp[appID] = w.id

	fx.sounds = append(fx.sounds, feedback.SoundOpen)
	fx.launcher = true
	m.stage(&fx)
	fx.emit(EventOpened, w)
	inst := w.snapshot()
	open, topZ := len(m.windows), m.zIndex
	m.mu.Unlock()

	m.logger.Info("Window opened",
		zap.String("window_id", inst.ID),
		zap.String("app_id", appID),
		zap.Int64("z_index", inst.ZIndex),
	)
	if m.metrics != nil {
		m.metrics.RecordWindowOpened(open, topZ)
	}

	m.apply(fx)
	return inst, true
}

// reopen un-minimizes and raises the open window for appID
func (m *Manager) reopen(appID string) (Instance, bool) {
	var fx effects

	m.mu.Lock()
	windowID, ok := m.byApp[appID]
	if !ok {
		m.mu.Unlock()
		return Instance{}, false
	}

	w := m.windows[windowID]
	w.minimized = false
	w.zIndex = m.nextZ()
	fx.launcher = true
	fx.emit(EventFocused, w)
	inst, topZ := w.snapshot(), m.zIndex
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordFocus(topZ)
	}

	m.apply(fx)
	return inst, true
}

// Close removes a window, remembering its geometry for the next open of the
// same app
func (m *Manager) Close(windowID string) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	m.capture(w)
	delete(m.windows, windowID)
	delete(m.byApp, w.entry.ID)

	fx.sounds = append(fx.sounds, feedback.SoundClose)
	m.stage(&fx)
	fx.emit(EventClosed, w)
	open, records := len(m.windows), len(m.records)
	m.mu.Unlock()

	m.logger.Info("Window closed",
		zap.String("window_id", windowID),
		zap.String("app_id", w.entry.ID),
	)
	if m.metrics != nil {
		m.metrics.RecordWindowClosed(open)
		m.metrics.SetGeometryRecords(records)
	}

	m.apply(fx)
	return true
}

// Minimize toggles the minimized flag. Geometry and stacking are untouched.
func (m *Manager) Minimize(windowID string) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	w.minimized = !w.minimized
	fx.sounds = append(fx.sounds, feedback.SoundMinimize)
	fx.emit(EventMinimized, w)
	m.mu.Unlock()

	m.apply(fx)
	return true
}

// ToggleMaximize flips the maximized flag and brings the window to front
func (m *Manager) ToggleMaximize(windowID string) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	w.maximized = !w.maximized
	w.zIndex = m.nextZ()
	m.capture(w)
	m.stage(&fx)
	fx.emit(EventMaximized, w)
	topZ, records := m.zIndex, len(m.records)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordFocus(topZ)
		m.metrics.SetGeometryRecords(records)
	}

	m.apply(fx)
	return true
}

// Focus gives the window a stacking value above every other. Other windows
// keep their values.
func (m *Manager) Focus(windowID string) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	w.zIndex = m.nextZ()
	fx.emit(EventFocused, w)
	topZ := m.zIndex
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordFocus(topZ)
	}

	m.apply(fx)
	return true
}

// Move commits a new window origin
func (m *Manager) Move(windowID string, pos types.Position) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	w.geometry.Position = pos
	m.capture(w)
	m.stage(&fx)
	fx.emit(EventMoved, w)
	m.mu.Unlock()

	m.apply(fx)
	return true
}

// Resize commits a new window size, clamped to the window's minimum. A nil
// pos keeps the current origin.
func (m *Manager) Resize(windowID string, size types.Size, pos *types.Position) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	w.geometry.Size = geometry.Clamp(size, w.minSize)
	if pos != nil {
		w.geometry.Position = *pos
	}
	m.capture(w)
	m.stage(&fx)
	fx.emit(EventResized, w)
	m.mu.Unlock()

	m.apply(fx)
	return true
}

// SetTitle overrides the displayed title. Markup is stripped; nil or a
// title that sanitizes to nothing reverts to the app's title.
func (m *Manager) SetTitle(windowID string, title *string) bool {
	var override *string
	if title != nil {
		if clean := utils.SanitizeTitle(*title); clean != "" {
			override = &clean
		}
	}

	return m.update(windowID, func(rt *RuntimeState) { rt.DynamicTitle = override })
}

// SetIcon overrides the displayed icon. nil or blank reverts to the app's
// icon; over-long values are refused.
func (m *Manager) SetIcon(windowID string, icon *string) bool {
	var override *string
	if icon != nil {
		trimmed := strings.TrimSpace(*icon)
		if len(trimmed) > utils.MaxIconLength {
			return false
		}
		if trimmed != "" {
			override = &trimmed
		}
	}

	return m.update(windowID, func(rt *RuntimeState) { rt.DynamicIcon = override })
}

// SetBadge sets the attention counter. nil or a non-positive count clears it.
func (m *Manager) SetBadge(windowID string, count *int) bool {
	var badge *int
	if count != nil && *count > 0 {
		n := *count
		badge = &n
	}

	return m.update(windowID, func(rt *RuntimeState) { rt.Badge = badge })
}

// update applies a cosmetic change. Runtime state is never persisted.
func (m *Manager) update(windowID string, fn func(*RuntimeState)) bool {
	var fx effects

	m.mu.Lock()
	w, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	fn(&w.runtime)
	fx.emit(EventUpdated, w)
	m.mu.Unlock()

	m.apply(fx)
	return true
}

// Get retrieves a window by id
func (m *Manager) Get(windowID string) (Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.windows[windowID]
	if !ok {
		return Instance{}, false
	}
	return w.snapshot(), true
}

// FindByApp returns the open window for appID, if any
func (m *Manager) FindByApp(appID string) (Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	windowID, ok := m.byApp[appID]
	if !ok {
		return Instance{}, false
	}
	return m.windows[windowID].snapshot(), true
}

// List returns every open window ordered back to front
func (m *Manager) List() []Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Instance, 0, len(m.windows))
	for _, w := range m.windows {
		list = append(list, w.snapshot())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ZIndex < list[j].ZIndex })
	return list
}

// Geometry implements geometry.Target
func (m *Manager) Geometry(windowID string) (types.Geometry, types.Size, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.windows[windowID]
	if !ok {
		return types.Geometry{}, types.Size{}, false
	}
	return w.geometry, w.minSize, true
}

// IsMaximized implements geometry.Target
func (m *Manager) IsMaximized(windowID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.windows[windowID]
	return ok && w.maximized
}

// Records returns the remembered geometry of every app, sorted by app id
func (m *Manager) Records() []types.GeometryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedRecords(nil)
}

// Record returns the remembered geometry for appID
func (m *Manager) Record(appID string) (types.GeometryRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[appID]
	return rec, ok
}

// LoadRecords seeds remembered geometry, typically from a saved session.
// Existing records for the same app are replaced.
func (m *Manager) LoadRecords(records []types.GeometryRecord) {
	m.mu.Lock()
	for _, rec := range records {
		if rec.AppID == "" {
			continue
		}
		m.records[rec.AppID] = rec
	}
	count := len(m.records)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetGeometryRecords(count)
	}
}

// Snapshot builds the persisted view: open app ids in the order they were
// opened, and every geometry record including those of apps not open now.
// Open windows contribute their current geometry.
func (m *Manager) Snapshot() types.SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() types.SessionSnapshot {
	open := make([]*window, 0, len(m.windows))
	for _, w := range m.windows {
		open = append(open, w)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].seq < open[j].seq })

	appIDs := make([]string, 0, len(open))
	current := make(map[string]types.GeometryRecord, len(open))
	for _, w := range open {
		appIDs = append(appIDs, w.entry.ID)
		current[w.entry.ID] = types.GeometryRecord{AppID: w.entry.ID, State: w.geometry}
	}

	return types.SessionSnapshot{
		OpenWindows:  appIDs,
		WindowStates: m.sortedRecords(current),
		Version:      m.version,
	}
}

// stage bumps the snapshot version and queues the new snapshot for the
// persister. Must hold mu, after the mutation.
func (m *Manager) stage(fx *effects) {
	m.version++
	snapshot := m.snapshotLocked()
	fx.snapshot = &snapshot
}

// sortedRecords merges overrides over the stored records. Must hold mu.
func (m *Manager) sortedRecords(overrides map[string]types.GeometryRecord) []types.GeometryRecord {
	merged := make(map[string]types.GeometryRecord, len(m.records)+len(overrides))
	for appID, rec := range m.records {
		merged[appID] = rec
	}
	for appID, rec := range overrides {
		merged[appID] = rec
	}

	records := make([]types.GeometryRecord, 0, len(merged))
	for _, rec := range merged {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].AppID < records[j].AppID })
	return records
}

// Stats returns manager statistics
func (m *Manager) Stats() types.WindowStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.WindowStats{
		TotalWindows: len(m.windows),
		TopZIndex:    m.zIndex,
	}

	var top *window
	for _, w := range m.windows {
		if w.minimized {
			stats.MinimizedWindows++
		}
		if w.maximized {
			stats.MaximizedWindows++
		}
		if top == nil || w.zIndex > top.zIndex {
			top = w
		}
	}

	if top != nil {
		windowID, appID := top.id, top.entry.ID
		stats.FocusedWindowID = &windowID
		stats.FocusedAppID = &appID
	}
	return stats
}

// Subscribe registers fn for every registry event and returns a func that
// removes it. Events are delivered after the registry lock is released.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()

	m.listenerID++
	lid := m.listenerID
	m.listeners[lid] = fn

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, lid)
		m.listenerMu.Unlock()
	}
}

// lookup resolves appID through the catalog
func (m *Manager) lookup(appID string) (types.AppEntry, bool) {
	if m.apps == nil || appID == "" {
		return types.AppEntry{}, false
	}
	return m.apps.GetApp(appID)
}

// minSizeFor resolves the app's minimum size against the manager default
func (m *Manager) minSizeFor(entry types.AppEntry) types.Size {
	minSize := m.defaultMin
	if entry.MinWidth > 0 {
		minSize.Width = entry.MinWidth
	}
	if entry.MinHeight > 0 {
		minSize.Height = entry.MinHeight
	}
	return minSize
}

// nextZ hands out the next stacking value. Must hold mu.
func (m *Manager) nextZ() int64 {
	m.zIndex++
	return m.zIndex
}

// capture stores the window's geometry as its app's record. Must hold mu.
func (m *Manager) capture(w *window) {
	m.records[w.entry.ID] = types.GeometryRecord{AppID: w.entry.ID, State: w.geometry}
}

// apply runs side effects outside the registry lock
func (m *Manager) apply(fx effects) {
	for _, sound := range fx.sounds {
		m.feedback.Play(sound)
	}
	if fx.launcher {
		m.feedback.CloseLauncher()
	}

	if fx.snapshot != nil && m.persister != nil {
		m.persister.Persist(*fx.snapshot)
	}

	if len(fx.events) == 0 {
		return
	}

	m.listenerMu.RLock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenerMu.RUnlock()

	for _, ev := range fx.events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
