package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/providers/storage"
	"github.com/GriffinCanCode/webdesk/internal/shared/id"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// Keys under which the session snapshot is stored
const (
	KeyOpenWindows  = "openWindows"
	KeyWindowStates = "windowStates"
)

// DefaultStagger is the delay between consecutive restored window opens
const DefaultStagger = 50 * time.Millisecond

// DefaultWriteTimeout bounds a single background snapshot write
const DefaultWriteTimeout = 5 * time.Second

// ErrNotAttached is returned when the bridge has no window manager
var ErrNotAttached = errors.New("session: no window manager attached")

// WindowManager is the part of the window registry the bridge drives
type WindowManager interface {
	Open(appID string, props map[string]interface{}) (window.Instance, bool)
	Snapshot() types.SessionSnapshot
	LoadRecords(records []types.GeometryRecord)
}

// Catalog reports which apps exist and whether the catalog is ready
type Catalog interface {
	GetApp(appID string) (types.AppEntry, bool)
	Loaded() bool
}

// Status describes the bridge's persistence history
type Status struct {
	Restored       bool       `json:"restored"`
	LastSnapshotID string     `json:"last_snapshot_id,omitempty"`
	LastSaved      *time.Time `json:"last_saved,omitempty"`
	LastRestored   *time.Time `json:"last_restored,omitempty"`
	WriteErrors    int64      `json:"write_errors"`
}

// Option configures a Bridge
type Option func(*Bridge)

// WithClock replaces the clock used to stagger restored opens
func WithClock(clock Clock) Option {
	return func(b *Bridge) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithStagger sets the delay between restored opens
func WithStagger(stagger time.Duration) Option {
	return func(b *Bridge) {
		if stagger >= 0 {
			b.stagger = stagger
		}
	}
}

// WithWriteTimeout bounds each background write
func WithWriteTimeout(timeout time.Duration) Option {
	return func(b *Bridge) {
		if timeout > 0 {
			b.writeTimeout = timeout
		}
	}
}

// WithLogger sets the bridge's logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics adds snapshot and restore metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(b *Bridge) { b.metrics = metrics }
}

// Bridge persists the window registry to a store and replays it on startup
type Bridge struct {
	store   storage.Store
	catalog Catalog
	windows WindowManager

	clock        Clock
	stagger      time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
	metrics      *monitoring.Metrics

	baseCtx context.Context
	cancel  context.CancelFunc
	writes  sync.WaitGroup

	// writeMu serializes writes; together with snapshot versions it keeps an
	// older snapshot from landing after a newer one
	writeMu        sync.Mutex
	writtenVersion uint64 // Protected by writeMu
	writeErrors    int64  // Protected by mu

	mu             sync.Mutex
	restored       bool
	timers         []Timer
	lastSnapshotID id.SnapshotID
	lastSaved      *time.Time
	lastRestored   *time.Time
}

// NewBridge creates a bridge over store. Attach a window manager before
// restoring.
func NewBridge(store storage.Store, catalog Catalog, opts ...Option) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		store:        store,
		catalog:      catalog,
		clock:        realClock{},
		stagger:      DefaultStagger,
		writeTimeout: DefaultWriteTimeout,
		logger:       zap.NewNop(),
		baseCtx:      ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach sets the window manager the bridge restores into and saves from
func (b *Bridge) Attach(windows WindowManager) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = windows
}

func (b *Bridge) manager() WindowManager {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.windows
}

// Persist implements window.Persister. The write happens in the background;
// failures are logged and counted, never retried. A versioned snapshot no
// newer than one already written is skipped.
func (b *Bridge) Persist(snapshot types.SessionSnapshot) {
	b.writes.Add(1)
	go func() {
		defer b.writes.Done()

		b.writeMu.Lock()
		defer b.writeMu.Unlock()

		if snapshot.Version != 0 && snapshot.Version <= b.writtenVersion {
			b.record("skipped")
			return
		}

		ctx, cancel := context.WithTimeout(b.baseCtx, b.writeTimeout)
		defer cancel()

		if err := b.write(ctx, snapshot); err != nil {
			b.mu.Lock()
			b.writeErrors++
			b.mu.Unlock()

			b.logger.Warn("Session snapshot write failed",
				zap.Error(err),
				zap.Int("open_windows", len(snapshot.OpenWindows)),
			)
			b.record("failure")
			return
		}

		b.advance(snapshot.Version)
		b.record("success")
	}()
}

// Save synchronously writes the attached manager's current snapshot
func (b *Bridge) Save(ctx context.Context) error {
	wm := b.manager()
	if wm == nil {
		return ErrNotAttached
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	snapshot := wm.Snapshot()
	if err := b.write(ctx, snapshot); err != nil {
		b.record("failure")
		return err
	}
	b.advance(snapshot.Version)
	b.record("success")
	return nil
}

// advance records the newest version on disk. Must hold writeMu.
func (b *Bridge) advance(version uint64) {
	if version > b.writtenVersion {
		b.writtenVersion = version
	}
}

// write stores both halves of the snapshot. Must hold writeMu.
func (b *Bridge) write(ctx context.Context, snapshot types.SessionSnapshot) error {
	open := snapshot.OpenWindows
	if open == nil {
		open = []string{}
	}
	states := snapshot.WindowStates
	if states == nil {
		states = []types.GeometryRecord{}
	}

	if err := b.store.Set(ctx, KeyOpenWindows, open); err != nil {
		return fmt.Errorf("write %s: %w", KeyOpenWindows, err)
	}
	if err := b.store.Set(ctx, KeyWindowStates, states); err != nil {
		return fmt.Errorf("write %s: %w", KeyWindowStates, err)
	}

	snapshotID := id.NewSnapshotID()
	now := time.Now()
	b.mu.Lock()
	b.lastSnapshotID = snapshotID
	b.lastSaved = &now
	b.mu.Unlock()

	b.logger.Debug("Session snapshot written",
		zap.String("snapshot_id", snapshotID.String()),
		zap.Int("open_windows", len(open)),
		zap.Int("records", len(states)),
	)
	return nil
}

func (b *Bridge) record(status string) {
	if b.metrics != nil {
		b.metrics.RecordSnapshotWrite(status)
	}
}

// Restore replays the saved session once. Each saved app still in the
// catalog is scheduled to open index×stagger from now, and the scheduled app
// ids are returned without waiting for the opens. Restore does nothing until
// the catalog is loaded, and nothing at all after it has run once.
func (b *Bridge) Restore(ctx context.Context) ([]string, error) {
	wm := b.manager()
	if wm == nil {
		return nil, ErrNotAttached
	}

	if b.catalog == nil || !b.catalog.Loaded() {
		b.logger.Debug("Session restore deferred until the app catalog is loaded")
		return nil, nil
	}

	b.mu.Lock()
	if b.restored {
		b.mu.Unlock()
		return nil, nil
	}
	b.restored = true
	now := time.Now()
	b.lastRestored = &now
	b.mu.Unlock()

	snapshot, found := b.read(ctx)
	if !found {
		b.logger.Info("No saved session to restore")
		return nil, nil
	}

	// Records first, so restored opens resume their saved geometry
	wm.LoadRecords(snapshot.WindowStates)

	scheduled := make([]string, 0, len(snapshot.OpenWindows))
	for _, appID := range snapshot.OpenWindows {
		if _, ok := b.catalog.GetApp(appID); !ok {
			b.logger.Debug("Dropping stale app from saved session", zap.String("app_id", appID))
			continue
		}
		scheduled = append(scheduled, appID)
	}

	b.mu.Lock()
	for i, appID := range scheduled {
		delay := time.Duration(i) * b.stagger
		b.timers = append(b.timers, b.clock.AfterFunc(delay, func() {
			wm.Open(appID, nil)
		}))
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordRestore(len(scheduled))
	}
	b.logger.Info("Session restore scheduled",
		zap.Strings("apps", scheduled),
		zap.Int("dropped", len(snapshot.OpenWindows)-len(scheduled)),
		zap.Int("records", len(snapshot.WindowStates)),
	)
	return scheduled, nil
}

// read loads the saved snapshot. Read failures are logged and treated as an
// empty session.
func (b *Bridge) read(ctx context.Context) (types.SessionSnapshot, bool) {
	snapshot, found, err := b.Load(ctx)
	if err != nil {
		b.logger.Warn("Session read failed; starting empty", zap.Error(err))
		return types.SessionSnapshot{}, false
	}
	return snapshot, found
}

// Load returns the stored snapshot. found is false when no open-window list
// has ever been saved.
func (b *Bridge) Load(ctx context.Context) (types.SessionSnapshot, bool, error) {
	var snapshot types.SessionSnapshot

	found, err := b.store.Get(ctx, KeyOpenWindows, &snapshot.OpenWindows)
	if err != nil {
		return types.SessionSnapshot{}, false, fmt.Errorf("read %s: %w", KeyOpenWindows, err)
	}

	if _, err := b.store.Get(ctx, KeyWindowStates, &snapshot.WindowStates); err != nil {
		return types.SessionSnapshot{}, false, fmt.Errorf("read %s: %w", KeyWindowStates, err)
	}

	return snapshot, found, nil
}

// Watch forwards every stored change of either session key to fn, for
// echoing session changes to other views. The returned func stops delivery.
func (b *Bridge) Watch(fn func(key string, raw []byte)) func() {
	stops := []func(){
		b.store.Subscribe(KeyOpenWindows, func(raw []byte) { fn(KeyOpenWindows, raw) }),
		b.store.Subscribe(KeyWindowStates, func(raw []byte) { fn(KeyWindowStates, raw) }),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// Status returns the bridge's persistence history
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := Status{
		Restored:       b.restored,
		LastSnapshotID: b.lastSnapshotID.String(),
		WriteErrors:    b.writeErrors,
	}
	if b.lastSaved != nil {
		t := *b.lastSaved
		status.LastSaved = &t
	}
	if b.lastRestored != nil {
		t := *b.lastRestored
		status.LastRestored = &t
	}
	return status
}

// Flush waits for background writes started so far
func (b *Bridge) Flush() {
	b.writes.Wait()
}

// Close stops pending restored opens and waits for background writes
func (b *Bridge) Close() {
	b.mu.Lock()
	for _, timer := range b.timers {
		timer.Stop()
	}
	b.timers = nil
	b.mu.Unlock()

	b.writes.Wait()
	b.cancel()
}
