package window

import (
	"sync"
	"testing"

	"github.com/GriffinCanCode/webdesk/internal/domain/feedback"
	"github.com/GriffinCanCode/webdesk/internal/domain/geometry"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

type mockCatalog map[string]types.AppEntry

func (c mockCatalog) GetApp(appID string) (types.AppEntry, bool) {
	entry, ok := c[appID]
	return entry, ok
}

func newCatalog() mockCatalog {
	return mockCatalog{
		"notepad":    {ID: "notepad", Title: "Notepad", Icon: "📝", DefaultWidth: 800, DefaultHeight: 600},
		"terminal":   {ID: "terminal", Title: "Terminal", Icon: "💻", DefaultWidth: 640, DefaultHeight: 400},
		"calculator": {ID: "calculator", Title: "Calculator", Icon: "🧮", DefaultWidth: 100, DefaultHeight: 100, MinWidth: 260, MinHeight: 380},
	}
}

type recordingFeedback struct {
	mu       sync.Mutex
	sounds   []feedback.Sound
	launcher int
}

func (f *recordingFeedback) Play(s feedback.Sound) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sounds = append(f.sounds, s)
}

func (f *recordingFeedback) CloseLauncher() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launcher++
}

type recordingPersister struct {
	mu        sync.Mutex
	snapshots []types.SessionSnapshot
}

func (p *recordingPersister) Persist(s types.SessionSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

func (p *recordingPersister) last() types.SessionSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots[len(p.snapshots)-1]
}

func newTestManager() (*Manager, *recordingFeedback, *recordingPersister) {
	fb := &recordingFeedback{}
	p := &recordingPersister{}
	m := NewManager(newCatalog(), WithFeedback(fb), WithPersister(p))
	return m, fb, p
}

func TestOpen(t *testing.T) {
	m, fb, p := newTestManager()

	inst, ok := m.Open("notepad", nil)
	if !ok {
		t.Fatal("Open failed")
	}

	if inst.ZIndex != BaseZIndex+1 {
		t.Errorf("Expected first z-index %d, got %d", BaseZIndex+1, inst.ZIndex)
	}
	if inst.Position != DefaultCascadeBase {
		t.Errorf("Expected position %+v, got %+v", DefaultCascadeBase, inst.Position)
	}
	if inst.Size.Width != 800 || inst.Size.Height != 600 {
		t.Errorf("Expected default size 800x600, got %+v", inst.Size)
	}
	if inst.MinSize.Width != types.DefaultMinWidth || inst.MinSize.Height != types.DefaultMinHeight {
		t.Errorf("Expected default min size, got %+v", inst.MinSize)
	}
	if inst.Title != "Notepad" || inst.Icon != "📝" {
		t.Errorf("Expected registry title and icon, got %q %q", inst.Title, inst.Icon)
	}
	if inst.IsMinimized || inst.IsMaximized {
		t.Error("New window should be neither minimized nor maximized")
	}

	if len(fb.sounds) != 1 || fb.sounds[0] != feedback.SoundOpen {
		t.Errorf("Expected open sound, got %v", fb.sounds)
	}
	if fb.launcher != 1 {
		t.Errorf("Expected launcher to be closed once, got %d", fb.launcher)
	}
	if p.count() != 1 {
		t.Errorf("Expected one snapshot write, got %d", p.count())
	}
}

func TestOpenSingleInstance(t *testing.T) {
	m, fb, p := newTestManager()

	first, _ := m.Open("notepad", nil)
	m.Minimize(first.ID)

	second, ok := m.Open("notepad", nil)
	if !ok {
		t.Fatal("Reopen failed")
	}

	if second.ID != first.ID {
		t.Errorf("Expected the same instance, got %s and %s", first.ID, second.ID)
	}
	if second.IsMinimized {
		t.Error("Reopen should un-minimize")
	}
	if second.ZIndex <= first.ZIndex {
		t.Error("Reopen should raise the window")
	}
	if len(m.List()) != 1 {
		t.Errorf("Expected 1 window, got %d", len(m.List()))
	}
	if p.count() != 1 {
		t.Errorf("Reopen should not write a snapshot, got %d writes", p.count())
	}
	if fb.launcher != 2 {
		t.Errorf("Expected launcher closed on both opens, got %d", fb.launcher)
	}
}

func TestOpenUnknownApp(t *testing.T) {
	m, fb, p := newTestManager()

	if _, ok := m.Open("does-not-exist", nil); ok {
		t.Error("Open of an unknown app should report false")
	}
	if len(m.List()) != 0 || len(fb.sounds) != 0 || p.count() != 0 {
		t.Error("Open of an unknown app should have no effects")
	}
}

func TestOpenCascades(t *testing.T) {
	m := NewManager(newCatalog(), WithCascadeBase(types.Position{X: 100, Y: 80}))

	m.Open("notepad", nil)
	term, _ := m.Open("terminal", nil)

	if term.Position.X != 100+geometry.CascadeStep || term.Position.Y != 80+geometry.CascadeStep {
		t.Errorf("Expected cascaded position, got %+v", term.Position)
	}
}

func TestOpenUsesContentFactory(t *testing.T) {
	catalog := newCatalog()
	entry := catalog["notepad"]
	entry.Factory = func(props map[string]interface{}) interface{} {
		return props["file"]
	}
	catalog["notepad"] = entry

	m := NewManager(catalog)
	inst, _ := m.Open("notepad", map[string]interface{}{"file": "/home/readme.txt"})

	if inst.Content != "/home/readme.txt" {
		t.Errorf("Expected factory content, got %v", inst.Content)
	}
}

func TestMonotonicZOrder(t *testing.T) {
	m, _, _ := newTestManager()

	a, _ := m.Open("notepad", nil)
	b, _ := m.Open("terminal", nil)
	c, _ := m.Open("calculator", nil)

	steps := []struct {
		name string
		do   func() string
	}{
		{"focus a", func() string { m.Focus(a.ID); return a.ID }},
		{"maximize b", func() string { m.ToggleMaximize(b.ID); return b.ID }},
		{"reopen c", func() string { m.Open("calculator", nil); return c.ID }},
		{"focus a again", func() string { m.Focus(a.ID); return a.ID }},
		{"focus a twice", func() string { m.Focus(a.ID); return a.ID }},
	}

	seen := map[int64]bool{}
	for _, w := range m.List() {
		seen[w.ZIndex] = true
	}

	for _, step := range steps {
		target := step.do()
		top, _ := m.Get(target)

		for _, w := range m.List() {
			if w.ID != target && w.ZIndex >= top.ZIndex {
				t.Errorf("%s: window %s has z %d >= target z %d", step.name, w.ID, w.ZIndex, top.ZIndex)
			}
		}
		if seen[top.ZIndex] {
			t.Errorf("%s: z-index %d was reused", step.name, top.ZIndex)
		}
		seen[top.ZIndex] = true
	}
}

func TestFocusDoesNotRenumber(t *testing.T) {
	m, _, _ := newTestManager()

	a, _ := m.Open("notepad", nil)
	b, _ := m.Open("terminal", nil)
	m.Focus(a.ID)

	after, _ := m.Get(b.ID)
	if after.ZIndex != b.ZIndex {
		t.Errorf("Focus must not touch other windows: %d -> %d", b.ZIndex, after.ZIndex)
	}
}

func TestMinimizeNonDestructive(t *testing.T) {
	m, fb, p := newTestManager()

	inst, _ := m.Open("notepad", nil)
	writes := p.count()

	m.Minimize(inst.ID)
	minimized, _ := m.Get(inst.ID)
	if !minimized.IsMinimized {
		t.Fatal("Expected window to be minimized")
	}

	m.Minimize(inst.ID)
	restored, _ := m.Get(inst.ID)

	if restored.IsMinimized != inst.IsMinimized {
		t.Error("Minimize twice should restore the original flag")
	}
	if restored.Position != inst.Position || restored.Size != inst.Size || restored.ZIndex != inst.ZIndex {
		t.Errorf("Minimize should not change geometry or z: %+v vs %+v", restored, inst)
	}
	if p.count() != writes {
		t.Error("Minimize should not write a snapshot")
	}
	if fb.sounds[len(fb.sounds)-1] != feedback.SoundMinimize {
		t.Error("Expected minimize sound")
	}
}

func TestCloseCapturesGeometry(t *testing.T) {
	m, fb, _ := newTestManager()

	inst, _ := m.Open("notepad", nil)
	m.Move(inst.ID, types.Position{X: 300, Y: 200})

	if !m.Close(inst.ID) {
		t.Fatal("Close failed")
	}
	if _, ok := m.Get(inst.ID); ok {
		t.Error("Closed window should be removed")
	}
	if m.Close(inst.ID) {
		t.Error("Double close should report false")
	}
	if fb.sounds[len(fb.sounds)-1] != feedback.SoundClose {
		t.Error("Expected close sound")
	}

	rec, ok := m.Record("notepad")
	if !ok {
		t.Fatal("Expected geometry record after close")
	}
	if rec.State.Position != (types.Position{X: 300, Y: 200}) {
		t.Errorf("Unexpected record %+v", rec)
	}

	again, _ := m.Open("notepad", nil)
	if again.ID == inst.ID {
		t.Error("Window ids must never be reused")
	}
	if again.Position != rec.State.Position || again.Size != rec.State.Size {
		t.Errorf("Reopened window should resume saved geometry, got %+v", again.Geometry())
	}
}

func TestResizeClampsToMin(t *testing.T) {
	m, _, _ := newTestManager()

	inst, _ := m.Open("notepad", nil)
	m.Resize(inst.ID, types.Size{Width: 10, Height: 10}, nil)

	got, _ := m.Get(inst.ID)
	if got.Size.Width != types.DefaultMinWidth || got.Size.Height != types.DefaultMinHeight {
		t.Errorf("Expected size clamped to default min, got %+v", got.Size)
	}
	if got.Position != inst.Position {
		t.Error("Resize without a position should keep the origin")
	}

	pos := types.Position{X: 5, Y: 6}
	m.Resize(inst.ID, types.Size{Width: 500, Height: 400}, &pos)
	got, _ = m.Get(inst.ID)
	if got.Position != pos || got.Size.Width != 500 {
		t.Errorf("Unexpected geometry after resize %+v", got.Geometry())
	}
}

func TestPerAppMinSize(t *testing.T) {
	m, _, _ := newTestManager()

	calc, _ := m.Open("calculator", nil)
	if calc.Size.Width != 260 || calc.Size.Height != 380 {
		t.Errorf("Default size below the app minimum should be clamped, got %+v", calc.Size)
	}

	m.Resize(calc.ID, types.Size{Width: 200, Height: 200}, nil)
	got, _ := m.Get(calc.ID)
	if got.Size.Width != 260 || got.Size.Height != 380 {
		t.Errorf("Expected per-app minimum to hold, got %+v", got.Size)
	}
}

func TestWithDefaultMinSize(t *testing.T) {
	m := NewManager(newCatalog(), WithDefaultMinSize(types.Size{Width: 320}))

	inst, _ := m.Open("notepad", nil)
	if inst.MinSize.Width != 320 || inst.MinSize.Height != types.DefaultMinHeight {
		t.Errorf("Unexpected min size %+v", inst.MinSize)
	}
}

func TestToggleMaximize(t *testing.T) {
	m, _, p := newTestManager()

	inst, _ := m.Open("notepad", nil)
	m.Open("terminal", nil)
	writes := p.count()

	m.ToggleMaximize(inst.ID)
	got, _ := m.Get(inst.ID)
	if !got.IsMaximized {
		t.Error("Expected maximized")
	}
	if got.ZIndex <= inst.ZIndex {
		t.Error("Maximize should raise the window")
	}
	if p.count() != writes+1 {
		t.Error("Maximize should write a snapshot")
	}
	if _, ok := m.Record("notepad"); !ok {
		t.Error("Maximize should capture a geometry record")
	}
	if !m.IsMaximized(inst.ID) {
		t.Error("IsMaximized should report true")
	}

	m.ToggleMaximize(inst.ID)
	if m.IsMaximized(inst.ID) {
		t.Error("Second toggle should restore")
	}
}

func TestCosmeticOverrides(t *testing.T) {
	m, _, p := newTestManager()

	inst, _ := m.Open("notepad", nil)
	writes := p.count()

	title := "<b>readme.txt</b> - Notepad"
	m.SetTitle(inst.ID, &title)
	got, _ := m.Get(inst.ID)
	if got.Title != "readme.txt - Notepad" {
		t.Errorf("Expected sanitized title, got %q", got.Title)
	}

	blank := "<script>x</script>"
	m.SetTitle(inst.ID, &blank)
	got, _ = m.Get(inst.ID)
	if got.Title != "Notepad" {
		t.Errorf("Title that sanitizes to nothing should revert, got %q", got.Title)
	}

	icon := "📄"
	m.SetIcon(inst.ID, &icon)
	got, _ = m.Get(inst.ID)
	if got.Icon != "📄" {
		t.Errorf("Expected icon override, got %q", got.Icon)
	}
	m.SetIcon(inst.ID, nil)
	got, _ = m.Get(inst.ID)
	if got.Icon != "📝" {
		t.Errorf("nil icon should revert, got %q", got.Icon)
	}

	three := 3
	m.SetBadge(inst.ID, &three)
	got, _ = m.Get(inst.ID)
	if got.Badge == nil || *got.Badge != 3 {
		t.Errorf("Expected badge 3, got %v", got.Badge)
	}

	zero := 0
	m.SetBadge(inst.ID, &zero)
	got, _ = m.Get(inst.ID)
	if got.Badge != nil {
		t.Error("Badge of zero should be absent")
	}

	if p.count() != writes {
		t.Error("Cosmetic overrides must not write snapshots")
	}
	if m.SetTitle("win_missing", &title) {
		t.Error("SetTitle on an unknown window should report false")
	}
}

func TestSnapshot(t *testing.T) {
	m, _, p := newTestManager()

	note, _ := m.Open("notepad", nil)
	m.Open("terminal", nil)
	m.Move(note.ID, types.Position{X: 10, Y: 20})
	m.Close(note.ID)
	calc, _ := m.Open("calculator", nil)
	m.Focus(calc.ID)

	snap := m.Snapshot()
	if len(snap.OpenWindows) != 2 || snap.OpenWindows[0] != "terminal" || snap.OpenWindows[1] != "calculator" {
		t.Errorf("Expected open order [terminal calculator], got %v", snap.OpenWindows)
	}

	rec, ok := snap.Record("notepad")
	if !ok {
		t.Fatal("Snapshot should keep records for apps that are no longer open")
	}
	if rec.State.Position != (types.Position{X: 10, Y: 20}) {
		t.Errorf("Unexpected notepad record %+v", rec)
	}
	if _, ok := snap.Record("terminal"); !ok {
		t.Error("Open windows should contribute their current geometry")
	}

	last := p.last()
	if len(last.OpenWindows) != 2 {
		t.Errorf("Last persisted snapshot should match, got %v", last.OpenWindows)
	}
}

func TestLoadRecords(t *testing.T) {
	m, _, _ := newTestManager()

	saved := types.Geometry{Position: types.Position{X: 400, Y: 300}, Size: types.Size{Width: 700, Height: 500}}
	m.LoadRecords([]types.GeometryRecord{{AppID: "notepad", State: saved}, {AppID: ""}})

	if len(m.Records()) != 1 {
		t.Errorf("Expected 1 record, got %d", len(m.Records()))
	}

	inst, _ := m.Open("notepad", nil)
	if inst.Geometry() != saved {
		t.Errorf("Expected saved geometry, got %+v", inst.Geometry())
	}
}

func TestSubscribe(t *testing.T) {
	m, _, _ := newTestManager()

	var mu sync.Mutex
	var events []EventType
	unsubscribe := m.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev.Type)
		mu.Unlock()
	})

	inst, _ := m.Open("notepad", nil)
	m.Move(inst.ID, types.Position{X: 1, Y: 1})
	m.Resize(inst.ID, types.Size{Width: 300, Height: 300}, nil)
	m.Minimize(inst.ID)
	m.ToggleMaximize(inst.ID)
	m.Focus(inst.ID)
	badge := 1
	m.SetBadge(inst.ID, &badge)
	m.Close(inst.ID)

	unsubscribe()
	m.Open("terminal", nil)

	want := []EventType{EventOpened, EventMoved, EventResized, EventMinimized, EventMaximized, EventFocused, EventUpdated, EventClosed}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestStats(t *testing.T) {
	m, _, _ := newTestManager()

	a, _ := m.Open("notepad", nil)
	b, _ := m.Open("terminal", nil)
	m.Minimize(a.ID)
	m.ToggleMaximize(b.ID)

	stats := m.Stats()
	if stats.TotalWindows != 2 || stats.MinimizedWindows != 1 || stats.MaximizedWindows != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.FocusedWindowID == nil || *stats.FocusedWindowID != b.ID {
		t.Errorf("Expected focused window %s", b.ID)
	}
	if stats.TopZIndex != BaseZIndex+3 {
		t.Errorf("Expected top z %d, got %d", BaseZIndex+3, stats.TopZIndex)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	m, _, p := newTestManager()

	if m.Close("x") || m.Minimize("x") || m.ToggleMaximize("x") || m.Focus("x") ||
		m.Move("x", types.Position{}) || m.Resize("x", types.Size{}, nil) {
		t.Error("Operations on unknown ids should report false")
	}
	if p.count() != 0 {
		t.Error("Operations on unknown ids should not write snapshots")
	}
}

func TestConcurrentOpenKeepsSingleInstance(t *testing.T) {
	m, _, _ := newTestManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Open("notepad", nil)
		}()
	}
	wg.Wait()

	if len(m.List()) != 1 {
		t.Errorf("Expected a single notepad instance, got %d", len(m.List()))
	}
}

func TestNotepadDragResizeCloseScenario(t *testing.T) {
	m, _, p := newTestManager()

	inst, _ := m.Open("notepad", nil)
	x0, y0 := inst.Position.X, inst.Position.Y

	sched := geometry.NewManualScheduler()
	ctrl := geometry.NewController(m, nil, sched)

	// Drag by (50, 30) from a point on the title bar
	down := geometry.PointerEvent{PointerID: 1, Button: geometry.PrimaryButton, X: x0 + 40, Y: y0 + 10, Region: geometry.RegionTitle}
	if !ctrl.BeginDrag(inst.ID, down) {
		t.Fatal("BeginDrag failed")
	}
	ctrl.HandleMove(geometry.PointerEvent{PointerID: 1, X: x0 + 90, Y: y0 + 40})
	sched.Flush()
	if !ctrl.HandleUp(geometry.PointerEvent{PointerID: 1}) {
		t.Fatal("Drag commit failed")
	}

	// Resize from the south-east corner by (100, 0)
	corner := geometry.PointerEvent{PointerID: 2, Button: geometry.PrimaryButton, X: x0 + 50 + 800, Y: y0 + 30 + 600, Region: geometry.RegionResize}
	if !ctrl.BeginResize(inst.ID, geometry.SouthEast, corner) {
		t.Fatal("BeginResize failed")
	}
	ctrl.HandleMove(geometry.PointerEvent{PointerID: 2, X: corner.X + 100, Y: corner.Y})
	if !ctrl.HandleUp(geometry.PointerEvent{PointerID: 2}) {
		t.Fatal("Resize commit failed")
	}

	m.Close(inst.ID)

	want := types.Geometry{
		Position: types.Position{X: x0 + 50, Y: y0 + 30},
		Size:     types.Size{Width: 900, Height: 600},
	}

	rec, ok := p.last().Record("notepad")
	if !ok {
		t.Fatal("Expected persisted notepad record")
	}
	if rec.State != want {
		t.Errorf("Expected persisted record %+v, got %+v", want, rec.State)
	}
}

func TestGestureRefusedWhileMaximized(t *testing.T) {
	m, _, _ := newTestManager()

	inst, _ := m.Open("notepad", nil)
	m.ToggleMaximize(inst.ID)

	ctrl := geometry.NewController(m, nil, geometry.NewManualScheduler())
	down := geometry.PointerEvent{PointerID: 1, Button: geometry.PrimaryButton, X: 100, Y: 60, Region: geometry.RegionTitle}
	if ctrl.BeginDrag(inst.ID, down) {
		t.Error("Drag should be disabled while maximized")
	}
}

func TestWestResizeThroughManager(t *testing.T) {
	m, _, _ := newTestManager()

	inst, _ := m.Open("notepad", nil)
	ctrl := geometry.NewController(m, nil, geometry.NewManualScheduler())

	down := geometry.PointerEvent{PointerID: 1, Button: geometry.PrimaryButton, X: inst.Position.X, Y: inst.Position.Y + 100, Region: geometry.RegionResize}
	ctrl.BeginResize(inst.ID, geometry.West, down)
	ctrl.HandleMove(geometry.PointerEvent{PointerID: 1, X: down.X + 10000, Y: down.Y})
	ctrl.HandleUp(geometry.PointerEvent{PointerID: 1})

	got, _ := m.Get(inst.ID)
	if got.Size.Width != types.DefaultMinWidth {
		t.Errorf("Expected width %d, got %d", types.DefaultMinWidth, got.Size.Width)
	}
	if got.Position.X != inst.Position.X+inst.Size.Width-types.DefaultMinWidth {
		t.Errorf("Expected pinned x %d, got %d", inst.Position.X+inst.Size.Width-types.DefaultMinWidth, got.Position.X)
	}
}

func TestSnapshotVersionsFollowMutations(t *testing.T) {
	m, _, p := newTestManager()

	inst, _ := m.Open("notepad", nil)
	m.Move(inst.ID, types.Position{X: 10, Y: 10})
	m.Resize(inst.ID, types.Size{Width: 900, Height: 700}, nil)
	m.ToggleMaximize(inst.ID)
	m.Close(inst.ID)

	p.mu.Lock()
	snapshots := append([]types.SessionSnapshot(nil), p.snapshots...)
	p.mu.Unlock()

	if len(snapshots) != 5 {
		t.Fatalf("Expected 5 snapshots, got %d", len(snapshots))
	}
	for i, snap := range snapshots {
		if snap.Version != uint64(i+1) {
			t.Errorf("Snapshot %d: expected version %d, got %d", i, i+1, snap.Version)
		}
	}

	// Each snapshot reflects the state right after its own mutation
	rec, _ := snapshots[1].Record("notepad")
	if rec.State.Position != (types.Position{X: 10, Y: 10}) {
		t.Errorf("Move snapshot carries %+v", rec.State.Position)
	}
	if len(snapshots[4].OpenWindows) != 0 {
		t.Errorf("Close snapshot still lists %v", snapshots[4].OpenWindows)
	}
	if got := m.Snapshot().Version; got != 5 {
		t.Errorf("Snapshot() should report the current version 5, got %d", got)
	}
}
