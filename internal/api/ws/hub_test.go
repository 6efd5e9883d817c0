package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/internal/domain/feedback"
	"github.com/GriffinCanCode/webdesk/internal/domain/geometry"
	"github.com/GriffinCanCode/webdesk/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/providers/storage"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

type fixture struct {
	url     string
	hub     *Hub
	windows *window.Manager
	metrics *monitoring.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	apps := registry.NewManager()
	_, err := registry.NewSeeder(apps, "", nil).Seed()
	require.NoError(t, err)

	store, err := storage.NewMemoryStore()
	require.NoError(t, err)

	signals := feedback.NewBroadcaster(nil)
	bridge := session.NewBridge(store, apps)
	windows := window.NewManager(apps, window.WithPersister(bridge), window.WithFeedback(signals))
	bridge.Attach(windows)

	metrics := monitoring.NewMetrics()
	hub := NewHub(windows, WithMetrics(metrics), WithFrameInterval(time.Millisecond))
	hub.Start(signals, bridge)

	router := gin.New()
	router.GET("/stream", hub.HandleConnection)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
		bridge.Close()
		store.Close()
	})

	return &fixture{
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream",
		hub:     hub,
		windows: windows,
		metrics: metrics,
	}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := expect(t, conn, TypeWelcome, nil)
	require.NotEmpty(t, welcome.ConnectionID)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Inbound) {
	t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// expect reads until a message of msgType matching match arrives
func expect(t *testing.T, conn *websocket.Conn, msgType string, match func(Outbound) bool) Outbound {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)

		var msg Outbound
		require.NoError(t, sonic.Unmarshal(data, &msg))
		if msg.Type == msgType && (match == nil || match(msg)) {
			return msg
		}
	}
}

// collect reads until one message of every wanted type has arrived, in any
// order. A nil matcher accepts the first message of its type.
func collect(t *testing.T, conn *websocket.Conn, want map[string]func(Outbound) bool) map[string]Outbound {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	got := make(map[string]Outbound, len(want))
	for len(got) < len(want) {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "collected %d of %d message types", len(got), len(want))

		var msg Outbound
		require.NoError(t, sonic.Unmarshal(data, &msg))
		match, ok := want[msg.Type]
		if !ok {
			continue
		}
		if _, seen := got[msg.Type]; seen {
			continue
		}
		if match == nil || match(msg) {
			got[msg.Type] = msg
		}
	}
	return got
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWelcomeAndPing(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	send(t, conn, Inbound{Type: TypePing})
	expect(t, conn, TypePong, nil)

	send(t, conn, Inbound{Type: "launch-missiles"})
	msg := expect(t, conn, TypeError, nil)
	assert.Equal(t, "unknown message type", msg.Message)

	waitFor(t, func() bool { return f.hub.Count() == 1 })
}

func TestOpenBroadcastsEventsAndFeedback(t *testing.T) {
	f := setup(t)
	opener := f.dial(t)
	watcher := f.dial(t)

	send(t, opener, Inbound{Type: TypeOpen, AppID: "notepad"})
	reply := expect(t, opener, TypeAck, nil)
	require.NotNil(t, reply.OK)
	assert.True(t, *reply.OK)

	// Feedback, registry events and the storage echo travel on different
	// paths, so their relative order is not fixed
	got := collect(t, watcher, map[string]func(Outbound) bool{
		TypeWindow:   func(m Outbound) bool { return m.Event == window.EventOpened },
		TypeSound:    nil,
		TypeLauncher: nil,
		TypeStorage:  func(m Outbound) bool { return m.Key == session.KeyOpenWindows },
	})

	ev := got[TypeWindow]
	require.NotNil(t, ev.Window)
	assert.Equal(t, "notepad", ev.Window.AppID)
	assert.Equal(t, reply.WindowID, ev.Window.ID)

	assert.Equal(t, feedback.SoundOpen, got[TypeSound].Sound)
	assert.JSONEq(t, `["notepad"]`, string(got[TypeStorage].Value))

	send(t, opener, Inbound{Type: TypeOpen, AppID: "doom"})
	expect(t, opener, TypeError, nil)
}

func TestWindowCommands(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	inst, _ := f.windows.Open("terminal", nil)

	send(t, conn, Inbound{Type: TypeMinimize, WindowID: inst.ID})
	reply := expect(t, conn, TypeAck, nil)
	assert.True(t, *reply.OK)

	got, _ := f.windows.Get(inst.ID)
	assert.True(t, got.IsMinimized)

	send(t, conn, Inbound{Type: TypeClose, WindowID: "win_missing"})
	reply = expect(t, conn, TypeAck, nil)
	assert.False(t, *reply.OK)
}

func TestPointerDragCommitsOnUp(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	inst, _ := f.windows.Open("notepad", nil)
	origin := inst.Position

	down := geometry.PointerEvent{PointerID: 1, X: origin.X + 20, Y: origin.Y + 10, Region: geometry.RegionTitle}
	send(t, conn, Inbound{Type: TypePointer, Phase: PhaseDown, WindowID: inst.ID, Gesture: geometry.KindDrag, Pointer: down})
	reply := expect(t, conn, TypeAck, func(m Outbound) bool { return m.Request == TypePointer })
	require.True(t, *reply.OK)

	move := geometry.PointerEvent{PointerID: 1, X: down.X + 50, Y: down.Y + 30}
	send(t, conn, Inbound{Type: TypePointer, Phase: PhaseMove, WindowID: inst.ID, Pointer: move})

	frame := expect(t, conn, TypeFrame, nil)
	assert.Equal(t, inst.ID, frame.WindowID)
	assert.Equal(t, types.Position{X: origin.X + 50, Y: origin.Y + 30}, frame.Geometry.Position)

	// Not committed until pointer-up
	got, _ := f.windows.Get(inst.ID)
	assert.Equal(t, origin, got.Position)

	send(t, conn, Inbound{Type: TypePointer, Phase: PhaseUp, WindowID: inst.ID, Pointer: geometry.PointerEvent{PointerID: 1}})
	expect(t, conn, TypeWindow, func(m Outbound) bool { return m.Event == window.EventMoved })

	got, _ = f.windows.Get(inst.ID)
	assert.Equal(t, types.Position{X: origin.X + 50, Y: origin.Y + 30}, got.Position)
}

func TestPointerResizeRefusedWhileMaximized(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	inst, _ := f.windows.Open("notepad", nil)
	f.windows.ToggleMaximize(inst.ID)

	down := geometry.PointerEvent{PointerID: 4, X: 10, Y: 10, Region: geometry.RegionResize}
	send(t, conn, Inbound{Type: TypePointer, Phase: PhaseDown, WindowID: inst.ID, Gesture: geometry.KindResize, Direction: "se", Pointer: down})

	reply := expect(t, conn, TypeAck, func(m Outbound) bool { return m.Request == TypePointer })
	assert.False(t, *reply.OK)
}

func TestDisconnectMidGestureCommits(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	inst, _ := f.windows.Open("notepad", nil)
	origin := inst.Position

	down := geometry.PointerEvent{PointerID: 2, X: origin.X + 5, Y: origin.Y + 5, Region: geometry.RegionTitle}
	send(t, conn, Inbound{Type: TypePointer, Phase: PhaseDown, WindowID: inst.ID, Pointer: down})
	expect(t, conn, TypeAck, func(m Outbound) bool { return m.Request == TypePointer })

	send(t, conn, Inbound{Type: TypePointer, Phase: PhaseMove, Pointer: geometry.PointerEvent{PointerID: 2, X: down.X + 100, Y: down.Y}})
	expect(t, conn, TypeFrame, nil)
	conn.Close()

	waitFor(t, func() bool {
		got, _ := f.windows.Get(inst.ID)
		return got.Position.X == origin.X+100
	})
	waitFor(t, func() bool { return f.hub.Count() == 0 })
}

func TestStopDisconnectsClients(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)
	waitFor(t, func() bool { return f.hub.Count() == 1 })

	f.hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	waitFor(t, func() bool { return f.hub.Count() == 0 })
	assert.Equal(t, int64(0), f.metrics.Snapshot().ActiveConnections)
}
