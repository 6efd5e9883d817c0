package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/domain/feedback"
	"github.com/GriffinCanCode/webdesk/internal/domain/geometry"
	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
)

// Watcher delivers changes to persisted session keys
type Watcher interface {
	Watch(fn func(key string, raw []byte)) func()
}

// Option configures a Hub
type Option func(*Hub)

// WithFrameInterval sets the cadence gesture frames are coalesced to
func WithFrameInterval(interval time.Duration) Option {
	return func(h *Hub) {
		if interval > 0 {
			h.newScheduler = func() geometry.FrameScheduler { return geometry.NewTimerScheduler(interval) }
		}
	}
}

// WithSchedulerFactory replaces how each connection's frame scheduler is made
func WithSchedulerFactory(fn func() geometry.FrameScheduler) Option {
	return func(h *Hub) {
		if fn != nil {
			h.newScheduler = fn
		}
	}
}

// WithMetrics adds connection and message metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(h *Hub) { h.metrics = metrics }
}

// WithLogger sets the hub's logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Hub fans registry events, feedback and storage echoes out to every
// connected shell, and gives each connection its own gesture controller.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	stops   []func()

	windows      *window.Manager
	newScheduler func() geometry.FrameScheduler
	upgrader     websocket.Upgrader
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

// NewHub creates a hub driving windows
func NewHub(windows *window.Manager, opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[string]*client),
		windows: windows,
		newScheduler: func() geometry.FrameScheduler {
			return geometry.NewTimerScheduler(geometry.DefaultFrameInterval)
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // The shell may be served from any origin
			},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start subscribes to registry events, feedback signals and, when watcher is
// non-nil, session storage changes
func (h *Hub) Start(signals *feedback.Broadcaster, watcher Watcher) {
	stops := []func(){
		h.windows.Subscribe(func(ev window.Event) {
			inst := ev.Window
			h.Broadcast(Outbound{Type: TypeWindow, Event: ev.Type, Window: &inst, WindowID: inst.ID})
		}),
	}

	if signals != nil {
		stops = append(stops, signals.Subscribe(func(sig feedback.Signal) {
			switch sig.Kind {
			case feedback.KindSound:
				h.Broadcast(Outbound{Type: TypeSound, Sound: sig.Sound})
			case feedback.KindLauncher:
				h.Broadcast(Outbound{Type: TypeLauncher})
			}
		}))
	}

	if watcher != nil {
		stops = append(stops, watcher.Watch(func(key string, raw []byte) {
			h.Broadcast(Outbound{Type: TypeStorage, Key: key, Value: raw})
		}))
	}

	h.mu.Lock()
	h.stops = append(h.stops, stops...)
	h.mu.Unlock()
}

// Stop unsubscribes and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	stops := h.stops
	h.stops = nil
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	for _, c := range clients {
		c.close()
	}
}

// HandleConnection upgrades the request and serves the connection until it
// closes
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(uuid.NewString(), h, conn)
	h.add(cl)

	cl.emit(Outbound{
		Type:         TypeWelcome,
		ConnectionID: cl.id,
		Windows:      h.windows.List(),
	})

	go cl.writePump()
	cl.readPump()
}

// Broadcast sends msg to every connected client
func (h *Hub) Broadcast(msg Outbound) {
	data, err := h.encode(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(msg.Type, data)
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) encode(msg Outbound) ([]byte, error) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode websocket message", zap.String("type", msg.Type), zap.Error(err))
	}
	return data, err
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Info("WebSocket client connected", zap.String("connection_id", c.id))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Info("WebSocket client disconnected", zap.String("connection_id", c.id))
}

func (h *Hub) recordMessage(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
