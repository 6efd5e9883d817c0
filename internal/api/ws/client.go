package ws

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/internal/domain/geometry"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// client is one connected shell
type client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	gestures *geometry.Controller
	logger   *zap.Logger
}

func newClient(id string, hub *Hub, conn *websocket.Conn) *client {
	c := &client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: hub.logger.With(zap.String("connection_id", id)),
	}

	painter := geometry.PainterFunc(func(windowID string, g types.Geometry) {
		c.emit(Outbound{Type: TypeFrame, WindowID: windowID, Geometry: &g})
	})
	c.gestures = geometry.NewController(hub.windows, painter, hub.newScheduler()).
		WithMetrics(hub.metrics).
		WithLogger(c.logger)
	return c
}

// emit sends msg to this client only
func (c *client) emit(msg Outbound) {
	data, err := c.hub.encode(msg)
	if err != nil {
		return
	}
	c.enqueue(msg.Type, data)
}

// enqueue drops the client when its buffer is full rather than blocking the
// broadcaster
func (c *client) enqueue(msgType string, data []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- data:
		c.hub.recordMessage("out", msgType)
	default:
		c.logger.Warn("WebSocket client too slow; disconnecting")
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) readPump() {
	defer func() {
		// A vanished surface ends its gesture the way a pointer cancel would
		c.gestures.Release()
		c.hub.remove(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.emit(errorMessage("malformed message"))
			continue
		}
		c.hub.recordMessage("in", msg.Type)
		c.handle(msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) handle(msg Inbound) {
	windows := c.hub.windows

	switch msg.Type {
	case TypePing:
		c.emit(Outbound{Type: TypePong})
	case TypePointer:
		c.handlePointer(msg)
	case TypeOpen:
		inst, ok := windows.Open(msg.AppID, msg.Props)
		if !ok {
			c.emit(errorMessage("unknown app: " + msg.AppID))
			return
		}
		c.emit(ack(msg.Type, true, inst.ID))
	case TypeClose:
		c.emit(ack(msg.Type, windows.Close(msg.WindowID), msg.WindowID))
	case TypeMinimize:
		c.emit(ack(msg.Type, windows.Minimize(msg.WindowID), msg.WindowID))
	case TypeMaximize:
		c.emit(ack(msg.Type, windows.ToggleMaximize(msg.WindowID), msg.WindowID))
	case TypeFocus:
		c.emit(ack(msg.Type, windows.Focus(msg.WindowID), msg.WindowID))
	default:
		c.emit(errorMessage("unknown message type"))
	}
}

// handlePointer feeds one pointer sample to this connection's gesture
// controller. Moves are not acknowledged; they are answered by frames.
func (c *client) handlePointer(msg Inbound) {
	switch msg.Phase {
	case PhaseDown:
		var started bool
		switch msg.Gesture {
		case geometry.KindResize:
			if dir, ok := geometry.ParseDirection(msg.Direction); ok {
				started = c.gestures.BeginResize(msg.WindowID, dir, msg.Pointer)
			}
		default:
			started = c.gestures.BeginDrag(msg.WindowID, msg.Pointer)
		}
		if started {
			// Pressing on a window also focuses it
			c.hub.windows.Focus(msg.WindowID)
		}
		c.emit(ack(TypePointer, started, msg.WindowID))
	case PhaseMove:
		c.gestures.HandleMove(msg.Pointer)
	case PhaseUp:
		c.emit(ack(TypePointer, c.gestures.HandleUp(msg.Pointer), msg.WindowID))
	case PhaseCancel:
		c.emit(ack(TypePointer, c.gestures.HandleCancel(msg.Pointer), msg.WindowID))
	default:
		c.emit(errorMessage("unknown pointer phase"))
	}
}
