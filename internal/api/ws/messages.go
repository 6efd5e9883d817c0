package ws

import (
	"encoding/json"

	"github.com/GriffinCanCode/webdesk/internal/domain/feedback"
	"github.com/GriffinCanCode/webdesk/internal/domain/geometry"
	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// Client → server message types
const (
	TypePing     = "ping"
	TypePointer  = "pointer"
	TypeOpen     = "open"
	TypeClose    = "close"
	TypeMinimize = "minimize"
	TypeMaximize = "maximize"
	TypeFocus    = "focus"
)

// Server → client message types
const (
	TypeWelcome  = "welcome"
	TypePong     = "pong"
	TypeAck      = "ack"
	TypeFrame    = "frame"
	TypeWindow   = "window"
	TypeSound    = "sound"
	TypeLauncher = "launcher"
	TypeStorage  = "storage"
	TypeError    = "error"
)

// Phase is the stage of a pointer gesture
type Phase string

const (
	PhaseDown   Phase = "down"
	PhaseMove   Phase = "move"
	PhaseUp     Phase = "up"
	PhaseCancel Phase = "cancel"
)

// Inbound is a message from the desktop shell
type Inbound struct {
	Type     string                 `json:"type"`
	WindowID string                 `json:"window_id,omitempty"`
	AppID    string                 `json:"app_id,omitempty"`
	Props    map[string]interface{} `json:"props,omitempty"`

	// Pointer messages
	Phase     Phase                 `json:"phase,omitempty"`
	Gesture   geometry.Kind         `json:"gesture,omitempty"`
	Direction string                `json:"direction,omitempty"`
	Pointer   geometry.PointerEvent `json:"pointer"`
}

// Outbound is a message to the desktop shell
type Outbound struct {
	Type         string            `json:"type"`
	ConnectionID string            `json:"connection_id,omitempty"`
	Request      string            `json:"request,omitempty"`
	OK           *bool             `json:"ok,omitempty"`
	WindowID     string            `json:"window_id,omitempty"`
	Geometry     *types.Geometry   `json:"geometry,omitempty"`
	Event        window.EventType  `json:"event,omitempty"`
	Window       *window.Instance  `json:"window,omitempty"`
	Windows      []window.Instance `json:"windows,omitempty"`
	Sound        feedback.Sound    `json:"sound,omitempty"`
	Key          string            `json:"key,omitempty"`
	Value        json.RawMessage   `json:"value,omitempty"`
	Message      string            `json:"message,omitempty"`
	Timestamp    int64             `json:"timestamp"`
}

func ack(request string, ok bool, windowID string) Outbound {
	return Outbound{Type: TypeAck, Request: request, OK: &ok, WindowID: windowID}
}

func errorMessage(msg string) Outbound {
	return Outbound{Type: TypeError, Message: msg}
}
