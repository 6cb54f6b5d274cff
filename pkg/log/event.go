package log

import (
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame         *FrameEvent         `cbor:"7,keyasint,omitempty"`  // Transport layer: raw XML
	Command       *CommandEvent       `cbor:"8,keyasint,omitempty"`  // Wire layer: decoded command
	DeviceMessage *DeviceMessageEvent `cbor:"9,keyasint,omitempty"`  // INDI message elements
	StateChange   *StateChangeEvent   `cbor:"10,keyasint,omitempty"` // Connection/device lifecycle
	Error         *ErrorEventData     `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the connection layer (raw XML bytes).
	LayerTransport Layer = 0
	// LayerWire is the command codec layer (decoded elements).
	LayerWire Layer = 1
	// LayerClient is the state-store/client layer.
	LayerClient Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates protocol traffic (frames and commands).
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxFrameCapture is the largest raw frame payload stored in a
// FrameEvent. Longer frames (BLOB transfers can run to megabytes) are
// truncated and flagged.
const MaxFrameCapture = 4096

// FrameEvent captures raw element bytes at the transport layer.
type FrameEvent struct {
	// Size is the full frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw XML bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent builds a FrameEvent for data, copying at most
// MaxFrameCapture bytes.
func NewFrameEvent(data []byte) *FrameEvent {
	ev := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameCapture {
		ev.Data = append([]byte(nil), data[:MaxFrameCapture]...)
		ev.Truncated = true
	} else {
		ev.Data = append([]byte(nil), data...)
	}
	return ev
}

// CommandEvent summarizes a decoded protocol command at the wire layer.
type CommandEvent struct {
	// Element is the XML element name (setNumberVector, delProperty, ...).
	Element string `cbor:"1,keyasint"`

	// Device is the addressed device, when the element carries one.
	Device string `cbor:"2,keyasint,omitempty"`

	// Property is the property name, when the element carries one.
	Property string `cbor:"3,keyasint,omitempty"`

	// State is the property state text for def/set elements.
	State string `cbor:"4,keyasint,omitempty"`

	// ItemCount is the number of child items.
	ItemCount int `cbor:"5,keyasint,omitempty"`
}

// SummarizeCommand builds the CommandEvent for any wire command.
func SummarizeCommand(cmd wire.Command) *CommandEvent {
	ev := &CommandEvent{Device: cmd.DeviceName()}

	switch c := cmd.(type) {
	case *wire.GetProperties:
		ev.Element = "getProperties"
		if c.Name != nil {
			ev.Property = *c.Name
		}
	case *wire.DefTextVector:
		ev.Element = "defTextVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Texts)
	case *wire.SetTextVector:
		ev.Element = "setTextVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Texts)
	case *wire.NewTextVector:
		ev.Element = "newTextVector"
		ev.Property = c.Name
		ev.ItemCount = len(c.Texts)
	case *wire.DefNumberVector:
		ev.Element = "defNumberVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Numbers)
	case *wire.SetNumberVector:
		ev.Element = "setNumberVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Numbers)
	case *wire.NewNumberVector:
		ev.Element = "newNumberVector"
		ev.Property = c.Name
		ev.ItemCount = len(c.Numbers)
	case *wire.DefSwitchVector:
		ev.Element = "defSwitchVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Switches)
	case *wire.SetSwitchVector:
		ev.Element = "setSwitchVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Switches)
	case *wire.NewSwitchVector:
		ev.Element = "newSwitchVector"
		ev.Property = c.Name
		ev.ItemCount = len(c.Switches)
	case *wire.DefLightVector:
		ev.Element = "defLightVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Lights)
	case *wire.SetLightVector:
		ev.Element = "setLightVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Lights)
	case *wire.DefBlobVector:
		ev.Element = "defBLOBVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Blobs)
	case *wire.SetBlobVector:
		ev.Element = "setBLOBVector"
		ev.Property = c.Name
		ev.State = c.State.String()
		ev.ItemCount = len(c.Blobs)
	case *wire.NewBlobVector:
		ev.Element = "newBLOBVector"
		ev.Property = c.Name
		ev.ItemCount = len(c.Blobs)
	case *wire.DelProperty:
		ev.Element = "delProperty"
		if c.Name != nil {
			ev.Property = *c.Name
		}
	case *wire.Message:
		ev.Element = "message"
	case *wire.EnableBlob:
		ev.Element = "enableBLOB"
		if c.Name != nil {
			ev.Property = *c.Name
		}
	default:
		ev.Element = "unknown"
	}

	return ev
}

// DeviceMessageEvent captures an INDI message element: free-form text
// a device sends to the operator.
type DeviceMessageEvent struct {
	// Device that sent the message (empty for server-wide messages).
	Device string `cbor:"1,keyasint,omitempty"`

	// Message is the human-readable text.
	Message string `cbor:"2,keyasint"`

	// Timestamp is the device's own stamp on the message, when present.
	Timestamp time.Time `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection, device, and property
// lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// Name identifies the entity for device and property events
	// ("Telescope", "Telescope.CONNECTION"). Empty for connections,
	// which are identified by the event's ConnectionID.
	Name string `cbor:"2,keyasint,omitempty"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"3,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"4,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityDevice indicates a device appeared or was removed.
	StateEntityDevice StateEntity = 1
	// StateEntityProperty indicates a property was defined or deleted.
	StateEntityProperty StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityDevice:
		return "DEVICE"
	case StateEntityProperty:
		return "PROPERTY"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
