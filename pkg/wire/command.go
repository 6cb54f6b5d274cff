package wire

// ProtocolVersion is the protocol revision spoken by this
// implementation, sent in every getProperties element.
const ProtocolVersion = "1.7"

// Command is one protocol element: the closed set of messages either
// side of a connection may send. Concrete types are the Def/Set/New
// vector families plus GetProperties, DelProperty, Message and
// EnableBlob. Code that consumes commands switches exhaustively over
// the concrete types.
type Command interface {
	// DeviceName reports the device the command addresses, or the
	// empty string for commands without a device filter.
	DeviceName() string

	// writeXML serializes the command. Implementing it is what admits
	// a type into the command set.
	writeXML(w *elemWriter)
}

// GetProperties asks the server to send definitions for all properties
// matching the optional device and name filters.
type GetProperties struct {
	Version string
	Device  *string
	Name    *string
}

// DeviceName reports the device filter, or "" for all devices.
func (c *GetProperties) DeviceName() string {
	if c.Device == nil {
		return ""
	}
	return *c.Device
}

// DelProperty removes one property, or every property of the device
// when Name is absent.
type DelProperty struct {
	Device    string
	Name      *string
	Timestamp *Timestamp
	Message   *string
}

// DeviceName reports the addressed device.
func (c *DelProperty) DeviceName() string { return c.Device }

// Message carries commentary from a device, or from the server itself
// when Device is absent.
type Message struct {
	Device    *string
	Timestamp *Timestamp
	Message   *string
}

// DeviceName reports the originating device, or "" for the server.
func (c *Message) DeviceName() string {
	if c.Device == nil {
		return ""
	}
	return *c.Device
}

// EnableBlob sets the client's BLOB delivery policy for a device, or
// for a single property when Name is set. The policy travels as the
// element's text content.
type EnableBlob struct {
	Device  string
	Name    *string
	Enabled BlobEnable
}

// DeviceName reports the addressed device.
func (c *EnableBlob) DeviceName() string { return c.Device }

func (c *GetProperties) writeXML(w *elemWriter) {
	w.open("getProperties")
	w.attr("version", c.Version)
	w.optAttr("device", c.Device)
	w.optAttr("name", c.Name)
	w.closeEmpty()
}

func (c *DelProperty) writeXML(w *elemWriter) {
	w.open("delProperty")
	w.attr("device", c.Device)
	w.optAttr("name", c.Name)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.closeEmpty()
}

func (c *Message) writeXML(w *elemWriter) {
	w.open("message")
	w.optAttr("device", c.Device)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.closeEmpty()
}

func (c *EnableBlob) writeXML(w *elemWriter) {
	w.open("enableBLOB")
	w.attr("device", c.Device)
	w.optAttr("name", c.Name)
	w.content()
	w.text(c.Enabled.String())
	w.end("enableBLOB")
}

// Compile-time checks that every protocol element satisfies Command.
var (
	_ Command = (*GetProperties)(nil)
	_ Command = (*DefTextVector)(nil)
	_ Command = (*SetTextVector)(nil)
	_ Command = (*NewTextVector)(nil)
	_ Command = (*DefNumberVector)(nil)
	_ Command = (*SetNumberVector)(nil)
	_ Command = (*NewNumberVector)(nil)
	_ Command = (*DefSwitchVector)(nil)
	_ Command = (*SetSwitchVector)(nil)
	_ Command = (*NewSwitchVector)(nil)
	_ Command = (*DefLightVector)(nil)
	_ Command = (*SetLightVector)(nil)
	_ Command = (*DefBlobVector)(nil)
	_ Command = (*SetBlobVector)(nil)
	_ Command = (*NewBlobVector)(nil)
	_ Command = (*DelProperty)(nil)
	_ Command = (*Message)(nil)
	_ Command = (*EnableBlob)(nil)
)
