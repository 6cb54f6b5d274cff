package wire

import "encoding/xml"

// DefLightVector defines a light property and its items. Lights are
// read-only indicators, so the definition carries no perm or timeout.
type DefLightVector struct {
	Device    string
	Name      string
	Label     *string
	Group     *string
	State     PropertyState
	Timestamp *Timestamp
	Message   *string

	Lights []DefLight
}

// DeviceName reports the addressed device.
func (c *DefLightVector) DeviceName() string { return c.Device }

// DefLight is one item of a light property definition.
type DefLight struct {
	Name  string
	Label *string
	Value PropertyState
}

// SetLightVector updates the values of an existing light property.
type SetLightVector struct {
	Device    string
	Name      string
	State     PropertyState
	Timestamp *Timestamp
	Message   *string

	Lights []OneLight
}

// DeviceName reports the addressed device.
func (c *SetLightVector) DeviceName() string { return c.Device }

// OneLight is one named light value. Lights cannot be written, so
// there is no new form.
type OneLight struct {
	Name  string
	Value PropertyState
}

func (d *Decoder) decodeDefLightVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &DefLightVector{}
	var err error
	if cmd.Device, err = attrs.required("device"); err != nil {
		return nil, err
	}
	if cmd.Name, err = attrs.required("name"); err != nil {
		return nil, err
	}
	cmd.Label = attrs.optional("label")
	cmd.Group = attrs.optional("group")
	if cmd.State, err = attrs.state(); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	cmd.Message = attrs.optional("message")
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	err = d.childElements(start.Name.Local, func(child xml.StartElement) error {
		if child.Name.Local != "defLight" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := DefLight{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		item.Label = attrs.optional("label")
		if err := attrs.finish(); err != nil {
			return err
		}
		if item.Value, err = d.lightContent(child.Name.Local); err != nil {
			return err
		}
		cmd.Lights = append(cmd.Lights, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeSetLightVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &SetLightVector{}
	var err error
	if cmd.Device, err = attrs.required("device"); err != nil {
		return nil, err
	}
	if cmd.Name, err = attrs.required("name"); err != nil {
		return nil, err
	}
	if cmd.State, err = attrs.state(); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	cmd.Message = attrs.optional("message")
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	err = d.childElements(start.Name.Local, func(child xml.StartElement) error {
		if child.Name.Local != "oneLight" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := OneLight{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		if err := attrs.finish(); err != nil {
			return err
		}
		if item.Value, err = d.lightContent(child.Name.Local); err != nil {
			return err
		}
		cmd.Lights = append(cmd.Lights, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// lightContent reads an element's text content as a light state.
func (d *Decoder) lightContent(element string) (PropertyState, error) {
	text, err := d.textContent(element)
	if err != nil {
		return 0, err
	}
	v, err := ParsePropertyState(text)
	if err != nil {
		return 0, &ValueError{Element: element, Value: text, Err: err}
	}
	return v, nil
}

func (c *DefLightVector) writeXML(w *elemWriter) {
	w.open("defLightVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.optAttr("label", c.Label)
	w.optAttr("group", c.Group)
	w.attr("state", c.State.String())
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	for _, item := range c.Lights {
		w.open("defLight")
		w.attr("name", item.Name)
		w.optAttr("label", item.Label)
		w.content()
		w.text(item.Value.String())
		w.end("defLight")
	}
	w.end("defLightVector")
}

func (c *SetLightVector) writeXML(w *elemWriter) {
	w.open("setLightVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.attr("state", c.State.String())
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	for _, item := range c.Lights {
		w.open("oneLight")
		w.attr("name", item.Name)
		w.content()
		w.text(item.Value.String())
		w.end("oneLight")
	}
	w.end("setLightVector")
}
