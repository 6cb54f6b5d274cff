package wire

import "encoding/xml"

// DefTextVector defines a text property and its items.
type DefTextVector struct {
	Device    string
	Name      string
	Label     *string
	Group     *string
	State     PropertyState
	Perm      PropertyPerm
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Texts []DefText
}

// DeviceName reports the addressed device.
func (c *DefTextVector) DeviceName() string { return c.Device }

// DefText is one item of a text property definition.
type DefText struct {
	Name  string
	Label *string
	Value string
}

// SetTextVector updates the values of an existing text property.
type SetTextVector struct {
	Device    string
	Name      string
	State     PropertyState
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Texts []OneText
}

// DeviceName reports the addressed device.
func (c *SetTextVector) DeviceName() string { return c.Device }

// NewTextVector requests new values for a text property.
type NewTextVector struct {
	Device    string
	Name      string
	Timestamp *Timestamp

	Texts []OneText
}

// DeviceName reports the addressed device.
func (c *NewTextVector) DeviceName() string { return c.Device }

// OneText is one named text value.
type OneText struct {
	Name  string
	Value string
}

func (d *Decoder) decodeDefTextVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &DefTextVector{}
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
	if cmd.Perm, err = attrs.perm(); err != nil {
		return nil, err
	}
	if cmd.Timeout, err = attrs.timeout(); err != nil {
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
		if child.Name.Local != "defText" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		item, err := d.decodeDefText(child)
		if err != nil {
			return err
		}
		cmd.Texts = append(cmd.Texts, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeDefText(start xml.StartElement) (DefText, error) {
	attrs := newAttrSet(start)
	item := DefText{}
	var err error
	if item.Name, err = attrs.required("name"); err != nil {
		return item, err
	}
	item.Label = attrs.optional("label")
	if err := attrs.finish(); err != nil {
		return item, err
	}
	if item.Value, err = d.textContent(start.Name.Local); err != nil {
		return item, err
	}
	return item, nil
}

func (d *Decoder) decodeSetTextVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &SetTextVector{}
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
	if cmd.Timeout, err = attrs.timeout(); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	cmd.Message = attrs.optional("message")
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if cmd.Texts, err = d.decodeOneTexts(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeNewTextVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &NewTextVector{}
	var err error
	if cmd.Device, err = attrs.required("device"); err != nil {
		return nil, err
	}
	if cmd.Name, err = attrs.required("name"); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if cmd.Texts, err = d.decodeOneTexts(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeOneTexts(parent string) ([]OneText, error) {
	var items []OneText
	err := d.childElements(parent, func(child xml.StartElement) error {
		if child.Name.Local != "oneText" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := OneText{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		if err := attrs.finish(); err != nil {
			return err
		}
		if item.Value, err = d.textContent(child.Name.Local); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *DefTextVector) writeXML(w *elemWriter) {
	w.open("defTextVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.optAttr("label", c.Label)
	w.optAttr("group", c.Group)
	w.attr("state", c.State.String())
	w.attr("perm", c.Perm.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	for _, item := range c.Texts {
		w.open("defText")
		w.attr("name", item.Name)
		w.optAttr("label", item.Label)
		w.content()
		w.text(item.Value)
		w.end("defText")
	}
	w.end("defTextVector")
}

func (c *SetTextVector) writeXML(w *elemWriter) {
	w.open("setTextVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.attr("state", c.State.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	writeOneTexts(w, c.Texts)
	w.end("setTextVector")
}

func (c *NewTextVector) writeXML(w *elemWriter) {
	w.open("newTextVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.timestampAttr(c.Timestamp)
	w.content()
	writeOneTexts(w, c.Texts)
	w.end("newTextVector")
}

func writeOneTexts(w *elemWriter, items []OneText) {
	for _, item := range items {
		w.open("oneText")
		w.attr("name", item.Name)
		w.content()
		w.text(item.Value)
		w.end("oneText")
	}
}
