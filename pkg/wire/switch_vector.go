package wire

import "encoding/xml"

// DefSwitchVector defines a switch property, its selection rule and
// its items.
type DefSwitchVector struct {
	Device    string
	Name      string
	Label     *string
	Group     *string
	State     PropertyState
	Perm      PropertyPerm
	Rule      SwitchRule
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Switches []DefSwitch
}

// DeviceName reports the addressed device.
func (c *DefSwitchVector) DeviceName() string { return c.Device }

// DefSwitch is one item of a switch property definition.
type DefSwitch struct {
	Name  string
	Label *string
	Value SwitchState
}

// SetSwitchVector updates the values of an existing switch property.
type SetSwitchVector struct {
	Device    string
	Name      string
	State     PropertyState
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Switches []OneSwitch
}

// DeviceName reports the addressed device.
func (c *SetSwitchVector) DeviceName() string { return c.Device }

// NewSwitchVector requests new values for a switch property.
type NewSwitchVector struct {
	Device    string
	Name      string
	Timestamp *Timestamp

	Switches []OneSwitch
}

// DeviceName reports the addressed device.
func (c *NewSwitchVector) DeviceName() string { return c.Device }

// OneSwitch is one named switch value.
type OneSwitch struct {
	Name  string
	Value SwitchState
}

func (d *Decoder) decodeDefSwitchVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &DefSwitchVector{}
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
	if cmd.Rule, err = attrs.rule(); err != nil {
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
		if child.Name.Local != "defSwitch" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := DefSwitch{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		item.Label = attrs.optional("label")
		if err := attrs.finish(); err != nil {
			return err
		}
		if item.Value, err = d.switchContent(child.Name.Local); err != nil {
			return err
		}
		cmd.Switches = append(cmd.Switches, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeSetSwitchVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &SetSwitchVector{}
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
	if cmd.Switches, err = d.decodeOneSwitches(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeNewSwitchVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &NewSwitchVector{}
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
	if cmd.Switches, err = d.decodeOneSwitches(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeOneSwitches(parent string) ([]OneSwitch, error) {
	var items []OneSwitch
	err := d.childElements(parent, func(child xml.StartElement) error {
		if child.Name.Local != "oneSwitch" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := OneSwitch{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		if err := attrs.finish(); err != nil {
			return err
		}
		if item.Value, err = d.switchContent(child.Name.Local); err != nil {
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

// switchContent reads an element's text content as a switch state.
func (d *Decoder) switchContent(element string) (SwitchState, error) {
	text, err := d.textContent(element)
	if err != nil {
		return 0, err
	}
	v, err := ParseSwitchState(text)
	if err != nil {
		return 0, &ValueError{Element: element, Value: text, Err: err}
	}
	return v, nil
}

func (c *DefSwitchVector) writeXML(w *elemWriter) {
	w.open("defSwitchVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.optAttr("label", c.Label)
	w.optAttr("group", c.Group)
	w.attr("state", c.State.String())
	w.attr("perm", c.Perm.String())
	w.attr("rule", c.Rule.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	for _, item := range c.Switches {
		w.open("defSwitch")
		w.attr("name", item.Name)
		w.optAttr("label", item.Label)
		w.content()
		w.text(item.Value.String())
		w.end("defSwitch")
	}
	w.end("defSwitchVector")
}

func (c *SetSwitchVector) writeXML(w *elemWriter) {
	w.open("setSwitchVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.attr("state", c.State.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	writeOneSwitches(w, c.Switches)
	w.end("setSwitchVector")
}

func (c *NewSwitchVector) writeXML(w *elemWriter) {
	w.open("newSwitchVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.timestampAttr(c.Timestamp)
	w.content()
	writeOneSwitches(w, c.Switches)
	w.end("newSwitchVector")
}

func writeOneSwitches(w *elemWriter, items []OneSwitch) {
	for _, item := range items {
		w.open("oneSwitch")
		w.attr("name", item.Name)
		w.content()
		w.text(item.Value.String())
		w.end("oneSwitch")
	}
}
