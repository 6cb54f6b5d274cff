package wire

import "encoding/xml"

// DefNumberVector defines a numeric property and its items.
type DefNumberVector struct {
	Device    string
	Name      string
	Label     *string
	Group     *string
	State     PropertyState
	Perm      PropertyPerm
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Numbers []DefNumber
}

// DeviceName reports the addressed device.
func (c *DefNumberVector) DeviceName() string { return c.Device }

// DefNumber is one item of a numeric property definition. Format is a
// printf-style hint for rendering the value, with the protocol's "m"
// verb for sexagesimal display.
type DefNumber struct {
	Name   string
	Label  *string
	Format string
	Min    float64
	Max    float64
	Step   float64
	Value  float64
}

// SetNumberVector updates the values of an existing numeric property.
type SetNumberVector struct {
	Device    string
	Name      string
	State     PropertyState
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Numbers []SetOneNumber
}

// DeviceName reports the addressed device.
func (c *SetNumberVector) DeviceName() string { return c.Device }

// SetOneNumber is one item of a numeric update. Devices may revise an
// item's min, max or step alongside its value.
type SetOneNumber struct {
	Name  string
	Min   *float64
	Max   *float64
	Step  *float64
	Value float64
}

// NewNumberVector requests new values for a numeric property.
type NewNumberVector struct {
	Device    string
	Name      string
	Timestamp *Timestamp

	Numbers []OneNumber
}

// DeviceName reports the addressed device.
func (c *NewNumberVector) DeviceName() string { return c.Device }

// OneNumber is one named numeric value.
type OneNumber struct {
	Name  string
	Value float64
}

func (d *Decoder) decodeDefNumberVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &DefNumberVector{}
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
		if child.Name.Local != "defNumber" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		item, err := d.decodeDefNumber(child)
		if err != nil {
			return err
		}
		cmd.Numbers = append(cmd.Numbers, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeDefNumber(start xml.StartElement) (DefNumber, error) {
	attrs := newAttrSet(start)
	item := DefNumber{}
	var err error
	if item.Name, err = attrs.required("name"); err != nil {
		return item, err
	}
	item.Label = attrs.optional("label")
	if item.Format, err = attrs.required("format"); err != nil {
		return item, err
	}
	if item.Min, err = attrs.number("min"); err != nil {
		return item, err
	}
	if item.Max, err = attrs.number("max"); err != nil {
		return item, err
	}
	if item.Step, err = attrs.number("step"); err != nil {
		return item, err
	}
	if err := attrs.finish(); err != nil {
		return item, err
	}
	text, err := d.textContent(start.Name.Local)
	if err != nil {
		return item, err
	}
	if item.Value, err = ParseNumber(text); err != nil {
		return item, &ValueError{Element: start.Name.Local, Value: text, Err: err}
	}
	return item, nil
}

func (d *Decoder) decodeSetNumberVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &SetNumberVector{}
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
	err = d.childElements(start.Name.Local, func(child xml.StartElement) error {
		if child.Name.Local != "oneNumber" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		item, err := d.decodeSetOneNumber(child)
		if err != nil {
			return err
		}
		cmd.Numbers = append(cmd.Numbers, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeSetOneNumber(start xml.StartElement) (SetOneNumber, error) {
	attrs := newAttrSet(start)
	item := SetOneNumber{}
	var err error
	if item.Name, err = attrs.required("name"); err != nil {
		return item, err
	}
	if item.Min, err = attrs.optionalNumber("min"); err != nil {
		return item, err
	}
	if item.Max, err = attrs.optionalNumber("max"); err != nil {
		return item, err
	}
	if item.Step, err = attrs.optionalNumber("step"); err != nil {
		return item, err
	}
	if err := attrs.finish(); err != nil {
		return item, err
	}
	text, err := d.textContent(start.Name.Local)
	if err != nil {
		return item, err
	}
	if item.Value, err = ParseNumber(text); err != nil {
		return item, &ValueError{Element: start.Name.Local, Value: text, Err: err}
	}
	return item, nil
}

func (d *Decoder) decodeNewNumberVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &NewNumberVector{}
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
	err = d.childElements(start.Name.Local, func(child xml.StartElement) error {
		if child.Name.Local != "oneNumber" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := OneNumber{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		if err := attrs.finish(); err != nil {
			return err
		}
		text, err := d.textContent(child.Name.Local)
		if err != nil {
			return err
		}
		if item.Value, err = ParseNumber(text); err != nil {
			return &ValueError{Element: child.Name.Local, Value: text, Err: err}
		}
		cmd.Numbers = append(cmd.Numbers, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *DefNumberVector) writeXML(w *elemWriter) {
	w.open("defNumberVector")
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
	for _, item := range c.Numbers {
		w.open("defNumber")
		w.attr("name", item.Name)
		w.optAttr("label", item.Label)
		w.attr("format", item.Format)
		w.numberAttr("min", item.Min)
		w.numberAttr("max", item.Max)
		w.numberAttr("step", item.Step)
		w.content()
		w.text(FormatNumber(item.Value))
		w.end("defNumber")
	}
	w.end("defNumberVector")
}

func (c *SetNumberVector) writeXML(w *elemWriter) {
	w.open("setNumberVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.attr("state", c.State.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	for _, item := range c.Numbers {
		w.open("oneNumber")
		w.attr("name", item.Name)
		w.optNumberAttr("min", item.Min)
		w.optNumberAttr("max", item.Max)
		w.optNumberAttr("step", item.Step)
		w.content()
		w.text(FormatNumber(item.Value))
		w.end("oneNumber")
	}
	w.end("setNumberVector")
}

func (c *NewNumberVector) writeXML(w *elemWriter) {
	w.open("newNumberVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.timestampAttr(c.Timestamp)
	w.content()
	for _, item := range c.Numbers {
		w.open("oneNumber")
		w.attr("name", item.Name)
		w.content()
		w.text(FormatNumber(item.Value))
		w.end("oneNumber")
	}
	w.end("newNumberVector")
}
