package wire

import (
	"fmt"
)

// MissingAttrError reports a required attribute absent from an element.
type MissingAttrError struct {
	Element string
	Attr    string
}

// Error returns the error message.
func (e *MissingAttrError) Error() string {
	return fmt.Sprintf("wire: missing attribute %q on <%s>", e.Attr, e.Element)
}

// UnexpectedAttrError reports an attribute the element does not define.
type UnexpectedAttrError struct {
	Element string
	Attr    string
}

// Error returns the error message.
func (e *UnexpectedAttrError) Error() string {
	return fmt.Sprintf("wire: unexpected attribute %q on <%s>", e.Attr, e.Element)
}

// UnexpectedTagError reports an element name the protocol does not define
// at the position it appeared.
type UnexpectedTagError struct {
	Tag string
}

// Error returns the error message.
func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("wire: unexpected element <%s>", e.Tag)
}

// UnexpectedEventError reports malformed nesting or a token that does
// not belong where it appeared (for example an end tag with no matching
// start, or markup inside a value).
type UnexpectedEventError struct {
	Element string
	Event   string
}

// Error returns the error message.
func (e *UnexpectedEventError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("wire: unexpected %s at top level", e.Event)
	}
	return fmt.Sprintf("wire: unexpected %s inside <%s>", e.Event, e.Element)
}

// ValueError reports a value that failed to parse, carrying the element
// and attribute context. Attr is empty when the failing value was the
// element's text content.
type ValueError struct {
	Element string
	Attr    string
	Value   string
	Err     error
}

// Error returns the error message.
func (e *ValueError) Error() string {
	if e.Attr == "" {
		return fmt.Sprintf("wire: bad value %q in <%s>: %v", e.Value, e.Element, e.Err)
	}
	return fmt.Sprintf("wire: bad value %q for %s on <%s>: %v", e.Value, e.Attr, e.Element, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ValueError) Unwrap() error {
	return e.Err
}
