// Package wire implements the INDI wire codec: the bidirectional
// mapping between protocol XML elements and the in-memory Command set.
//
// The protocol is a stream of top-level XML elements with no framing
// beyond element boundaries:
//
//	┌────────────────────────────────┐
//	│        Command values          │
//	├────────────────────────────────┤
//	│   XML elements (one command)   │
//	├────────────────────────────────┤
//	│   TCP stream / WS text frame   │
//	└────────────────────────────────┘
//
// # Decoding
//
// Decoder.Next performs a streaming, element-bounded decode: it reads
// tokens until the depth returns to zero after a recognized root
// element and yields exactly one Command. Nothing beyond the current
// element is buffered, so a long-lived connection never accumulates
// memory. Unknown attributes, missing required attributes, unknown
// tags and malformed nesting are reported as distinct error types
// carrying the element and attribute names.
//
// # Encoding
//
// Encoder.Encode writes one command as a single XML element followed
// by a newline and flushes. Numeric values are always written in
// plain decimal form, even when they were parsed from the protocol's
// sexagesimal "dd:mm:ss" text form. BLOB values are base64 on the
// wire and raw bytes in memory.
package wire
