// Package transport provides connection transports for INDI sessions.
//
// The transport layer handles:
//   - Plain TCP connections to an INDI server (conventionally port 7624)
//   - WebSocket connections carrying one XML element per text frame
//   - Raw protocol capture via the log package
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│       XML elements             │
//	├────────────────────────────────┤
//	│  byte stream  │  text frames   │
//	├───────────────┼────────────────┤
//	│      TCP      │   WebSocket    │
//	└────────────────────────────────┘
//
// On the byte stream there is no framing below the XML itself: element
// boundaries are found by the streaming decoder. Elements are written
// newline-separated, which the protocol permits (whitespace between
// elements is insignificant) and which keeps server logs readable.
//
// All transports satisfy Conn. AsyncConn adapts any Conn into
// channel-based halves for select-driven callers.
package transport
