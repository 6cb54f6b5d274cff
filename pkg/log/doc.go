// Package log provides structured protocol logging for INDI sessions.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, client).
// It is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable event trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("session.ilog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw element bytes (FrameEvent)
//   - Wire: Decoded commands (CommandEvent)
//   - Client: Device messages, state changes (DeviceMessageEvent, StateChangeEvent)
//
// Errors have a dedicated event type usable at any layer.
//
// # File Format
//
// Log files use CBOR encoding with .ilog extension. The indi-log CLI tool
// provides viewing, filtering, and export capabilities.
package log
