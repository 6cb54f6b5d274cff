package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	// Add type-specific attributes
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Command != nil:
		attrs = append(attrs, slog.String("element", event.Command.Element))
		if event.Command.Device != "" {
			attrs = append(attrs, slog.String("device", event.Command.Device))
		}
		if event.Command.Property != "" {
			attrs = append(attrs, slog.String("property", event.Command.Property))
		}
		if event.Command.State != "" {
			attrs = append(attrs, slog.String("state", event.Command.State))
		}
		if event.Command.ItemCount > 0 {
			attrs = append(attrs, slog.Int("items", event.Command.ItemCount))
		}
	case event.DeviceMessage != nil:
		if event.DeviceMessage.Device != "" {
			attrs = append(attrs, slog.String("device", event.DeviceMessage.Device))
		}
		attrs = append(attrs, slog.String("message", event.DeviceMessage.Message))
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Name != "" {
			attrs = append(attrs, slog.String("name", event.StateChange.Name))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
