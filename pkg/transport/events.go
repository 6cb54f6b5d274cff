package transport

import (
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
)

// connLog emits transport-layer events for one connection. The logger
// is never nil; withDefaults installs NoopLogger.
type connLog struct {
	logger log.Logger
	connID string
	remote string
}

func (l *connLog) logFrame(dir log.Direction, data []byte) {
	if len(data) == 0 {
		return
	}
	l.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: l.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		RemoteAddr:   l.remote,
		Frame:        log.NewFrameEvent(data),
	})
}

func (l *connLog) logState(oldState, newState, reason string) {
	l.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: l.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   l.remote,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (l *connLog) logError(dir log.Direction, op string, err error) {
	l.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: l.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		RemoteAddr:   l.remote,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: op,
		},
	})
}
