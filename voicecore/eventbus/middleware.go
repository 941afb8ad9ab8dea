package eventbus

import (
	"context"

	"github.com/execdesk-labs/voiceassist/voicecore/logging"
)

// LoggingMiddleware logs all event traffic through a structured logger.
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a LoggingMiddleware.
func NewLoggingMiddleware(logger logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Before(ctx context.Context, event Message) (Message, error) {
	m.logger.Debug("event published", "event_type", event.EventType())
	return event, nil
}

func (m *LoggingMiddleware) After(ctx context.Context, event Message, err error) {
	if err != nil {
		m.logger.Warn("event subscriber failed", "event_type", event.EventType(), "error", err.Error())
	}
}

var _ Middleware = (*LoggingMiddleware)(nil)
