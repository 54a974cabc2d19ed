package agent

import (
	"Vybe_AI/internal/models"
	"context"
)

// MultiSink fans one event out to several sinks. Publish returns the first
// error but still delivers to every sink.
type MultiSink []EventSink

// Publish delivers the event to each sink in order.
func (m MultiSink) Publish(ctx context.Context, event models.AgentEvent) error {
	var firstErr error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
