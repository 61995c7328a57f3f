package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/supercivilization/membership-service/internal/events"
)

// publish stamps and emits an event; a nil dispatcher is a no-op.
func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
