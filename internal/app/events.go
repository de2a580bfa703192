package app

import (
	"context"
	"log/slog"

	"github.com/neomorfeo/wafd/internal/domain"
)

// publish emits an event for a committed change. The change already
// happened, so a publishing failure is logged rather than returned.
func publish(ctx context.Context, publisher domain.EventPublisher, event domain.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "publishing event",
			"event", string(event.Kind),
			"error", err,
		)
	}
}
