package events

import (
	"context"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to the log instead of a broker. Used when no
// RabbitMQ URL is configured.
type LogPublisher struct {
	Logger *zerolog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, event ports.DeliveryEvent) error {
	logger := p.Logger
	if logger == nil {
		logger = obs.Logger(ctx)
	}

	logger.Info().
		Str("event", event.Type).
		Str("driver_id", event.DriverID).
		Str("order_id", event.OrderID).
		Strs("order_ids", event.OrderIDs).
		Str("batch_id", event.BatchID).
		Bool("is_batched", event.IsBatched).
		Time("occurred_at", event.OccurredAt).
		Msg("delivery event")

	obs.CountEvent(event.Type, nil)
	return nil
}
