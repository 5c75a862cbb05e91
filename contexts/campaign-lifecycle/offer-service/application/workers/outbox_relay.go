package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "covenant/contexts/campaign-lifecycle/offer-service/application"
	"covenant/contexts/campaign-lifecycle/offer-service/ports"
)

// OutboxRelay publishes pending offer outbox rows to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("offer outbox list failed",
			"event", "offer_outbox_list_failed",
			"module", "campaign-lifecycle/offer-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("offer outbox decode failed",
				"event", "offer_outbox_decode_failed",
				"module", "campaign-lifecycle/offer-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("offer outbox publish failed",
				"event", "offer_outbox_publish_failed",
				"module", "campaign-lifecycle/offer-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("offer outbox relay cycle completed",
			"event", "offer_outbox_relay_completed",
			"module", "campaign-lifecycle/offer-service",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
