package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"covenant/internal/shared/events"
)

const topicNotifications = "notification.requested"

type publisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Sink fans notifications out to the message bus. Delivery is at-least-once
// and fire-and-forget: failures are logged, never surfaced to the primary
// operation.
type Sink struct {
	Publisher publisher
	Logger    *slog.Logger
}

func NewSink(pub publisher, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{Publisher: pub, Logger: logger}
}

func (s *Sink) Notify(ctx context.Context, userID, kind, contextType, contextID string, payload map[string]any) error {
	data := map[string]any{
		"user_id":      userID,
		"kind":         kind,
		"context_type": contextType,
		"context_id":   contextID,
		"payload":      payload,
	}
	envelope, err := events.New(uuid.NewString(), topicNotifications, "notify", userID, time.Now().UTC(), data)
	if err == nil && s.Publisher != nil {
		err = s.Publisher.Publish(ctx, topicNotifications, envelope)
	}
	if err != nil {
		s.Logger.Error("notification publish failed",
			"event", "notification_publish_failed",
			"module", "internal/platform/notify",
			"layer", "platform",
			"user_id", userID,
			"kind", kind,
			"error", err.Error(),
		)
	}
	return nil
}

// MemorySink records notifications for tests.
type MemorySink struct {
	mu   sync.Mutex
	Sent []SentNotification
}

type SentNotification struct {
	UserID      string
	Kind        string
	ContextType string
	ContextID   string
	Payload     map[string]any
}

func (m *MemorySink) Notify(_ context.Context, userID, kind, contextType, contextID string, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentNotification{
		UserID:      userID,
		Kind:        kind,
		ContextType: contextType,
		ContextID:   contextID,
		Payload:     payload,
	})
	return nil
}
