package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

// NotificationUsecase handles notifications other servers push to a local
// entity.
type NotificationUsecase struct {
	events EventPublisher
	logger *zap.Logger
}

func NewNotificationUsecase(events EventPublisher, logger *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{
		events: events,
		logger: logger.With(zap.String("module", "notification")),
	}
}

// Receive accepts the notification and relays it to realtime listeners.
// Relay failures are logged; the sender still gets its acknowledgement.
func (uc *NotificationUsecase) Receive(ctx context.Context, entity domain.Entity, body any) {
	if uc.events == nil {
		return
	}
	err := uc.events.Publish(ctx, entity.Name, tent.Event{
		Type:   tent.EventNotificationReceived,
		Entity: entity.IdentityURL,
		Body:   body,
	})
	if err != nil {
		uc.logger.Warn("failed to relay notification", zap.String("entity", entity.Name), zap.Error(err))
	}
}
