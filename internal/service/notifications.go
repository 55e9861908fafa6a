package service

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/realtime"
	"github.com/itsDrac/e-auc-live/internal/repository"
	"github.com/itsDrac/e-auc-live/pkg/logger"
)

// Notifier delivers a per-user event. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any)
}

type NotificationServicer interface {
	Notifier
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// NotificationService fans a user event out to the realtime channel and the
// notification table.
type NotificationService struct {
	store   repository.NotificationRepository
	channel realtime.Channel
	log     *logger.Logger
	limit   int
	now     func() time.Time
}

func NewNotificationService(store repository.NotificationRepository, channel realtime.Channel, log *logger.Logger, limit int) *NotificationService {
	if limit <= 0 {
		limit = 50
	}
	return &NotificationService{
		store:   store,
		channel: channel,
		log:     log.Named("notifications"),
		limit:   limit,
		now:     time.Now,
	}
}

// Notify always broadcasts first, then tries to persist. A failed write is
// logged and dropped.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	now := s.now().UTC()

	body := maps.Clone(payload)
	if body == nil {
		body = map[string]any{}
	}
	body["type"] = kind
	s.channel.Publish(realtime.Message{
		Type:    realtime.TypeNotification,
		UserID:  userID.String(),
		Payload: body,
		TS:      now,
	})

	n := model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Payload:   maps.Clone(payload),
		CreatedAt: now,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.Warnw("failed to persist notification", "user_id", userID, "type", kind, "error", err)
	}
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	list, err := s.store.ListNotifications(ctx, userID, s.limit)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	return list, nil
}

// MarkRead only touches notifications owned by userID; anything else reads as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	err := s.store.MarkNotificationRead(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(ErrNotificationFound)
	}
	if err != nil {
		return unavailable("mark notification read", err)
	}
	return nil
}
