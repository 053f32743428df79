package service

import (
	"context"
	"errors"
	"fmt"

	"tem-backend/internal/model"
	"tem-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService is the recipient-facing inbox: list, unread count,
// mark read. Creation happens only through the Notifier fan-out.
type NotificationService interface {
	List(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, recipientID uuid.UUID, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}

type notificationService struct {
	notifRepo repository.NotificationRepository
}

func NewNotificationService(notifRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notifRepo: notifRepo}
}

func (s *notificationService) List(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, int64, error) {
	notifs, err := s.notifRepo.ListByRecipient(ctx, recipientID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	unread, err := s.notifRepo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return notifs, unread, nil
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID uuid.UUID, id string) (*model.Notification, error) {
	notifID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid notification id", ErrValidation)
	}
	notif, err := s.notifRepo.MarkRead(ctx, notifID, recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return notif, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	if err := s.notifRepo.MarkAllRead(ctx, recipientID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
