package repository

import (
	"context"

	"tem-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Insert(ctx context.Context, notif *model.Notification) error
	InsertBatch(ctx context.Context, notifs []model.Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Insert(ctx context.Context, notif *model.Notification) error {
	return GetDB(ctx, r.db).Create(notif).Error
}

func (r *notificationRepository) InsertBatch(ctx context.Context, notifs []model.Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&notifs).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, error) {
	var notifs []model.Notification
	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifs).Error; err != nil {
		return nil, err
	}
	return notifs, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error) {
	var notif model.Notification
	// Scoped to the recipient so users cannot touch each other's notifications
	if err := GetDB(ctx, r.db).First(&notif, "id = ? AND recipient_id = ?", id, recipientID).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Model(&notif).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	return &notif, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}
