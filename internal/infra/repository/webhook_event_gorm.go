package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type WebhookEventGormRepository struct {
	db *gorm.DB
}

func NewWebhookEventGormRepository(db *gorm.DB) *WebhookEventGormRepository {
	return &WebhookEventGormRepository{db: db}
}

func (r *WebhookEventGormRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *WebhookEventGormRepository) Create(ctx context.Context, ev model.WebhookEvent) error {
	if err := r.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return err
	}
	return nil
}
