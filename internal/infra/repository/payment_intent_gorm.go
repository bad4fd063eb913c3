package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type PaymentIntentGormRepository struct {
	db *gorm.DB
}

func NewPaymentIntentGormRepository(db *gorm.DB) *PaymentIntentGormRepository {
	return &PaymentIntentGormRepository{db: db}
}

func (r *PaymentIntentGormRepository) Create(ctx context.Context, rec model.PaymentIntentRecord) error {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	return nil
}

func (r *PaymentIntentGormRepository) FindByExternalID(ctx context.Context, externalID string) (model.PaymentIntentRecord, error) {
	var rec model.PaymentIntentRecord
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentIntentRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentIntentRecord{}, err
	}
	return rec, nil
}

func (r *PaymentIntentGormRepository) UpdateStatus(ctx context.Context, externalID string, status string) error {
	res := r.db.WithContext(ctx).Model(&model.PaymentIntentRecord{}).
		Where("external_id = ?", externalID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
