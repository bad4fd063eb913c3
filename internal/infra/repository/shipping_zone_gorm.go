package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type ShippingZoneGormRepository struct {
	db *gorm.DB
}

func NewShippingZoneGormRepository(db *gorm.DB) *ShippingZoneGormRepository {
	return &ShippingZoneGormRepository{db: db}
}

func (r *ShippingZoneGormRepository) ListActive(ctx context.Context) ([]model.ShippingZone, error) {
	var zones []model.ShippingZone
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("base_rate asc").
		Find(&zones).Error
	if err != nil {
		return []model.ShippingZone{}, err
	}
	return zones, nil
}
