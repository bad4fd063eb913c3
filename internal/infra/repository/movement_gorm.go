package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type MovementGormRepository struct {
	db *gorm.DB
}

func NewMovementGormRepository(db *gorm.DB) *MovementGormRepository {
	return &MovementGormRepository{db: db}
}

func (r *MovementGormRepository) Create(ctx context.Context, m model.InventoryMovement) error {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	return nil
}

func (r *MovementGormRepository) Exists(ctx context.Context, referenceID int64, variantID int64, t model.MovementType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.InventoryMovement{}).
		Where("reference_id = ? AND variant_id = ? AND type = ?", referenceID, variantID, t).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MovementGormRepository) ListByReference(ctx context.Context, referenceID int64) ([]model.InventoryMovement, error) {
	var items []model.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.InventoryMovement{}, err
	}
	return items, nil
}
