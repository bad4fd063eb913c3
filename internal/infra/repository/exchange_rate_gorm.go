package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExchangeRateGormRepository struct {
	db *gorm.DB
}

func NewExchangeRateGormRepository(db *gorm.DB) *ExchangeRateGormRepository {
	return &ExchangeRateGormRepository{db: db}
}

func (r *ExchangeRateGormRepository) ListByBase(ctx context.Context, base string) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("from_currency = ?", base).
		Find(&rates).Error
	if err != nil {
		return []model.ExchangeRate{}, err
	}
	return rates, nil
}

// (from, to) をキーにupsert。リフレッシュのたびに上書き
func (r *ExchangeRateGormRepository) Upsert(ctx context.Context, rate model.ExchangeRate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_currency"}, {Name: "to_currency"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
		}).
		Create(&rate).Error
}
