package repository

import (
	"context"

	"app/internal/domain/model"
)

type ExchangeRateRepository interface {
	ListByBase(ctx context.Context, base string) ([]model.ExchangeRate, error)

	// (from, to) をキーにupsert
	Upsert(ctx context.Context, rate model.ExchangeRate) error
}
