package repository

import (
	"context"

	"app/internal/domain/model"
)

type PaymentIntentRepository interface {
	Create(ctx context.Context, rec model.PaymentIntentRecord) error
	FindByExternalID(ctx context.Context, externalID string) (model.PaymentIntentRecord, error)
	UpdateStatus(ctx context.Context, externalID string, status string) error
}
