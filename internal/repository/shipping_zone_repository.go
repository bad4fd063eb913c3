package repository

import (
	"context"

	"app/internal/domain/model"
)

type ShippingZoneRepository interface {
	ListActive(ctx context.Context) ([]model.ShippingZone, error)
}
