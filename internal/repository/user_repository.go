package repository

import (
	"context"

	"app/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	UpdateGatewayCustomerID(ctx context.Context, userID int64, customerID string) error
}
