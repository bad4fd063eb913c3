package repository

import (
	"context"

	"app/internal/domain/model"
)

// 在庫移動ログ。追記のみ
type MovementRepository interface {
	Create(ctx context.Context, m model.InventoryMovement) error

	// 同じ(注文, variant, 種別)の移動が既にあるか。冪等化に使う
	Exists(ctx context.Context, referenceID int64, variantID int64, t model.MovementType) (bool, error)

	ListByReference(ctx context.Context, referenceID int64) ([]model.InventoryMovement, error)
}
