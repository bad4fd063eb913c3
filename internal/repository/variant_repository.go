package repository

import (
	"context"

	"app/internal/domain/model"
)

type VariantRepository interface {
	FindByID(ctx context.Context, variantID int64) (model.ProductVariant, error)

	// 予約数を加算。在庫数との突き合わせは出荷時に行う（ここでは確認しない）
	AddReserved(ctx context.Context, variantID int64, qty int64) error

	// 予約数が足りるときだけ減算
	ReleaseReserved(ctx context.Context, variantID int64, qty int64) (bool, error)

	// 出荷確定。予約数と在庫数を同時に減らす
	FulfillReserved(ctx context.Context, variantID int64, qty int64) (bool, error)
}
