package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 行ロック付き取得。webhookとユーザー操作の同時実行を直列化する
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)

	FindByTrackingNumber(ctx context.Context, trackingNumber string) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error

	// 出荷作成時にtracking_numberとshipment_idを記録する
	UpdateShipment(ctx context.Context, orderID int64, shipmentID string, trackingNumber string) error
}
