package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	ledger *InventoryLedger
}

func NewOrderUsecase(tx repo.TransactionManager, ledger *InventoryLedger) *OrderUsecase {
	return &OrderUsecase{tx: tx, ledger: ledger}
}

type OrderItemOutput struct {
	ProductID int64   `json:"product_id"`
	VariantID int64   `json:"variant_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"payment_status"`
	Currency       string            `json:"currency"`
	Subtotal       float64           `json:"subtotal"`
	Tax            float64           `json:"tax"`
	ShippingCost   float64           `json:"shipping_cost"`
	Total          float64           `json:"total"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// キャンセル。PENDING/CONFIRMED/SHIPPEDから遷移でき、
// 予約済みの数量を明細ごとに解放する。支払状態には触らない
func (u *OrderUsecase) Cancel(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//すでにキャンセル済みなら何もしない（200）
		if o.Status == model.OrderStatusCanceled {
			return nil
		}
		//配達完了は終端
		if o.Status == model.OrderStatusDelivered {
			return NewHTTPError(http.StatusConflict, "cannot cancel delivered order")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, it := range items {
			//予約していなければledger側がno-opにする
			if err := u.ledger.Release(ctx, r, it.VariantID, it.Quantity, orderID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "release failed")
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCanceled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	return OrderOutput{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		Currency:       o.Currency,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		ShippingCost:   o.ShippingCost,
		Total:          o.Total,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		Items:          outItems,
	}
}
