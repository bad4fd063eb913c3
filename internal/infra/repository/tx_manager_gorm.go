package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	variants   repo.VariantRepository
	movements  repo.MovementRepository
	intents    repo.PaymentIntentRepository
	events     repo.WebhookEventRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository          { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository  { return r.orderItems }
func (r *txReposGorm) Variants() repo.VariantRepository      { return r.variants }
func (r *txReposGorm) Movements() repo.MovementRepository    { return r.movements }
func (r *txReposGorm) Intents() repo.PaymentIntentRepository { return r.intents }
func (r *txReposGorm) Events() repo.WebhookEventRepository   { return r.events }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			variants:   NewVariantGormRepository(tx),
			movements:  NewMovementGormRepository(tx),
			intents:    NewPaymentIntentGormRepository(tx),
			events:     NewWebhookEventGormRepository(tx),
		}
		return fn(r)
	})
}
