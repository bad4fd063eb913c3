package usecase

import (
	"context"
	"fmt"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 在庫台帳。移動ログを追記してvariantの予約カウンタを合わせる。
// 自前のトランザクションは張らず、呼び出し元のTxReposに参加する。
// (reference_id, variant_id, type) ごとに各操作は最大1回で、二度目はno-op
type InventoryLedger struct{}

func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{}
}

// 予約。stock_quantityとの突き合わせはここでは行わない
// （予約時点では確保だけして、充足は出荷時に突き合わせる方針）
func (l *InventoryLedger) Reserve(ctx context.Context, r repo.TxRepos, variantID int64, qty int64, referenceID int64) error {
	if qty <= 0 {
		return fmt.Errorf("invalid reserve quantity %d", qty)
	}

	done, err := r.Movements().Exists(ctx, referenceID, variantID, model.MovementTypeReserve)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if err := r.Movements().Create(ctx, model.InventoryMovement{
		VariantID:   variantID,
		Type:        model.MovementTypeReserve,
		Quantity:    qty,
		ReferenceID: referenceID,
	}); err != nil {
		return err
	}

	return r.Variants().AddReserved(ctx, variantID, qty)
}

// 予約解放。予約の実績がない・解放済みならno-op
func (l *InventoryLedger) Release(ctx context.Context, r repo.TxRepos, variantID int64, qty int64, referenceID int64) error {
	if qty <= 0 {
		return fmt.Errorf("invalid release quantity %d", qty)
	}

	released, err := r.Movements().Exists(ctx, referenceID, variantID, model.MovementTypeRelease)
	if err != nil {
		return err
	}
	if released {
		return nil
	}

	reserved, err := r.Movements().Exists(ctx, referenceID, variantID, model.MovementTypeReserve)
	if err != nil {
		return err
	}
	if !reserved {
		return nil
	}

	if err := r.Movements().Create(ctx, model.InventoryMovement{
		VariantID:   variantID,
		Type:        model.MovementTypeRelease,
		Quantity:    qty,
		ReferenceID: referenceID,
	}); err != nil {
		return err
	}

	ok, err := r.Variants().ReleaseReserved(ctx, variantID, qty)
	if err != nil {
		return err
	}
	if !ok {
		// reserved_quantityがマイナスになる解放は台帳の不整合
		return fmt.Errorf("release would drive variant %d reserved below zero", variantID)
	}
	return nil
}

// 出荷確定。予約を実在庫の減算へ変換する
func (l *InventoryLedger) Fulfill(ctx context.Context, r repo.TxRepos, variantID int64, qty int64, referenceID int64) error {
	if qty <= 0 {
		return fmt.Errorf("invalid fulfill quantity %d", qty)
	}

	done, err := r.Movements().Exists(ctx, referenceID, variantID, model.MovementTypeFulfill)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if err := r.Movements().Create(ctx, model.InventoryMovement{
		VariantID:   variantID,
		Type:        model.MovementTypeFulfill,
		Quantity:    qty,
		ReferenceID: referenceID,
	}); err != nil {
		return err
	}

	ok, err := r.Variants().FulfillReserved(ctx, variantID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("fulfill exceeds reserved quantity for variant %d", variantID)
	}
	return nil
}
