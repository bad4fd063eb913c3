package model

import "time"

type MovementType string

const (
	MovementTypeReserve MovementType = "RESERVE"
	MovementTypeRelease MovementType = "RELEASE"
	MovementTypeFulfill MovementType = "FULFILL"
)

// 在庫移動ログ。追記専用で更新・削除しない。
// (reference_id, variant_id, type) の一意制約で注文ごとに各操作は最大1回
type InventoryMovement struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID   int64        `gorm:"not null;index;uniqueIndex:uq_movement_ref" json:"variant_id"`
	Type        MovementType `gorm:"type:varchar(20);not null;uniqueIndex:uq_movement_ref" json:"type"`
	Quantity    int64        `gorm:"not null" json:"quantity"`
	ReferenceID int64        `gorm:"not null;index;uniqueIndex:uq_movement_ref" json:"reference_id"`
	CreatedAt   time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
}
