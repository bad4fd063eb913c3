package model

import "time"

// 在庫カウンタを持つ唯一のエンティティ。
// reserved_quantity は移動ログの RESERVE 合計 − RELEASE 合計と常に一致させる
type ProductVariant struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        int64     `gorm:"not null;index" json:"product_id"`
	SKU              string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Price            float64   `gorm:"not null" json:"price"`
	WeightKg         float64   `gorm:"not null;default:0" json:"weight_kg"`
	StockQuantity    int64     `gorm:"not null;default:0" json:"stock_quantity"`
	ReservedQuantity int64     `gorm:"not null;default:0" json:"reserved_quantity"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
