package model

import "time"

// 注文明細。注文と同時に作成され、作成後は変更しない
type OrderItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;index" json:"order_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	VariantID int64     `gorm:"not null;index" json:"variant_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
