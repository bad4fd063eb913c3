package model

import "time"

// 決済ゲートウェイのintentに対応するローカルレコード。
// Payment Orchestratorだけが更新する
type PaymentIntentRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"external_id"`
	OrderID    int64     `gorm:"not null;index" json:"order_id"`
	UserID     int64     `gorm:"not null;index" json:"user_id"`
	Amount     float64   `gorm:"not null" json:"amount"`
	Currency   string    `gorm:"type:varchar(3);not null" json:"currency"`
	Status     string    `gorm:"type:varchar(50);not null" json:"status"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
