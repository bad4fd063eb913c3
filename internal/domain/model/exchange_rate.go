package model

import "time"

// 為替レート。リフレッシュ時にupsertする。24時間以内なら「最近」扱い
type ExchangeRate struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FromCurrency string    `gorm:"type:varchar(3);not null;uniqueIndex:uq_rate_pair" json:"from_currency"`
	ToCurrency   string    `gorm:"type:varchar(3);not null;uniqueIndex:uq_rate_pair" json:"to_currency"`
	Rate         float64   `gorm:"not null" json:"rate"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
