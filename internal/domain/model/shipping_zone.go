package model

import "time"

// 配送ゾーン。このコアからは読み取り専用
type ShippingZone struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string    `gorm:"type:varchar(100);not null" json:"name"`
	Countries             []string  `gorm:"serializer:json;not null" json:"countries"`
	BaseRate              float64   `gorm:"not null" json:"base_rate"`
	PerKgRate             float64   `gorm:"not null" json:"per_kg_rate"`
	FreeShippingThreshold float64   `gorm:"not null" json:"free_shipping_threshold"`
	EstimatedDaysMin      int       `gorm:"not null" json:"estimated_days_min"`
	EstimatedDaysMax      int       `gorm:"not null" json:"estimated_days_max"`
	IsActive              bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt             time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 宛先国コードがこのゾーンに含まれるか
func (z ShippingZone) ContainsCountry(code string) bool {
	for _, c := range z.Countries {
		if c == code {
			return true
		}
	}
	return false
}
