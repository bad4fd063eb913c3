package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// 認証は外部で行う。このコアはuser idとroleを消費するだけ。
// ゲートウェイ顧客IDは初回のintent作成時に遅延発行して保存する
type User struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Email             string `gorm:"uniqueIndex;not null"`
	Role              Role   `gorm:"type:varchar(20);not null;default:'USER'"`
	GatewayCustomerID string `gorm:"type:varchar(255)"`
	IsActive          bool   `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
