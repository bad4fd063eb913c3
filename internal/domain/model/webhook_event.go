package model

import "time"

// 処理済みwebhookイベントの重複排除セット。
// 状態変更と同じトランザクションで挿入する
type WebhookEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"event_id"`
	Type      string    `gorm:"type:varchar(100);not null" json:"type"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
