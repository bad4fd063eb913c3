package repository

import (
	"context"

	"app/internal/domain/model"
)

// 処理済みイベントの重複排除セット
type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	Create(ctx context.Context, ev model.WebhookEvent) error
}
