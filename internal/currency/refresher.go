package currency

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// レートの定期リフレッシュ。リクエスト処理とは独立したgoroutineで回り、
// プロセス終了時にStopで確実に止める
type Refresher struct {
	cache    *Cache
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRefresher(cache *Cache, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{cache: cache, interval: interval, logger: logger}
}

func (rf *Refresher) Start(ctx context.Context) {
	ctx, rf.cancel = context.WithCancel(ctx)

	rf.wg.Add(1)
	go func() {
		defer rf.wg.Done()

		ticker := time.NewTicker(rf.interval)
		defer ticker.Stop()

		//起動直後に一度温める
		rf.refreshAll(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rf.refreshAll(ctx)
			}
		}
	}()
}

func (rf *Refresher) Stop() {
	if rf.cancel != nil {
		rf.cancel()
	}
	rf.wg.Wait()
}

func (rf *Refresher) refreshAll(ctx context.Context) {
	for _, base := range SupportedCurrencies() {
		if ctx.Err() != nil {
			return
		}
		if _, err := rf.cache.Refresh(ctx, base); err != nil {
			//失敗しても次の周期で再試行するだけ
			rf.logger.Warn("background rate refresh failed",
				zap.String("base", base), zap.Error(err))
		}
	}
	rf.logger.Debug("exchange rates refreshed")
}
