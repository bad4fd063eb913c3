package currency

import (
	"context"
	"sync"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type RateSource string

const (
	SourceCache    RateSource = "cache"
	SourceDatabase RateSource = "database"
	SourceAPI      RateSource = "api"
	SourceFallback RateSource = "fallback"
)

// 基準通貨1単位に対するレート表と取得元
type Snapshot struct {
	Base        string
	Rates       map[string]float64
	Source      RateSource
	LastUpdated time.Time
}

// 外部レートプロバイダ
type ProviderClient interface {
	FetchLatest(ctx context.Context, base string) (map[string]float64, error)
}

type memEntry struct {
	rates     map[string]float64
	updatedAt time.Time
}

// 段階的ルックアップのレートキャッシュ。
// メモリ（1h）→ DB（24h）→ 外部API（10s timeout）→ 静的フォールバック。
// 下位の失敗は次の段に降りるだけで、呼び出し元へはエラーを返さない
type Cache struct {
	mu      sync.RWMutex
	entries map[string]memEntry

	rates  repo.ExchangeRateRepository
	client ProviderClient
	logger *zap.Logger

	memTTL   time.Duration
	dbTTL    time.Duration
	fetchTTL time.Duration
}

func NewCache(rates repo.ExchangeRateRepository, client ProviderClient, logger *zap.Logger) *Cache {
	return &Cache{
		entries:  map[string]memEntry{},
		rates:    rates,
		client:   client,
		logger:   logger,
		memTTL:   time.Hour,
		dbTTL:    24 * time.Hour,
		fetchTTL: 10 * time.Second,
	}
}

func (c *Cache) GetRates(ctx context.Context, base string) (Snapshot, error) {
	if !IsSupported(base) {
		return Snapshot{}, ErrUnsupportedCurrency
	}

	//メモリ（1時間以内）
	c.mu.RLock()
	e, ok := c.entries[base]
	c.mu.RUnlock()
	if ok && time.Since(e.updatedAt) < c.memTTL {
		return Snapshot{Base: base, Rates: e.rates, Source: SourceCache, LastUpdated: e.updatedAt}, nil
	}

	//DB（24時間以内）
	rows, err := c.rates.ListByBase(ctx, base)
	if err == nil && len(rows) > 0 {
		newest := rows[0].UpdatedAt
		rates := make(map[string]float64, len(rows))
		for _, row := range rows {
			rates[row.ToCurrency] = row.Rate
			if row.UpdatedAt.After(newest) {
				newest = row.UpdatedAt
			}
		}
		if time.Since(newest) < c.dbTTL {
			c.store(base, rates, newest)
			return Snapshot{Base: base, Rates: rates, Source: SourceDatabase, LastUpdated: newest}, nil
		}
	}

	//外部API
	if snap, err := c.Refresh(ctx, base); err == nil {
		return snap, nil
	} else {
		c.logger.Warn("rate fetch failed, using fallback",
			zap.String("base", base), zap.Error(err))
	}

	//静的フォールバック。メモリには載せない（次回またAPIを試す）
	rates := make(map[string]float64, len(fallbackRates))
	for code, r := range fallbackRates {
		rates[code] = r / fallbackRates[base]
	}
	return Snapshot{Base: base, Rates: rates, Source: SourceFallback, LastUpdated: time.Time{}}, nil
}

// 外部APIから取得してDBとメモリへ保存する。リフレッシュタスクもここを通る
func (c *Cache) Refresh(ctx context.Context, base string) (Snapshot, error) {
	if !IsSupported(base) {
		return Snapshot{}, ErrUnsupportedCurrency
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTTL)
	defer cancel()

	fetched, err := c.client.FetchLatest(fetchCtx, base)
	if err != nil {
		return Snapshot{}, err
	}

	now := time.Now()
	rates := make(map[string]float64, len(supported))
	for code := range supported {
		r, ok := fetched[code]
		if !ok {
			continue
		}
		rates[code] = r
		if err := c.rates.Upsert(ctx, model.ExchangeRate{
			FromCurrency: base,
			ToCurrency:   code,
			Rate:         r,
			UpdatedAt:    now,
		}); err != nil {
			//保存失敗してもメモリ側は更新して返す
			c.logger.Warn("rate upsert failed",
				zap.String("base", base), zap.String("to", code), zap.Error(err))
		}
	}
	if len(rates) == 0 {
		return Snapshot{}, ErrUnsupportedCurrency
	}

	c.store(base, rates, now)
	return Snapshot{Base: base, Rates: rates, Source: SourceAPI, LastUpdated: now}, nil
}

func (c *Cache) store(base string, rates map[string]float64, updatedAt time.Time) {
	c.mu.Lock()
	c.entries[base] = memEntry{rates: rates, updatedAt: updatedAt}
	c.mu.Unlock()
}
