package currency_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"app/internal/currency"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) FetchLatest(ctx context.Context, base string) (map[string]float64, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	out := make(map[string]float64, len(liveRates))
	for code, r := range liveRates {
		out[code] = r / liveRates[base]
	}
	return out, nil
}

func (p *countingProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRefresher_WarmsCacheOnStartAndStops(t *testing.T) {
	provider := &countingProvider{}
	cache := currency.NewCache(&stubRates{}, provider, zap.NewNop())
	rf := currency.NewRefresher(cache, time.Hour, zap.NewNop())

	rf.Start(context.Background())

	//起動直後の初回リフレッシュを待つ
	deadline := time.Now().Add(2 * time.Second)
	for provider.count() < len(currency.SupportedCurrencies()) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	rf.Stop()

	assert.GreaterOrEqual(t, provider.count(), len(currency.SupportedCurrencies()))

	//温まった後の参照はメモリから返る
	snap, err := cache.GetRates(context.Background(), "EUR")
	assert.NoError(t, err)
	assert.Equal(t, currency.SourceCache, snap.Source)
}

func TestRefresher_StopWithoutStart(t *testing.T) {
	cache := currency.NewCache(&stubRates{}, &countingProvider{}, zap.NewNop())
	rf := currency.NewRefresher(cache, time.Hour, zap.NewNop())

	//Startしていなくてもpanicしない
	rf.Stop()
}
