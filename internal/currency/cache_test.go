package currency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/currency"
	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRates struct {
	rows    []model.ExchangeRate
	upserts []model.ExchangeRate
	listErr error
}

func (s *stubRates) ListByBase(ctx context.Context, base string) ([]model.ExchangeRate, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.ExchangeRate
	for _, r := range s.rows {
		if r.FromCurrency == base {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRates) Upsert(ctx context.Context, rate model.ExchangeRate) error {
	s.upserts = append(s.upserts, rate)
	return nil
}

// EUR基準の表からbaseごとのレートを導出して返すプロバイダ
var liveRates = map[string]float64{
	"EUR": 1, "USD": 1.0842, "GBP": 0.8571, "JPY": 161.2,
	"CHF": 0.9534, "CAD": 1.4776, "AUD": 1.6423,
}

type tableProvider struct{ calls int }

func (p *tableProvider) FetchLatest(ctx context.Context, base string) (map[string]float64, error) {
	p.calls++
	out := make(map[string]float64, len(liveRates))
	for code, r := range liveRates {
		out[code] = r / liveRates[base]
	}
	return out, nil
}

type failingProvider struct{ calls int }

func (p *failingProvider) FetchLatest(ctx context.Context, base string) (map[string]float64, error) {
	p.calls++
	return nil, errors.New("provider unavailable")
}

func TestGetRates_DatabaseTier(t *testing.T) {
	now := time.Now()
	repo := &stubRates{rows: []model.ExchangeRate{
		{FromCurrency: "EUR", ToCurrency: "USD", Rate: 1.08, UpdatedAt: now},
		{FromCurrency: "EUR", ToCurrency: "JPY", Rate: 160.1, UpdatedAt: now},
	}}
	provider := &tableProvider{}
	cache := currency.NewCache(repo, provider, zap.NewNop())

	snap, err := cache.GetRates(context.Background(), "EUR")

	require.NoError(t, err)
	assert.Equal(t, currency.SourceDatabase, snap.Source)
	assert.Equal(t, 1.08, snap.Rates["USD"])
	assert.Equal(t, 0, provider.calls)
}

func TestGetRates_MemoryTierAfterFirstLookup(t *testing.T) {
	repo := &stubRates{rows: []model.ExchangeRate{
		{FromCurrency: "EUR", ToCurrency: "USD", Rate: 1.08, UpdatedAt: time.Now()},
	}}
	cache := currency.NewCache(repo, &tableProvider{}, zap.NewNop())
	ctx := context.Background()

	first, err := cache.GetRates(ctx, "EUR")
	require.NoError(t, err)
	require.Equal(t, currency.SourceDatabase, first.Source)

	second, err := cache.GetRates(ctx, "EUR")
	require.NoError(t, err)
	assert.Equal(t, currency.SourceCache, second.Source)
	assert.Equal(t, first.Rates, second.Rates)
}

func TestGetRates_APITierPersistsAndCaches(t *testing.T) {
	repo := &stubRates{}
	provider := &tableProvider{}
	cache := currency.NewCache(repo, provider, zap.NewNop())
	ctx := context.Background()

	snap, err := cache.GetRates(ctx, "EUR")

	require.NoError(t, err)
	assert.Equal(t, currency.SourceAPI, snap.Source)
	assert.InDelta(t, 1.0842, snap.Rates["USD"], 1e-9)
	//サポート対象の全通貨がDBへ書かれる
	assert.Len(t, repo.upserts, len(currency.SupportedCurrencies()))

	//次回はメモリから
	second, err := cache.GetRates(ctx, "EUR")
	require.NoError(t, err)
	assert.Equal(t, currency.SourceCache, second.Source)
	assert.Equal(t, 1, provider.calls)
}

func TestGetRates_StaleDatabaseRowsTriggerRefetch(t *testing.T) {
	repo := &stubRates{rows: []model.ExchangeRate{
		{FromCurrency: "EUR", ToCurrency: "USD", Rate: 1.01, UpdatedAt: time.Now().Add(-25 * time.Hour)},
	}}
	provider := &tableProvider{}
	cache := currency.NewCache(repo, provider, zap.NewNop())

	snap, err := cache.GetRates(context.Background(), "EUR")

	require.NoError(t, err)
	assert.Equal(t, currency.SourceAPI, snap.Source)
	assert.InDelta(t, 1.0842, snap.Rates["USD"], 1e-9)
	assert.Equal(t, 1, provider.calls)
}

func TestGetRates_FallbackWhenAllTiersFail(t *testing.T) {
	repo := &stubRates{rows: []model.ExchangeRate{
		{FromCurrency: "EUR", ToCurrency: "USD", Rate: 1.01, UpdatedAt: time.Now().Add(-25 * time.Hour)},
	}}
	provider := &failingProvider{}
	cache := currency.NewCache(repo, provider, zap.NewNop())
	ctx := context.Background()

	snap, err := cache.GetRates(ctx, "EUR")

	require.NoError(t, err)
	assert.Equal(t, currency.SourceFallback, snap.Source)
	assert.True(t, snap.LastUpdated.IsZero())
	assert.InDelta(t, 1.09, snap.Rates["USD"], 1e-9)

	//フォールバックはメモリに残さず、次回またAPIを試す
	_, err = cache.GetRates(ctx, "EUR")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestGetRates_FallbackDerivesNonEuroBase(t *testing.T) {
	cache := currency.NewCache(&stubRates{}, &failingProvider{}, zap.NewNop())

	snap, err := cache.GetRates(context.Background(), "USD")

	require.NoError(t, err)
	assert.Equal(t, currency.SourceFallback, snap.Source)
	assert.InDelta(t, 1.0/1.09, snap.Rates["EUR"], 1e-9)
	assert.InDelta(t, 1.0, snap.Rates["USD"], 1e-9)
}

func TestGetRates_UnsupportedBase(t *testing.T) {
	cache := currency.NewCache(&stubRates{}, &tableProvider{}, zap.NewNop())

	_, err := cache.GetRates(context.Background(), "XXX")

	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
}

func TestRefresh_IgnoresUnsupportedCodesFromProvider(t *testing.T) {
	repo := &stubRates{}
	provider := &partialProvider{}
	cache := currency.NewCache(repo, provider, zap.NewNop())

	snap, err := cache.Refresh(context.Background(), "EUR")

	require.NoError(t, err)
	assert.Contains(t, snap.Rates, "USD")
	assert.NotContains(t, snap.Rates, "XXX")
	for _, up := range repo.upserts {
		assert.NotEqual(t, "XXX", up.ToCurrency)
	}
}

type partialProvider struct{}

func (partialProvider) FetchLatest(ctx context.Context, base string) (map[string]float64, error) {
	return map[string]float64{"USD": 1.1, "XXX": 9.9}, nil
}
