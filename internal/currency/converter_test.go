package currency_test

import (
	"context"
	"testing"

	"app/internal/currency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConverter(t *testing.T) *currency.Converter {
	t.Helper()
	return currency.NewConverter(currency.NewCache(&stubRates{}, &tableProvider{}, zap.NewNop()))
}

func TestConvert_SameCurrencyIsRoundedNoop(t *testing.T) {
	cv := newTestConverter(t)

	got, err := cv.Convert(context.Background(), 12.344, "EUR", "EUR")

	require.NoError(t, err)
	assert.Equal(t, 12.34, got)
}

func TestConvert_UnsupportedCurrency(t *testing.T) {
	cv := newTestConverter(t)
	ctx := context.Background()

	_, err := cv.Convert(ctx, 10, "EUR", "XXX")
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)

	_, err = cv.Convert(ctx, 10, "XXX", "EUR")
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
}

func TestConvert_CrossCurrency(t *testing.T) {
	cv := newTestConverter(t)

	got, err := cv.Convert(context.Background(), 100, "EUR", "USD")

	require.NoError(t, err)
	assert.InDelta(t, 108.42, got, 0.005)
}

// 往復変換の誤差は丸め2回分（2セント）を超えない
func TestConvert_RoundTripWithinTwoCents(t *testing.T) {
	cv := newTestConverter(t)
	ctx := context.Background()

	amounts := []float64{0.50, 9.99, 123.45, 2500}
	codes := []string{"EUR", "USD", "GBP", "CHF", "CAD", "AUD"}

	for _, from := range codes {
		for _, to := range codes {
			for _, amount := range amounts {
				converted, err := cv.Convert(ctx, amount, from, to)
				require.NoError(t, err)

				back, err := cv.Convert(ctx, converted, to, from)
				require.NoError(t, err)

				assert.InDelta(t, amount, back, 0.02,
					"%v %s -> %s -> %s", amount, from, to, from)
			}
		}
	}
}

func TestConvert_UsesFallbackWhenOffline(t *testing.T) {
	cv := currency.NewConverter(currency.NewCache(&stubRates{}, &failingProvider{}, zap.NewNop()))

	got, err := cv.Convert(context.Background(), 100, "EUR", "JPY")

	require.NoError(t, err)
	assert.Equal(t, 16150.0, got)
}

func TestCalculateTax(t *testing.T) {
	cv := newTestConverter(t)

	cases := []struct {
		country string
		rate    float64
		amount  float64
	}{
		{"DE", 0.19, 19},
		{"GB", 0.20, 20},
		{"JP", 0.10, 10},
		{"US", 0, 0},
		{"ZZ", 0, 0}, //未知の国は非課税扱い
	}
	for _, tc := range cases {
		rate, amount := cv.CalculateTax(100, tc.country)
		assert.Equal(t, tc.rate, rate, tc.country)
		assert.Equal(t, tc.amount, amount, tc.country)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, currency.Round2(12.346))
	assert.Equal(t, 12.34, currency.Round2(12.344))
	assert.Equal(t, 0.0, currency.Round2(0))
	assert.Equal(t, -3.33, currency.Round2(-3.334))
}
