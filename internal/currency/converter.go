package currency

import (
	"context"
	"math"
)

type Converter struct {
	cache *Cache
}

func NewConverter(cache *Cache) *Converter {
	return &Converter{cache: cache}
}

// from→toに変換して通貨精度（2桁）へ丸める。
// 同一通貨はレート1のno-op。サポート外の通貨だけがエラーになる
func (cv *Converter) Convert(ctx context.Context, amount float64, from string, to string) (float64, error) {
	if !IsSupported(from) || !IsSupported(to) {
		return 0, ErrUnsupportedCurrency
	}
	if from == to {
		return Round2(amount), nil
	}

	snap, err := cv.cache.GetRates(ctx, from)
	if err != nil {
		return 0, err
	}
	rate, ok := snap.Rates[to]
	if !ok {
		// サポート内ならフォールバック表が必ず埋める。ここに来るのはバグ
		return 0, ErrUnsupportedCurrency
	}

	return Round2(amount * rate), nil
}

// 宛先国の税率と税額
func (cv *Converter) CalculateTax(amount float64, countryCode string) (taxRate float64, taxAmount float64) {
	rate := taxRates[countryCode]
	return rate, Round2(amount * rate)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
