package currency

import "errors"

// 変換失敗はサポート外通貨のときだけ
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// ショップの基準通貨
const BaseCurrency = "EUR"

var supported = map[string]bool{
	"EUR": true,
	"USD": true,
	"GBP": true,
	"JPY": true,
	"CHF": true,
	"CAD": true,
	"AUD": true,
}

// EUR基準の静的フォールバックレート。
// キャッシュ・DB・外部APIのすべてが使えないときだけ参照する
var fallbackRates = map[string]float64{
	"EUR": 1.0,
	"USD": 1.09,
	"GBP": 0.86,
	"JPY": 161.50,
	"CHF": 0.96,
	"CAD": 1.48,
	"AUD": 1.65,
}

// 宛先国ごとの税率。表にない国は0
var taxRates = map[string]float64{
	"DE": 0.19,
	"FR": 0.20,
	"IT": 0.22,
	"ES": 0.21,
	"NL": 0.21,
	"AT": 0.20,
	"GB": 0.20,
	"JP": 0.10,
	"CH": 0.077,
	"CA": 0.05,
	"AU": 0.10,
	"US": 0.0,
}

func IsSupported(code string) bool {
	return supported[code]
}

func SupportedCurrencies() []string {
	out := make([]string, 0, len(supported))
	for c := range supported {
		out = append(out, c)
	}
	return out
}
