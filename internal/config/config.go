package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	JWTSecret string // JWT署名シークレット

	PaymentAPIBase       string // 決済ゲートウェイのAPIベースURL
	PaymentAPIKey        string // 決済ゲートウェイのAPIキー
	PaymentWebhookSecret string // webhook署名の共有シークレット

	CarrierAPIBase   string // キャリアAPIのベースURL
	CarrierAPIKey    string // キャリアAPIキー
	CarrierAccountID string // 荷主アカウントID

	CurrencyAPIBase string // 為替レートAPIのベースURL

	ShipFromCountry string // 発送元の国コード（デフォルトDE）

	GoEnv string // dev/prod
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentAPIBase:       os.Getenv("PAYMENT_API_BASE"),
		PaymentAPIKey:        os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		CarrierAPIBase:   os.Getenv("CARRIER_API_BASE"),
		CarrierAPIKey:    os.Getenv("CARRIER_API_KEY"),
		CarrierAccountID: os.Getenv("CARRIER_ACCOUNT_ID"),

		CurrencyAPIBase: os.Getenv("CURRENCY_API_BASE"),

		ShipFromCountry: getenv("SHIP_FROM_COUNTRY", "DE"),

		GoEnv: os.Getenv("GO_ENV"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentAPIBase == "" {
		return Config{}, fmt.Errorf("PAYMENT_API_BASE is required")
	}
	if cfg.PaymentAPIKey == "" {
		return Config{}, fmt.Errorf("PAYMENT_API_KEY is required")
	}
	if cfg.PaymentWebhookSecret == "" {
		return Config{}, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.CarrierAPIBase == "" {
		return Config{}, fmt.Errorf("CARRIER_API_BASE is required")
	}
	if cfg.CarrierAPIKey == "" {
		return Config{}, fmt.Errorf("CARRIER_API_KEY is required")
	}
	if cfg.CarrierAccountID == "" {
		return Config{}, fmt.Errorf("CARRIER_ACCOUNT_ID is required")
	}
	if cfg.CurrencyAPIBase == "" {
		return Config{}, fmt.Errorf("CURRENCY_API_BASE is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
