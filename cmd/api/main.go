package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	appcurrency "app/internal/currency"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/carrier"
	currencyapi "app/internal/infra/currency"
	"app/internal/infra/db"
	"app/internal/infra/payment"
	infraRepo "app/internal/infra/repository"
	"app/internal/pkg/logging"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くてもいい（本番は環境変数で渡す）
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("orchestration-core", cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryMovement{},
		&model.ExchangeRate{},
		&model.ShippingZone{},
		&model.PaymentIntentRecord{},
		&model.WebhookEvent{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	variantRepo := infraRepo.NewVariantGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	zoneRepo := infraRepo.NewShippingZoneGormRepository(gormDB)
	rateRepo := infraRepo.NewExchangeRateGormRepository(gormDB)

	//外部プロバイダのクライアント
	gatewayClient := payment.NewClient(cfg.PaymentAPIBase, cfg.PaymentAPIKey)
	carrierClient := carrier.NewClient(cfg.CarrierAPIBase, cfg.CarrierAPIKey, cfg.CarrierAccountID)
	currencyClient := currencyapi.NewClient(cfg.CurrencyAPIBase)

	//レートキャッシュと定期リフレッシュ
	rateCache := appcurrency.NewCache(rateRepo, currencyClient, logger)
	converter := appcurrency.NewConverter(rateCache)
	refresher := appcurrency.NewRefresher(rateCache, time.Hour, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher.Start(ctx)
	defer refresher.Stop()

	//Usecase生成
	ledger := usecase.NewInventoryLedger()
	sender := carrier.Address{
		Name:        "Warehouse",
		CountryCode: cfg.ShipFromCountry,
	}

	paymentUC := usecase.NewPaymentUsecase(txManager, userRepo, ledger, gatewayClient, cfg.PaymentWebhookSecret, logger)
	shippingUC := usecase.NewShippingUsecase(
		txManager, zoneRepo, variantRepo, productRepo, orderRepo, orderItemRepo,
		carrierClient, converter, ledger, sender, logger,
	)
	orderUC := usecase.NewOrderUsecase(txManager, ledger)

	//Handler生成
	paymentH := handler.NewPaymentHandler(paymentUC)
	shippingH := handler.NewShippingHandler(shippingUC)
	orderH := handler.NewOrderHandler(orderUC)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	e := server.New(cfg, paymentH, shippingH, orderH)
	logger.Info("server starting", zap.String("addr", addr))
	if err := server.Run(ctx, e, addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
