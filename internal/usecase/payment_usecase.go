package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"app/internal/currency"
	"app/internal/domain/model"
	"app/internal/infra/payment"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 決済ゲートウェイのうちこのコアが使う操作
type GatewayClient interface {
	CreateCustomer(ctx context.Context, email string) (payment.Customer, error)
	CreateIntent(ctx context.Context, p payment.CreateIntentParams) (payment.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (payment.Intent, error)
	ConfirmIntent(ctx context.Context, intentID string, paymentMethodID string) (payment.Intent, error)
}

// 最低金額（major units）。ゲートウェイの下限に合わせる
const minIntentAmount = 0.50

type PaymentUsecase struct {
	tx            repo.TransactionManager
	users         repo.UserRepository
	ledger        *InventoryLedger
	gateway       GatewayClient
	webhookSecret string
	logger        *zap.Logger
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	ledger *InventoryLedger,
	gateway GatewayClient,
	webhookSecret string,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:            tx,
		users:         users,
		ledger:        ledger,
		gateway:       gateway,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

type CreateIntentInput struct {
	Amount   float64
	Currency string
	OrderID  int64
}

type CreateIntentOutput struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

func (u *PaymentUsecase) CreateIntent(ctx context.Context, userID int64, in CreateIntentInput) (CreateIntentOutput, error) {
	if userID <= 0 {
		return CreateIntentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Amount < minIntentAmount {
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be at least 0.50")
	}
	if !currency.IsSupported(in.Currency) {
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported currency")
	}
	if in.OrderID <= 0 {
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CreateIntentOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return CreateIntentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//ゲートウェイ顧客は初回だけ遅延作成する
	customerID := user.GatewayCustomerID
	if customerID == "" {
		cust, err := u.gateway.CreateCustomer(ctx, user.Email)
		if err != nil {
			u.logger.Error("gateway customer create failed", zap.Int64("user_id", userID), zap.Error(err))
			return CreateIntentOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
		}
		customerID = cust.ID
		if err := u.users.UpdateGatewayCustomerID(ctx, userID, customerID); err != nil {
			return CreateIntentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	intent, err := u.gateway.CreateIntent(ctx, payment.CreateIntentParams{
		Amount:     toMinorUnits(in.Amount),
		Currency:   in.Currency,
		CustomerID: customerID,
		Metadata: map[string]string{
			"user_id":  strconv.FormatInt(userID, 10),
			"order_id": strconv.FormatInt(in.OrderID, 10),
		},
	})
	if err != nil {
		u.logger.Error("gateway intent create failed", zap.Int64("order_id", in.OrderID), zap.Error(err))
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Intents().Create(ctx, model.PaymentIntentRecord{
			ExternalID: intent.ID,
			OrderID:    in.OrderID,
			UserID:     userID,
			Amount:     in.Amount,
			Currency:   in.Currency,
			Status:     intent.Status,
		})
	})
	if err != nil {
		return CreateIntentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CreateIntentOutput{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

type ConfirmInput struct {
	PaymentIntentID string
	PaymentMethodID string
	OrderID         int64
}

type ConfirmOutput struct {
	Status string `json:"status"`
}

func (u *PaymentUsecase) Confirm(ctx context.Context, userID int64, in ConfirmInput) (ConfirmOutput, error) {
	if userID <= 0 {
		return ConfirmOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.PaymentIntentID == "" {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_intent_id")
	}

	intent, err := u.gateway.RetrieveIntent(ctx, in.PaymentIntentID)
	if err != nil {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	//intentの所有者チェック
	if intent.Metadata["user_id"] != strconv.FormatInt(userID, 10) {
		return ConfirmOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	//payment methodが来ていればゲートウェイで確定、なければ現状を返す
	if in.PaymentMethodID != "" {
		intent, err = u.gateway.ConfirmIntent(ctx, in.PaymentIntentID, in.PaymentMethodID)
		if err != nil {
			return ConfirmOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
		}
	}

	if intent.Status == "succeeded" && in.OrderID > 0 {
		err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			o, err := r.Orders().FindByIDForUpdate(ctx, in.OrderID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//すでにPAIDならno-op（webhookが先に処理したケース）
			if o.PaymentStatus == model.PaymentStatusPaid {
				return nil
			}
			if err := r.Orders().UpdatePaymentStatus(ctx, in.OrderID, model.PaymentStatusPaid); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return nil
		})
		if err != nil {
			return ConfirmOutput{}, err
		}
	}

	return ConfirmOutput{Status: intent.Status}, nil
}

// webhook処理。署名NGなら状態を一切変えずに400（ゲートウェイが再配送する）。
// イベントIDの重複はno-opで200。状態変更とイベント記録は同一トランザクション
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !payment.VerifySignature(rawBody, signature, u.webhookSecret) {
		//ユーザーには出さずローカルで処理するだけ
		u.logger.Warn("webhook signature verification failed")
		return NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	ev, err := payment.ParseEvent(rawBody)
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, "malformed event")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		processed, err := r.Events().Exists(ctx, ev.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if processed {
			//再配送。最初の処理以上のことはしない
			return nil
		}

		switch ev.Type {
		case payment.EventIntentSucceeded:
			if err := u.applySucceeded(ctx, r, ev); err != nil {
				return err
			}
		case payment.EventIntentFailed:
			if err := u.applyFailed(ctx, r, ev); err != nil {
				return err
			}
		default:
			//未知のイベントはログしてACK
			u.logger.Info("unhandled webhook event type",
				zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		}

		return r.Events().Create(ctx, model.WebhookEvent{EventID: ev.ID, Type: ev.Type})
	})

	if err != nil {
		if he, ok := AsHTTPError(err); ok && he.Status == http.StatusInternalServerError {
			//支払い済みで予約だけ失敗したケースはここに来る。絶対に握りつぶさない
			u.logger.Error("webhook processing failed, transaction rolled back",
				zap.String("event_id", ev.ID), zap.String("type", ev.Type), zap.Error(err))
		}
		return err
	}
	return nil
}

// payment_intent.succeeded:
// 注文行をロック → CONFIRMED/PAID → 全明細を予約。1件でも失敗したら全部巻き戻す。
// 支払済みフラグでは弾かない（Confirmが先にPAIDにしたケースでも予約はここで行う）。
// 重複はイベントIDのdedupとledger側の冪等性で吸収する
func (u *PaymentUsecase) applySucceeded(ctx context.Context, r repo.TxRepos, ev payment.Event) error {
	orderID, ok := orderIDFromEvent(ev)
	if !ok {
		u.logger.Warn("succeeded event without order metadata", zap.String("event_id", ev.ID))
		return nil
	}

	o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		u.logger.Warn("succeeded event for unknown order",
			zap.String("event_id", ev.ID), zap.Int64("order_id", orderID))
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//CANCELEDは終端。復活させず、支払済みの事実だけ記録して返金調整に回す
	if o.Status == model.OrderStatusCanceled {
		if o.PaymentStatus != model.PaymentStatusPaid {
			u.logger.Warn("succeeded event for canceled order, recording payment for refund reconciliation",
				zap.String("event_id", ev.ID), zap.Int64("order_id", orderID))
			if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusPaid); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		if err := r.Intents().UpdateStatus(ctx, ev.Data.Object.ID, "succeeded"); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	}

	//PENDINGからだけ進める。SHIPPED/DELIVEREDをCONFIRMEDへ巻き戻さない
	if o.Status == model.OrderStatusPending {
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusConfirmed); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	if o.PaymentStatus != model.PaymentStatusPaid {
		if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusPaid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	for _, it := range items {
		if err := u.ledger.Reserve(ctx, r, it.VariantID, it.Quantity, orderID); err != nil {
			//支払いは受領済みなのに予約できない＝要調整の状態。
			//ロールバックしてエラーを表に出す
			u.logger.Error("reservation failed for paid order",
				zap.Int64("order_id", orderID), zap.Int64("variant_id", it.VariantID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "reservation failed")
		}
	}

	if err := r.Intents().UpdateStatus(ctx, ev.Data.Object.ID, "succeeded"); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// payment_intent.payment_failed: 支払状態だけFAILEDへ。在庫には触らない
func (u *PaymentUsecase) applyFailed(ctx context.Context, r repo.TxRepos, ev payment.Event) error {
	orderID, ok := orderIDFromEvent(ev)
	if !ok {
		u.logger.Warn("failed event without order metadata", zap.String("event_id", ev.ID))
		return nil
	}

	o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//遷移できるのはUNPAID→FAILEDだけ。
	//順序が入れ替わって届いた失敗イベントでPAIDを降格させない
	if o.PaymentStatus != model.PaymentStatusUnpaid {
		u.logger.Info("ignoring failed event for non-unpaid order",
			zap.Int64("order_id", orderID), zap.String("payment_status", string(o.PaymentStatus)))
		return nil
	}

	reason := "unknown"
	if ev.Data.Object.LastPaymentError != nil {
		reason = ev.Data.Object.LastPaymentError.Message
	}
	u.logger.Info("payment failed",
		zap.Int64("order_id", orderID), zap.String("reason", reason))

	if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusFailed); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := r.Intents().UpdateStatus(ctx, ev.Data.Object.ID, "payment_failed"); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func orderIDFromEvent(ev payment.Event) (int64, bool) {
	raw, ok := ev.Data.Object.Metadata["order_id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
