package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"app/internal/currency"
	"app/internal/domain/model"
	"app/internal/infra/carrier"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// キャリアAPIのうちこのコアが使う操作
type CarrierClient interface {
	CreateShipment(ctx context.Context, req carrier.CreateShipmentRequest) (carrier.Shipment, error)
	TrackShipment(ctx context.Context, trackingNumber string) (carrier.Tracking, error)
	CancelShipment(ctx context.Context, shipmentID string, reason string) error
	GetRates(ctx context.Context, origin string, destination string, packages []carrier.Package) ([]carrier.Rate, error)
}

type ShippingUsecase struct {
	tx         repo.TransactionManager
	zones      repo.ShippingZoneRepository
	variants   repo.VariantRepository
	products   repo.ProductRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carrier    CarrierClient
	converter  *currency.Converter
	ledger     *InventoryLedger
	sender     carrier.Address
	logger     *zap.Logger
}

func NewShippingUsecase(
	tx repo.TransactionManager,
	zones repo.ShippingZoneRepository,
	variants repo.VariantRepository,
	products repo.ProductRepository,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	carrierClient CarrierClient,
	converter *currency.Converter,
	ledger *InventoryLedger,
	sender carrier.Address,
	logger *zap.Logger,
) *ShippingUsecase {
	return &ShippingUsecase{
		tx:         tx,
		zones:      zones,
		variants:   variants,
		products:   products,
		orders:     orders,
		orderItems: orderItems,
		carrier:    carrierClient,
		converter:  converter,
		ledger:     ledger,
		sender:     sender,
		logger:     logger,
	}
}

type QuoteItemInput struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
}

type QuoteInput struct {
	DestinationCountry string
	Currency           string
	Items              []QuoteItemInput
}

type EstimatedDays struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type QuoteOutput struct {
	Currency            string         `json:"currency"`
	ItemValue           float64        `json:"item_value"`
	BaseCost            float64        `json:"base_cost"`
	WeightCost          float64        `json:"weight_cost"`
	TotalCost           float64        `json:"total_cost"`
	FreeShippingApplied bool           `json:"free_shipping_applied"`
	EstimatedDays       EstimatedDays  `json:"estimated_days"`
	TaxRate             float64        `json:"tax_rate"`
	TaxAmount           float64        `json:"tax_amount"`
	CarrierRates        []carrier.Rate `json:"carrier_rates"`
}

// 配送見積もり。ゾーンの基本料金＋重量課金を軸に、
// キャリアのライブレートは取れたら添える（失敗は見積もりを止めない）
func (u *ShippingUsecase) Quote(ctx context.Context, in QuoteInput) (QuoteOutput, error) {
	if len(in.DestinationCountry) != 2 {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid destination_country")
	}
	if len(in.Items) == 0 {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	outCurrency := in.Currency
	if outCurrency == "" {
		outCurrency = currency.BaseCurrency
	}
	if !currency.IsSupported(outCurrency) {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported currency")
	}

	//重量と商品価額を合算。重量はvariant、なければproductの値を使う
	var totalWeight, itemValue float64
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		v, err := u.variants.FindByID(ctx, it.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return QuoteOutput{}, NewHTTPError(http.StatusNotFound, "variant not found")
		}
		if err != nil {
			return QuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		weight := v.WeightKg
		if weight == 0 {
			p, err := u.products.FindByID(ctx, v.ProductID)
			if err == nil {
				weight = p.WeightKg
			}
		}

		totalWeight += weight * float64(it.Quantity)
		itemValue += v.Price * float64(it.Quantity)
	}

	zone, err := u.resolveZone(ctx, in.DestinationCountry)
	if err != nil {
		return QuoteOutput{}, err
	}

	baseCost := zone.BaseRate
	weightCost := currency.Round2(totalWeight * zone.PerKgRate)
	totalCost := currency.Round2(baseCost + weightCost)

	//しきい値ちょうどは無料側に倒す
	free := itemValue >= zone.FreeShippingThreshold
	if free {
		totalCost = 0
	}

	taxRate, taxAmount := u.converter.CalculateTax(itemValue, in.DestinationCountry)

	out := QuoteOutput{
		Currency:            outCurrency,
		ItemValue:           currency.Round2(itemValue),
		BaseCost:            baseCost,
		WeightCost:          weightCost,
		TotalCost:           totalCost,
		FreeShippingApplied: free,
		EstimatedDays:       EstimatedDays{Min: zone.EstimatedDaysMin, Max: zone.EstimatedDaysMax},
		TaxRate:             taxRate,
		TaxAmount:           taxAmount,
		CarrierRates:        []carrier.Rate{},
	}

	//別通貨が指定されていれば金額を変換する
	if outCurrency != currency.BaseCurrency {
		for _, f := range []*float64{&out.ItemValue, &out.BaseCost, &out.WeightCost, &out.TotalCost, &out.TaxAmount} {
			converted, err := u.converter.Convert(ctx, *f, currency.BaseCurrency, outCurrency)
			if err != nil {
				return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported currency")
			}
			*f = converted
		}
	}

	//キャリアのレート比較はおまけ。失敗は空リストに落とすだけ
	rates, err := u.carrier.GetRates(ctx, u.sender.CountryCode, in.DestinationCountry, []carrier.Package{
		{WeightKg: totalWeight, Value: itemValue},
	})
	if err != nil {
		u.logger.Warn("carrier rate lookup failed, continuing with zone quote",
			zap.String("destination", in.DestinationCountry), zap.Error(err))
	} else {
		out.CarrierRates = rates
	}

	return out, nil
}

// 宛先国を含むアクティブなゾーンを選ぶ。複数あればbase_rateが最安のもの
func (u *ShippingUsecase) resolveZone(ctx context.Context, country string) (model.ShippingZone, error) {
	zones, err := u.zones.ListActive(ctx)
	if err != nil {
		return model.ShippingZone{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var found *model.ShippingZone
	for i := range zones {
		z := zones[i]
		if !z.ContainsCountry(country) {
			continue
		}
		if found == nil || z.BaseRate < found.BaseRate {
			found = &z
		}
	}
	if found == nil {
		return model.ShippingZone{}, NewHTTPError(http.StatusNotFound, "shipping unavailable for destination")
	}
	return *found, nil
}

type CreateShipmentInput struct {
	OrderID   int64
	Recipient carrier.Address
}

type CreateShipmentOutput struct {
	OrderID           int64  `json:"order_id"`
	ShipmentID        string `json:"shipment_id"`
	TrackingNumber    string `json:"tracking_number"`
	LabelURL          string `json:"label_url"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

// 出荷作成。キャリア呼び出しはDBトランザクションの外で先に済ませ、
// 成功したらCONFIRMED→SHIPPEDと予約の出荷確定を1トランザクションで行う
func (u *ShippingUsecase) CreateShipment(ctx context.Context, in CreateShipmentInput) (CreateShipmentOutput, error) {
	if in.OrderID <= 0 {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	if in.Recipient.CountryCode == "" {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusBadRequest, "recipient required")
	}

	o, err := u.orders.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.Status != model.OrderStatusConfirmed {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusConflict, "order is not confirmed")
	}
	if o.PaymentStatus != model.PaymentStatusPaid {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusConflict, "order is not paid")
	}

	items, err := u.orderItems.ListByOrderID(ctx, in.OrderID)
	if err != nil {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CreateShipmentOutput{}, NewHTTPError(http.StatusConflict, "order has no items")
	}

	packages := make([]carrier.Package, 0, len(items))
	for _, it := range items {
		weight := 0.0
		if v, err := u.variants.FindByID(ctx, it.VariantID); err == nil {
			weight = v.WeightKg
		}
		packages = append(packages, carrier.Package{
			WeightKg: weight * float64(it.Quantity),
			Value:    it.UnitPrice * float64(it.Quantity),
		})
	}

	//外部呼び出しはここまで。以降はDBだけ
	shipment, err := u.carrier.CreateShipment(ctx, carrier.CreateShipmentRequest{
		Reference: fmt.Sprintf("order-%d", in.OrderID),
		Sender:    u.sender,
		Recipient: in.Recipient,
		Packages:  packages,
	})
	if err != nil {
		u.logger.Error("carrier shipment create failed", zap.Int64("order_id", in.OrderID), zap.Error(err))
		return CreateShipmentOutput{}, NewHTTPError(http.StatusBadGateway, "carrier error")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.Orders().FindByIDForUpdate(ctx, in.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//並行して出荷済みになっていたら二重出荷にしない
		if locked.Status != model.OrderStatusConfirmed {
			return NewHTTPError(http.StatusConflict, "order already shipped")
		}

		if err := r.Orders().UpdateShipment(ctx, in.OrderID, shipment.ShipmentID, shipment.TrackingNumber); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, in.OrderID, model.OrderStatusShipped); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, it := range items {
			if err := u.ledger.Fulfill(ctx, r, it.VariantID, it.Quantity, in.OrderID); err != nil {
				u.logger.Error("fulfill failed for shipped order",
					zap.Int64("order_id", in.OrderID), zap.Int64("variant_id", it.VariantID), zap.Error(err))
				return NewHTTPError(http.StatusInternalServerError, "fulfillment failed")
			}
		}
		return nil
	})
	if err != nil {
		//DB側が巻き戻ったので作ったラベルは取り消しておく
		if cancelErr := u.carrier.CancelShipment(ctx, shipment.ShipmentID, "order transition failed"); cancelErr != nil {
			u.logger.Warn("shipment cancel after rollback failed",
				zap.String("shipment_id", shipment.ShipmentID), zap.Error(cancelErr))
		}
		return CreateShipmentOutput{}, err
	}

	return CreateShipmentOutput{
		OrderID:           in.OrderID,
		ShipmentID:        shipment.ShipmentID,
		TrackingNumber:    shipment.TrackingNumber,
		LabelURL:          shipment.LabelURL,
		EstimatedDelivery: shipment.EstimatedDelivery,
	}, nil
}

type TrackOutput struct {
	TrackingNumber string                  `json:"tracking_number"`
	Status         carrier.Status          `json:"status"`
	Origin         string                  `json:"origin"`
	Destination    string                  `json:"destination"`
	Events         []carrier.TrackingEvent `json:"events"`
}

// 追跡照会。deliveredが返ってきたらSHIPPEDの注文をDELIVEREDへ進める
func (u *ShippingUsecase) Track(ctx context.Context, trackingNumber string) (TrackOutput, error) {
	if trackingNumber == "" {
		return TrackOutput{}, NewHTTPError(http.StatusBadRequest, "invalid tracking number")
	}

	tracking, err := u.carrier.TrackShipment(ctx, trackingNumber)
	if err != nil {
		return TrackOutput{}, NewHTTPError(http.StatusBadGateway, "carrier error")
	}

	if tracking.Status == carrier.StatusDelivered {
		if err := u.markDelivered(ctx, trackingNumber); err != nil {
			//追跡結果は返せるので配達済みへの遷移失敗はログに留める
			u.logger.Error("mark delivered failed",
				zap.String("tracking_number", trackingNumber), zap.Error(err))
		}
	}

	return TrackOutput{
		TrackingNumber: tracking.TrackingNumber,
		Status:         tracking.Status,
		Origin:         tracking.Origin,
		Destination:    tracking.Destination,
		Events:         tracking.Events,
	}, nil
}

func (u *ShippingUsecase) markDelivered(ctx context.Context, trackingNumber string) error {
	o, err := u.orders.FindByTrackingNumber(ctx, trackingNumber)
	if errors.Is(err, repo.ErrNotFound) {
		//このコアが作った出荷でなければ何もしない
		return nil
	}
	if err != nil {
		return err
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.Orders().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.OrderStatusShipped {
			return nil
		}
		return r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusDelivered)
	})
}
