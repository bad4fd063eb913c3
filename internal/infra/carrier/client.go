package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
)

// 配送キャリアAPIのクライアント。
// プロバイダ側の失敗は必ず*ProviderErrorとして値で返し、
// この境界の外へpanicやプロバイダ生エラーを出さない
type Client struct {
	baseURL   string
	apiKey    string
	accountID string
	hc        *http.Client
}

func NewClient(baseURL string, apiKey string, accountID string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		accountID: accountID,
		hc:        &http.Client{Timeout: 10 * time.Second},
	}
}

// プロバイダのエラー封筒から取り出した失敗
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("carrier %d: %s", e.StatusCode, e.Message)
}

type Address struct {
	Name        string `json:"name"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

type Package struct {
	WeightKg float64 `json:"weight_kg"`
	Value    float64 `json:"value"`
}

type CreateShipmentRequest struct {
	Reference string    `json:"reference"`
	Sender    Address   `json:"sender"`
	Recipient Address   `json:"recipient"`
	Packages  []Package `json:"packages"`

	// sender/recipientから導出して送信前に埋める
	CustomsDeclarable bool `json:"customs_declarable"`
}

type Shipment struct {
	ShipmentID        string `json:"shipment_id"`
	TrackingNumber    string `json:"tracking_number"`
	LabelURL          string `json:"label_url"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
}

type Tracking struct {
	TrackingNumber string          `json:"tracking_number"`
	Status         Status          `json:"status"`
	Events         []TrackingEvent `json:"events"`
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
}

type Rate struct {
	Service       string  `json:"service"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days"`
}

func (c *Client) CreateShipment(ctx context.Context, req CreateShipmentRequest) (Shipment, error) {
	req.CustomsDeclarable = customsDeclarable(req.Sender.CountryCode, req.Recipient.CountryCode)

	var out Shipment
	if err := c.do(ctx, http.MethodPost, "/shipments", req, &out); err != nil {
		return Shipment{}, err
	}
	return out, nil
}

type providerTracking struct {
	TrackingNumber string `json:"tracking_number"`
	StatusCode     string `json:"status_code"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Events         []struct {
		Timestamp   time.Time `json:"timestamp"`
		Location    string    `json:"location"`
		Description string    `json:"description"`
		StatusCode  string    `json:"status_code"`
	} `json:"events"`
}

func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (Tracking, error) {
	var body providerTracking
	if err := c.do(ctx, http.MethodGet, "/tracking/"+trackingNumber, nil, &body); err != nil {
		return Tracking{}, err
	}

	events := make([]TrackingEvent, 0, len(body.Events))
	for _, ev := range body.Events {
		events = append(events, TrackingEvent{
			Timestamp:   ev.Timestamp,
			Location:    ev.Location,
			Description: ev.Description,
			Status:      MapProviderStatus(ev.StatusCode),
		})
	}
	//新しい順
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	return Tracking{
		TrackingNumber: body.TrackingNumber,
		Status:         MapProviderStatus(body.StatusCode),
		Events:         events,
		Origin:         body.Origin,
		Destination:    body.Destination,
	}, nil
}

func (c *Client) CancelShipment(ctx context.Context, shipmentID string, reason string) error {
	return c.do(ctx, http.MethodPost, "/shipments/"+shipmentID+"/cancel", map[string]interface{}{
		"reason": reason,
	}, nil)
}

func (c *Client) GetRates(ctx context.Context, origin string, destination string, packages []Package) ([]Rate, error) {
	var out struct {
		Rates []Rate `json:"rates"`
	}
	err := c.do(ctx, http.MethodPost, "/rates", map[string]interface{}{
		"origin_country":      origin,
		"destination_country": destination,
		"packages":            packages,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Rates, nil
}

func (c *Client) ValidateAddress(ctx context.Context, addr Address) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodPost, "/addresses/validate", addr, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &ProviderError{Message: err.Error()}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &ProviderError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	//全呼び出しに荷主アカウントを載せる
	req.Header.Set("X-Account-ID", c.accountID)
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := c.hc.Do(req)
	if err != nil {
		return &ProviderError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return &ProviderError{StatusCode: res.StatusCode, Message: extractErrorMessage(res.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &ProviderError{StatusCode: res.StatusCode, Message: "invalid response body"}
	}
	return nil
}

func extractErrorMessage(body io.Reader) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return "unknown carrier error"
}
