package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// 決済ゲートウェイのREST APIクライアント。
// 金額はゲートウェイ流儀のminor units（セント）で受け渡す
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// ゲートウェイのエラー封筒から取り出した失敗
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %d: %s", e.StatusCode, e.Message)
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type IntentError struct {
	Message string `json:"message"`
}

type Intent struct {
	ID               string            `json:"id"`
	ClientSecret     string            `json:"client_secret"`
	Status           string            `json:"status"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	CustomerID       string            `json:"customer"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *IntentError      `json:"last_payment_error,omitempty"`
}

type PaymentMethod struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

func (c *Client) CreateCustomer(ctx context.Context, email string) (Customer, error) {
	var out Customer
	err := c.do(ctx, http.MethodPost, "/v1/customers", map[string]interface{}{
		"email": email,
	}, &out, false)
	return out, err
}

type CreateIntentParams struct {
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	CustomerID string            `json:"customer"`
	Metadata   map[string]string `json:"metadata"`
}

func (c *Client) CreateIntent(ctx context.Context, p CreateIntentParams) (Intent, error) {
	var out Intent
	err := c.do(ctx, http.MethodPost, "/v1/payment_intents", p, &out, true)
	return out, err
}

func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (Intent, error) {
	var out Intent
	err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+intentID, nil, &out, false)
	return out, err
}

func (c *Client) ConfirmIntent(ctx context.Context, intentID string, paymentMethodID string) (Intent, error) {
	var out Intent
	err := c.do(ctx, http.MethodPost, "/v1/payment_intents/"+intentID+"/confirm", map[string]interface{}{
		"payment_method": paymentMethodID,
	}, &out, true)
	return out, err
}

func (c *Client) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	var out struct {
		Data []PaymentMethod `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/customers/"+customerID+"/payment_methods", nil, &out, false)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	return c.do(ctx, http.MethodPost, "/v1/payment_methods/"+paymentMethodID+"/detach", nil, nil, false)
}

// 書き込み系にはIdempotency-Keyを付けて二重実行を防ぐ
func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}, idempotent bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return &GatewayError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return &GatewayError{StatusCode: res.StatusCode, Message: extractErrorMessage(res.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &GatewayError{StatusCode: res.StatusCode, Message: "invalid response body"}
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
	return "unknown gateway error"
}
