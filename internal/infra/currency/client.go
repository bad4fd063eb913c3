package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// 為替レートプロバイダのHTTPクライアント。
// GET /latest/{base} でレート表を返すAPIを想定する
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{},
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) FetchLatest(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/latest/%s", c.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("currency api returned %d", res.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("currency api returned empty rates for %s", base)
	}

	return body.Rates, nil
}
