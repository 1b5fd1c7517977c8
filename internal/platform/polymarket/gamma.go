package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GammaClient is the REST client for the Polymarket Gamma Markets API,
// used for market metadata lookups.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma Markets API client.
//
// baseURL is the API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetMarket fetches metadata for a single market by its condition ID.
func (g *GammaClient) GetMarket(ctx context.Context, conditionID string) (MarketInfo, error) {
	path := "/markets?condition_ids=" + url.QueryEscape(conditionID)

	body, err := g.doGet(ctx, path)
	if err != nil {
		return MarketInfo{}, fmt.Errorf("polymarket/gamma: get market %s: %w", conditionID, err)
	}

	var markets []APIMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return MarketInfo{}, fmt.Errorf("polymarket/gamma: decode market %s: %w", conditionID, err)
	}
	if len(markets) == 0 {
		return MarketInfo{}, fmt.Errorf("polymarket/gamma: market %s: not found", conditionID)
	}

	return markets[0].ToMarketInfo(), nil
}

// doGet performs a GET request against the Gamma API and returns the raw
// response body.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
