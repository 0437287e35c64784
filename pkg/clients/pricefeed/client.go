package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/kandang/internal/config"
)

// Client exposes the market price feed operations used by the application.
type Client interface {
	LatestQuote(ctx context.Context, region string) (*Quote, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a price feed client using the provided configuration values.
func NewClient(cfg config.PriceFeedConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{httpClient: restyClient}
}

// Quote is a live-bird price per kilogram published by the feed.
type Quote struct {
	Region       string          `json:"region"`
	PricePerUnit decimal.Decimal `json:"price_per_kg"`
	Date         time.Time       `json:"date"`
}

// apiError represents a feed error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *APIClient) LatestQuote(ctx context.Context, region string) (*Quote, error) {
	result := new(Quote)
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if region != "" {
		req.SetQueryParam("region", region)
	}

	resp, err := req.Get("/quotes/latest")
	if err != nil {
		return nil, fmt.Errorf("fetch price quote: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		code := resp.StatusCode()
		message := apiErr.Error.Message
		if apiErr.Error.Code != 0 {
			code = apiErr.Error.Code
		}
		return nil, fmt.Errorf("price feed error: code=%d, message=%s", code, message)
	}

	if result.Region == "" {
		result.Region = region
	}
	return result, nil
}
