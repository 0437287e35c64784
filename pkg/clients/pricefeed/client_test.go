package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/kandang/internal/config"
)

func TestLatestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quotes/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("region") != "west" {
			t.Errorf("missing region query")
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price_per_kg":"21500.50","date":"2024-03-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewClient(config.PriceFeedConfig{BaseURL: srv.URL + "/", Token: "secret"})
	q, err := c.LatestQuote(context.Background(), "west")
	if err != nil {
		t.Fatalf("latest quote: %v", err)
	}
	if !q.PricePerUnit.Equal(decimal.RequireFromString("21500.50")) {
		t.Fatalf("unexpected price %s", q.PricePerUnit)
	}
	if q.Region != "west" || q.Date.Day() != 1 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestLatestQuoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"maintenance","code":503}}`))
	}))
	defer srv.Close()

	c := NewClient(config.PriceFeedConfig{BaseURL: srv.URL})
	_, err := c.LatestQuote(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "maintenance") {
		t.Fatalf("expected feed error got %v", err)
	}
}
