package profitability

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/service/supplies"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/internal/testutil"
)

type fixedCost decimal.Decimal

func (c fixedCost) BatchCost(context.Context, string) (decimal.Decimal, error) {
	return decimal.Decimal(c), nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSelectActivePrefersLatestStartThenID(t *testing.T) {
	ref := testutil.Date(2024, time.March, 15)
	end := testutil.Date(2024, time.March, 1)
	prices := []models.MarketPrice{
		{Base: models.Base{ID: "a"}, StartDate: testutil.Date(2024, time.January, 1), IsActive: true},
		{Base: models.Base{ID: "b"}, StartDate: testutil.Date(2024, time.February, 1), IsActive: true},
		{Base: models.Base{ID: "c"}, StartDate: testutil.Date(2024, time.March, 10), IsActive: false},
		{Base: models.Base{ID: "d"}, StartDate: testutil.Date(2024, time.February, 20), EndDate: &end, IsActive: true},
		{Base: models.Base{ID: "e"}, StartDate: testutil.Date(2024, time.April, 1), IsActive: true},
	}
	got, ok := SelectActive(prices, ref)
	if !ok || got.ID != "b" {
		t.Fatalf("expected b got %+v (found=%v)", got, ok)
	}

	prices = append(prices, models.MarketPrice{Base: models.Base{ID: "z"}, StartDate: testutil.Date(2024, time.February, 1), IsActive: true})
	got, _ = SelectActive(prices, ref)
	if got.ID != "z" {
		t.Fatalf("expected tie broken by highest id, got %s", got.ID)
	}

	if _, ok := SelectActive(prices, testutil.Date(2023, time.December, 1)); ok {
		t.Fatalf("expected no price before any start date")
	}
}

func TestComputeFigures(t *testing.T) {
	h := models.Harvest{Base: models.Base{ID: "h"}, QuantityHarvested: 100, AverageWeight: dec("2")}
	price := models.MarketPrice{Base: models.Base{ID: "p"}, PricePerUnit: dec("3")}

	got := Compute(h, price, dec("450"))
	checks := map[string][2]decimal.Decimal{
		"revenue":    {got.Revenue, dec("600")},
		"net":        {got.NetProfit, dec("150")},
		"margin":     {got.MarginPercent, dec("25")},
		"roi":        {got.ROI, dec("33.33")},
		"cost/kg":    {got.CostPerKg, dec("2.25")},
		"weight":     {got.TotalWeight, dec("200")},
		"price used": {got.PricePerUnit, dec("3")},
	}
	for name, pair := range checks {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("%s: expected %s got %s", name, pair[1], pair[0])
		}
	}

	zero := Compute(h, models.MarketPrice{PricePerUnit: decimal.Zero}, decimal.Zero)
	if !zero.MarginPercent.IsZero() || !zero.ROI.IsZero() || !zero.CostPerKg.IsZero() {
		t.Fatalf("expected zero ratios got %+v", zero)
	}
}

func TestComputeProfitabilityUsesLatestPrice(t *testing.T) {
	store := testutil.NewStore(t)
	runner := txrunner.New(store, txrunner.Options{}, nil)
	svc := NewService(runner, fixedCost(dec("100")), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	batch := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 100)
	h := testutil.SeedHarvest(t, store, batch, 10, "2.5") // harvested Feb 1

	testutil.SeedPrice(t, store, "2.00", testutil.Date(2024, time.January, 1), nil, true)
	latest := testutil.SeedPrice(t, store, "3.00", testutil.Date(2024, time.January, 15), nil, true)
	testutil.SeedPrice(t, store, "9.00", testutil.Date(2024, time.January, 20), nil, false)

	got, err := svc.ComputeProfitability(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a result")
	}
	if got.MarketPriceID != latest.ID {
		t.Fatalf("expected latest price %s got %s", latest.ID, got.MarketPriceID)
	}
	if !got.Revenue.Equal(dec("75")) || !got.NetProfit.Equal(dec("-25")) {
		t.Fatalf("unexpected figures %+v", got)
	}
}

func TestComputeProfitabilityUnavailable(t *testing.T) {
	store := testutil.NewStore(t)
	runner := txrunner.New(store, txrunner.Options{}, nil)
	svc := NewService(runner, supplies.NewService(runner, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	batch := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 100)
	h := testutil.SeedHarvest(t, store, batch, 10, "2.5")

	got, err := svc.ComputeProfitability(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil result for unknown harvest got %+v, %v", got, err)
	}

	expired := testutil.Date(2024, time.January, 10)
	testutil.SeedPrice(t, store, "2.00", testutil.Date(2024, time.January, 1), &expired, true)
	got, err = svc.ComputeProfitability(context.Background(), h.ID)
	if err != nil || got != nil {
		t.Fatalf("expected nil result without covering price got %+v, %v", got, err)
	}

	testutil.SeedPrice(t, store, "4.00", testutil.Date(2024, time.January, 20), nil, true)
	got, err = svc.ComputeProfitability(context.Background(), h.ID)
	if err != nil || got == nil {
		t.Fatalf("expected a result got %+v, %v", got, err)
	}
	if !got.Cost.IsZero() || !got.ROI.IsZero() {
		t.Fatalf("expected zero cost and roi got %+v", got)
	}
}
