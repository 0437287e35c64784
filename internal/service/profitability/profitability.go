// Package profitability prices a harvest record with the market price active
// on its harvest date and sets it against the cost of its batch.
package profitability

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// CostProvider returns the lifetime cost attributed to a batch.
type CostProvider interface {
	BatchCost(ctx context.Context, batchID string) (decimal.Decimal, error)
}

// SelectActive picks the price covering ref: latest start date first, then
// highest id. It returns false when nothing covers ref.
func SelectActive(prices []models.MarketPrice, ref time.Time) (models.MarketPrice, bool) {
	var best models.MarketPrice
	found := false
	for _, p := range prices {
		if !p.Covers(ref) {
			continue
		}
		if !found || p.StartDate.After(best.StartDate) || (p.StartDate.Equal(best.StartDate) && p.ID > best.ID) {
			best = p
			found = true
		}
	}
	return best, found
}

// Compute derives the profitability figures of one harvest.
func Compute(h models.Harvest, price models.MarketPrice, cost decimal.Decimal) models.Profitability {
	weight := decimal.NewFromInt(int64(h.QuantityHarvested)).Mul(h.AverageWeight)
	revenue := weight.Mul(price.PricePerUnit)
	net := revenue.Sub(cost)

	out := models.Profitability{
		HarvestID:     h.ID,
		MarketPriceID: price.ID,
		PricePerUnit:  price.PricePerUnit,
		TotalWeight:   weight,
		Revenue:       revenue.Round(moneyPlaces),
		Cost:          cost.Round(moneyPlaces),
		NetProfit:     net.Round(moneyPlaces),
		MarginPercent: decimal.Zero,
		ROI:           decimal.Zero,
		CostPerKg:     decimal.Zero,
	}
	if !revenue.IsZero() {
		out.MarginPercent = net.Div(revenue).Mul(hundred).Round(moneyPlaces)
	}
	if !cost.IsZero() {
		out.ROI = net.Div(cost).Mul(hundred).Round(moneyPlaces)
	}
	if !weight.IsZero() {
		out.CostPerKg = cost.Div(weight).Round(moneyPlaces)
	}
	return out
}

// Service is the profitability calculator.
type Service struct {
	runner *txrunner.Runner
	costs  CostProvider
	logger *zap.Logger
}

// NewService wires a calculator over a cost provider.
func NewService(runner *txrunner.Runner, costs CostProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, costs: costs, logger: logger}
}

// ComputeProfitability returns nil without error when the harvest is unknown
// or no active price covers its date.
func (s *Service) ComputeProfitability(ctx context.Context, harvestID string) (*models.Profitability, error) {
	var (
		harvest models.Harvest
		price   models.MarketPrice
		priced  bool
	)
	err := s.runner.Run(ctx, "profitability.compute", func(ctx context.Context, tx repository.Tx) error {
		var err error
		harvest, err = tx.GetHarvest(ctx, harvestID)
		if err != nil {
			return err
		}
		candidates, err := tx.CandidatePrices(ctx, harvest.HarvestDate)
		if err != nil {
			return err
		}
		price, priced = SelectActive(candidates, harvest.HarvestDate)
		return nil
	})
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug("profitability unavailable: harvest not found", zap.String("harvest_id", harvestID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !priced {
		s.logger.Debug("profitability unavailable: no active price",
			zap.String("harvest_id", harvestID),
			zap.Time("harvest_date", harvest.HarvestDate))
		return nil, nil
	}

	cost := decimal.Zero
	if s.costs != nil {
		cost, err = s.costs.BatchCost(ctx, harvest.BatchID)
		if err != nil {
			return nil, err
		}
	}

	out := Compute(harvest, price, cost)
	return &out, nil
}
