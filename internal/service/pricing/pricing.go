// Package pricing manages market price windows and publishes quotes pulled
// from the external price feed.
package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/profitability"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/pkg/clients/pricefeed"
)

// Input creates a market price.
type Input struct {
	PricePerUnit decimal.Decimal
	StartDate    time.Time
	EndDate      *time.Time
	IsActive     bool
	Region       string
}

// Service manages market prices.
type Service struct {
	runner *txrunner.Runner
	feed   pricefeed.Client
	region string
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the pricing service. feed may be nil when no price feed
// is configured.
func NewService(runner *txrunner.Runner, feed pricefeed.Client, region string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, feed: feed, region: region, logger: logger, now: time.Now}
}

// Create inserts a price row.
func (s *Service) Create(ctx context.Context, in Input) (models.MarketPrice, error) {
	price, err := s.build(in, models.PriceManual)
	if err != nil {
		return models.MarketPrice{}, err
	}
	err = s.runner.Run(ctx, "pricing.create", func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateMarketPrice(ctx, &price)
	})
	if err != nil {
		return models.MarketPrice{}, err
	}
	s.logger.Info("market price created", zap.String("price_id", price.ID), zap.String("price", price.PricePerUnit.String()))
	return price, nil
}

// Get returns one price row.
func (s *Service) Get(ctx context.Context, id string) (models.MarketPrice, error) {
	var price models.MarketPrice
	err := s.runner.Run(ctx, "pricing.get", func(ctx context.Context, tx repository.Tx) error {
		var err error
		price, err = tx.GetMarketPrice(ctx, id)
		return err
	})
	return price, err
}

// List returns price rows, newest start first.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.MarketPrice, error) {
	var prices []models.MarketPrice
	err := s.runner.Run(ctx, "pricing.list", func(ctx context.Context, tx repository.Tx) error {
		var err error
		prices, err = tx.ListMarketPrices(ctx, activeOnly)
		return err
	})
	return prices, err
}

// DeactivateAll clears the active flag of every price row.
func (s *Service) DeactivateAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.runner.Run(ctx, "pricing.deactivate_all", func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = tx.DeactivateAllMarketPrices(ctx, s.now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("market prices deactivated", zap.Int64("count", n))
	return n, nil
}

// Activate makes id the only active price.
func (s *Service) Activate(ctx context.Context, id string) (models.MarketPrice, error) {
	var price models.MarketPrice
	err := s.runner.Run(ctx, "pricing.activate", func(ctx context.Context, tx repository.Tx) error {
		var err error
		price, err = tx.GetMarketPrice(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if _, err := tx.DeactivateAllMarketPrices(ctx, now); err != nil {
			return err
		}
		price.IsActive = true
		price.UpdatedAt = now
		return tx.SaveMarketPrice(ctx, &price)
	})
	if err != nil {
		return models.MarketPrice{}, err
	}
	s.logger.Info("market price activated", zap.String("price_id", id))
	return price, nil
}

// ActiveOn returns the price covering date. Region filters rows when set.
func (s *Service) ActiveOn(ctx context.Context, date time.Time, region string) (models.MarketPrice, error) {
	ref := date.UTC()
	var (
		price models.MarketPrice
		found bool
	)
	err := s.runner.Run(ctx, "pricing.active_on", func(ctx context.Context, tx repository.Tx) error {
		candidates, err := tx.CandidatePrices(ctx, ref)
		if err != nil {
			return err
		}
		if region != "" {
			filtered := candidates[:0]
			for _, p := range candidates {
				if strings.EqualFold(p.Region, region) {
					filtered = append(filtered, p)
				}
			}
			candidates = filtered
		}
		price, found = profitability.SelectActive(candidates, ref)
		return nil
	})
	if err != nil {
		return models.MarketPrice{}, err
	}
	if !found {
		return models.MarketPrice{}, models.NotFound("market_price", ref.Format("2006-01-02"))
	}
	return price, nil
}

// PublishFromFeed replaces the active price with the latest feed quote.
func (s *Service) PublishFromFeed(ctx context.Context) (models.MarketPrice, error) {
	if s.feed == nil {
		return models.MarketPrice{}, models.InvalidState("price_feed", "", "no price feed configured")
	}
	quote, err := s.feed.LatestQuote(ctx, s.region)
	if err != nil {
		return models.MarketPrice{}, err
	}
	return s.Publish(ctx, *quote)
}

// Publish deactivates every price and inserts quote as the active one.
func (s *Service) Publish(ctx context.Context, quote pricefeed.Quote) (models.MarketPrice, error) {
	start := quote.Date
	if start.IsZero() {
		start = s.now()
	}
	price, err := s.build(Input{
		PricePerUnit: quote.PricePerUnit,
		StartDate:    truncateDay(start),
		IsActive:     true,
		Region:       quote.Region,
	}, models.PriceFeed)
	if err != nil {
		return models.MarketPrice{}, err
	}

	err = s.runner.Run(ctx, "pricing.publish", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.DeactivateAllMarketPrices(ctx, price.CreatedAt); err != nil {
			return err
		}
		return tx.CreateMarketPrice(ctx, &price)
	})
	if err != nil {
		return models.MarketPrice{}, err
	}
	s.logger.Info("market price published from feed",
		zap.String("price_id", price.ID),
		zap.String("region", price.Region),
		zap.String("price", price.PricePerUnit.String()))
	return price, nil
}

func (s *Service) build(in Input, source models.PriceSource) (models.MarketPrice, error) {
	switch {
	case !in.PricePerUnit.IsPositive():
		return models.MarketPrice{}, models.Invalid("price_per_unit", "must be greater than zero")
	case in.StartDate.IsZero():
		return models.MarketPrice{}, models.Invalid("start_date", "must be provided")
	case in.EndDate != nil && in.EndDate.Before(in.StartDate):
		return models.MarketPrice{}, models.Invalid("end_date", "must not precede start_date")
	}
	price := models.MarketPrice{
		PricePerUnit: in.PricePerUnit,
		StartDate:    in.StartDate.UTC(),
		IsActive:     in.IsActive,
		Region:       strings.TrimSpace(in.Region),
		Source:       source,
	}
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		price.EndDate = &end
	}
	price.Stamp(s.now().UTC())
	return price, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
