// Package capacity answers how many birds a coop can still take and builds
// the availability result shared by coop, feed and vaccine stock checks.
package capacity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

const periodLayout = "2006-01"

// Line identifies which stock an availability answer is about.
type Line int

const (
	LineCoop Line = iota
	LineFeed
	LineVaccine
)

// Evaluate compares a request against current stock. Coops that are merely
// short ask the caller to reduce; a full coop needs a forced intake. Supply
// lines always recommend restocking.
func Evaluate(line Line, current, requested decimal.Decimal) models.StockAvailability {
	out := models.StockAvailability{
		IsAvailable:    requested.LessThanOrEqual(current),
		Recommendation: models.RecommendOK,
		CurrentStock:   current,
		Requested:      requested,
	}
	if out.IsAvailable {
		return out
	}
	switch line {
	case LineCoop:
		if current.IsPositive() {
			out.Recommendation = models.RecommendReduceQuantity
		} else {
			out.Recommendation = models.RecommendForceRequired
		}
	default:
		out.Recommendation = models.RecommendRestock
	}
	return out
}

// Compute builds the capacity answer of coop from its live batches.
func Compute(coop models.Coop, live []models.LiveBatch, planned time.Time) models.CoopCapacity {
	current := ledger.Occupancy(live)
	out := models.CoopCapacity{
		CoopID:           coop.ID,
		PlannedEntryDate: planned,
		Capacity:         coop.Capacity,
		CurrentLive:      current,
		Available:        max(0, coop.Capacity-current),
	}
	// live is oldest first, so the first remainder hit is the oldest one.
	for _, lb := range live {
		if lb.Batch.IsRemainder {
			out.HasRemainderFromPrevious = true
			out.RemainderPeriod = lb.Batch.EntryDate.UTC().Format(periodLayout)
			break
		}
	}
	return out
}

// Service runs capacity queries.
type Service struct {
	runner *txrunner.Runner
	logger *zap.Logger
}

// NewService wires a capacity checker.
func NewService(runner *txrunner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger}
}

// CheckCapacity reports the present occupancy of a coop. It is advisory:
// intake and relocation re-check inside their own transaction.
func (s *Service) CheckCapacity(ctx context.Context, coopID string, plannedEntryDate time.Time) (models.CoopCapacity, error) {
	var out models.CoopCapacity
	err := s.runner.Run(ctx, "capacity.check", func(ctx context.Context, tx repository.Tx) error {
		coop, err := tx.GetCoop(ctx, coopID)
		if err != nil {
			return err
		}
		live, err := ledger.CoopLive(ctx, tx, coopID, false)
		if err != nil {
			return err
		}
		out = Compute(coop, live, plannedEntryDate.UTC())
		return nil
	})
	if err != nil {
		return models.CoopCapacity{}, err
	}
	s.logger.Debug("capacity checked",
		zap.String("coop_id", coopID),
		zap.Int("current_live", out.CurrentLive),
		zap.Int("available", out.Available))
	return out, nil
}

// CheckIntake evaluates a planned intake of quantity birds against the coop.
func (s *Service) CheckIntake(ctx context.Context, coopID string, plannedEntryDate time.Time, quantity int) (models.StockAvailability, error) {
	c, err := s.CheckCapacity(ctx, coopID, plannedEntryDate)
	if err != nil {
		return models.StockAvailability{}, err
	}
	return Evaluate(LineCoop, decimal.NewFromInt(int64(c.Available)), decimal.NewFromInt(int64(quantity))), nil
}
