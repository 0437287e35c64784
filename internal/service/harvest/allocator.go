// Package harvest splits a harvest request across the live batches of a coop
// and records one harvest per batch touched.
package harvest

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

const dateLayout = "2006-01-02"

// Request is a caller-level harvest. The split fields are only read by the
// manual-split mode.
type Request struct {
	CoopID        string
	HarvestDate   time.Time
	Mode          models.HarvestMode
	TotalQuantity int
	AverageWeight decimal.Decimal

	QuantityFromOld int
	QuantityFromNew int
	OldBatchID      string
	NewBatchID      string
}

// Allocator records harvests through the strategy matching the request mode.
type Allocator struct {
	runner     *txrunner.Runner
	strategies map[models.HarvestMode]Strategy
	logger     *zap.Logger
	now        func() time.Time
}

// NewAllocator wires an allocator with the FIFO and manual-split strategies.
func NewAllocator(runner *txrunner.Runner, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Allocator{
		runner:     runner,
		strategies: make(map[models.HarvestMode]Strategy),
		logger:     logger,
		now:        time.Now,
	}
	a.Register(FIFO{})
	a.Register(ManualSplit{})
	return a
}

// Register adds or replaces the strategy for its mode.
func (a *Allocator) Register(s Strategy) {
	a.strategies[s.Mode()] = s
}

// Allocate records the request. Either every per-batch harvest is written
// or none is. Records come back in allocation order.
func (a *Allocator) Allocate(ctx context.Context, req Request) ([]models.Harvest, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	strategy, ok := a.strategies[req.Mode]
	if !ok {
		return nil, models.Invalid("mode", "unsupported harvest mode %q", req.Mode)
	}

	var records []models.Harvest
	err := a.runner.Run(ctx, "harvest.allocate", func(ctx context.Context, tx repository.Tx) error {
		records = nil
		if _, err := tx.GetCoop(ctx, req.CoopID); err != nil {
			return err
		}
		batches, err := tx.ListCoopBatches(ctx, req.CoopID, true)
		if err != nil {
			return err
		}
		ids := make([]string, len(batches))
		for i, b := range batches {
			ids[i] = b.ID
		}
		mv, err := tx.BatchMovements(ctx, ids)
		if err != nil {
			return err
		}
		pool := Pool{CoopID: req.CoopID, Batches: batches, Live: ledger.LiveBatches(batches, mv)}

		allocations, err := strategy.Allocate(pool, req)
		if err != nil {
			return err
		}
		harvestDay := req.HarvestDate.UTC()
		for _, alloc := range allocations {
			if alloc.Batch.EntryDate.After(harvestDay) {
				return models.Invalid("harvest_date", "harvest on %s precedes entry of batch %s on %s",
					harvestDay.Format(dateLayout), alloc.Batch.ID, alloc.Batch.EntryDate.Format(dateLayout))
			}
		}

		now := a.now().UTC()
		group := models.NewID()
		for _, alloc := range allocations {
			h := models.Harvest{
				BatchID:           alloc.Batch.ID,
				CoopID:            req.CoopID,
				HarvestDate:       req.HarvestDate.UTC(),
				QuantityHarvested: alloc.Quantity,
				AverageWeight:     req.AverageWeight,
				AllocationGroup:   group,
				Mode:              req.Mode,
			}
			h.Stamp(now)
			if err := tx.CreateHarvest(ctx, &h); err != nil {
				return err
			}
			if err := tx.TouchBatch(ctx, alloc.Batch.ID, alloc.Batch.Version); err != nil {
				return err
			}
			records = append(records, h)
		}
		return nil
	})
	if err != nil {
		a.logger.Debug("harvest rejected",
			zap.String("coop_id", req.CoopID),
			zap.String("mode", string(req.Mode)),
			zap.Int("quantity", req.TotalQuantity),
			zap.Error(err))
		return nil, err
	}

	a.logger.Info("harvest allocated",
		zap.String("coop_id", req.CoopID),
		zap.String("mode", string(req.Mode)),
		zap.Int("quantity", req.TotalQuantity),
		zap.Int("records", len(records)))
	return records, nil
}

// Get returns one harvest record.
func (a *Allocator) Get(ctx context.Context, id string) (models.Harvest, error) {
	var h models.Harvest
	err := a.runner.Run(ctx, "harvest.get", func(ctx context.Context, tx repository.Tx) error {
		var err error
		h, err = tx.GetHarvest(ctx, id)
		return err
	})
	return h, err
}

func validate(req Request) error {
	switch {
	case req.CoopID == "":
		return models.Invalid("coop_id", "must be provided")
	case req.HarvestDate.IsZero():
		return models.Invalid("harvest_date", "must be provided")
	case req.TotalQuantity <= 0:
		return models.Invalid("total_quantity", "must be greater than zero")
	case !req.AverageWeight.IsPositive():
		return models.Invalid("average_weight", "must be greater than zero")
	}
	return nil
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
