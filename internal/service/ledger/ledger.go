// Package ledger derives live stock of batches from their intake and the
// harvest, mortality and relocation events recorded against them.
package ledger

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

// Derive computes the stock view of a batch. Live is floored at zero.
func Derive(batch models.Batch, mv models.Movements) models.BatchStock {
	return models.BatchStock{
		BatchID:      batch.ID,
		Intake:       batch.IntakeQuantity,
		Harvested:    mv.Harvested,
		Died:         mv.Died,
		RelocatedOut: mv.RelocatedOut,
		Live:         max(0, batch.IntakeQuantity-mv.Total()),
	}
}

// LiveBatches keeps batches that still hold birds, oldest entry first with
// ties broken by id.
func LiveBatches(batches []models.Batch, mv map[string]models.Movements) []models.LiveBatch {
	out := make([]models.LiveBatch, 0, len(batches))
	for _, b := range batches {
		stock := Derive(b, mv[b.ID])
		if stock.Live <= 0 {
			continue
		}
		out = append(out, models.LiveBatch{Batch: b, Live: stock.Live})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Batch, out[j].Batch
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		return a.ID < b.ID
	})
	return out
}

// Occupancy sums the live stock of a coop's batches.
func Occupancy(live []models.LiveBatch) int {
	total := 0
	for _, lb := range live {
		total += lb.Live
	}
	return total
}

// StockOf loads the movements of batch inside tx and derives its stock.
func StockOf(ctx context.Context, tx repository.Tx, batch models.Batch) (models.BatchStock, error) {
	mv, err := tx.BatchMovements(ctx, []string{batch.ID})
	if err != nil {
		return models.BatchStock{}, err
	}
	return Derive(batch, mv[batch.ID]), nil
}

// CoopLive lists the live batches of a coop inside tx. With lock set the
// batch rows stay write-locked until tx ends.
func CoopLive(ctx context.Context, tx repository.Tx, coopID string, lock bool) ([]models.LiveBatch, error) {
	batches, err := tx.ListCoopBatches(ctx, coopID, lock)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	mv, err := tx.BatchMovements(ctx, ids)
	if err != nil {
		return nil, err
	}
	return LiveBatches(batches, mv), nil
}

// Service exposes read-only stock queries.
type Service struct {
	runner *txrunner.Runner
	logger *zap.Logger
}

// NewService wires a ledger service.
func NewService(runner *txrunner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger}
}

// GetBatchStock returns the derived stock of one batch.
func (s *Service) GetBatchStock(ctx context.Context, batchID string) (models.BatchStock, error) {
	var stock models.BatchStock
	err := s.runner.Run(ctx, "ledger.batch_stock", func(ctx context.Context, tx repository.Tx) error {
		batch, err := tx.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		stock, err = StockOf(ctx, tx, batch)
		return err
	})
	return stock, err
}

// GetCoopLiveBatches returns the coop's batches with live stock, FIFO ordered.
func (s *Service) GetCoopLiveBatches(ctx context.Context, coopID string) ([]models.LiveBatch, error) {
	var live []models.LiveBatch
	err := s.runner.Run(ctx, "ledger.coop_live", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetCoop(ctx, coopID); err != nil {
			return err
		}
		var err error
		live, err = CoopLive(ctx, tx, coopID, false)
		return err
	})
	return live, err
}

// GetAggregateStockForBatches sums harvested and died per batch. Unknown ids
// map to zero totals.
func (s *Service) GetAggregateStockForBatches(ctx context.Context, batchIDs []string) (map[string]models.BatchEventTotals, error) {
	out := make(map[string]models.BatchEventTotals, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	err := s.runner.Run(ctx, "ledger.aggregate", func(ctx context.Context, tx repository.Tx) error {
		mv, err := tx.BatchMovements(ctx, batchIDs)
		if err != nil {
			return err
		}
		for _, id := range batchIDs {
			m := mv[id]
			out[id] = models.BatchEventTotals{Harvested: m.Harvested, Died: m.Died}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
