// Package mortality records deaths against a batch.
package mortality

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

const dateLayout = "2006-01-02"

// Input describes one mortality event.
type Input struct {
	BatchID   string
	DeathDate time.Time
	Quantity  int
	Cause     string
}

// Service records mortality.
type Service struct {
	runner *txrunner.Runner
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the mortality service.
func NewService(runner *txrunner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger, now: time.Now}
}

// Record locks the batch and writes the event if it does not exceed live stock.
func (s *Service) Record(ctx context.Context, in Input) (models.Mortality, error) {
	switch {
	case in.BatchID == "":
		return models.Mortality{}, models.Invalid("batch_id", "must be provided")
	case in.Quantity <= 0:
		return models.Mortality{}, models.Invalid("quantity", "must be greater than zero")
	}
	if in.DeathDate.IsZero() {
		in.DeathDate = s.now()
	}

	var rec models.Mortality
	err := s.runner.Run(ctx, "mortality.record", func(ctx context.Context, tx repository.Tx) error {
		batch, err := tx.LockBatch(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if in.DeathDate.UTC().Before(batch.EntryDate) {
			return models.Invalid("death_date", "death on %s precedes entry of batch %s on %s",
				in.DeathDate.UTC().Format(dateLayout), batch.ID, batch.EntryDate.Format(dateLayout))
		}
		stock, err := ledger.StockOf(ctx, tx, batch)
		if err != nil {
			return err
		}
		if in.Quantity > stock.Live {
			return models.Insufficient("batch", batch.ID, strconv.Itoa(stock.Live), strconv.Itoa(in.Quantity))
		}

		rec = models.Mortality{
			BatchID:   batch.ID,
			DeathDate: in.DeathDate.UTC(),
			Quantity:  in.Quantity,
			Cause:     strings.TrimSpace(in.Cause),
		}
		rec.Stamp(s.now().UTC())
		if err := tx.CreateMortality(ctx, &rec); err != nil {
			return err
		}
		return tx.TouchBatch(ctx, batch.ID, batch.Version)
	})
	if err != nil {
		s.logger.Debug("mortality rejected", zap.String("batch_id", in.BatchID), zap.Int("quantity", in.Quantity), zap.Error(err))
		return models.Mortality{}, err
	}
	s.logger.Info("mortality recorded", zap.String("batch_id", rec.BatchID), zap.Int("quantity", rec.Quantity))
	return rec, nil
}
