// Package intake registers coops and brings new batches into them, enforcing
// coop capacity inside the same transaction as the insert.
package intake

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/capacity"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

// CoopInput registers a coop.
type CoopInput struct {
	Name              string
	Capacity          int
	Location          string
	ResponsibleUserID string
}

// BatchInput brings birds into a coop. Force bypasses the capacity check
// and requires ForceReason.
type BatchInput struct {
	CoopID          string
	EntryDate       time.Time
	Quantity        int
	IsRemainder     bool
	RemainderReason string
	Force           bool
	ForceReason     string
	ActingUserID    string
}

// Service handles coop registration and batch intake.
type Service struct {
	runner *txrunner.Runner
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the intake service.
func NewService(runner *txrunner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger, now: time.Now}
}

// RegisterCoop creates a coop.
func (s *Service) RegisterCoop(ctx context.Context, in CoopInput) (models.Coop, error) {
	coop, err := s.buildCoop(in)
	if err != nil {
		return models.Coop{}, err
	}
	err = s.runner.Run(ctx, "intake.register_coop", func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateCoop(ctx, &coop)
	})
	if err != nil {
		return models.Coop{}, err
	}
	s.logger.Info("coop registered", zap.String("coop_id", coop.ID), zap.Int("capacity", coop.Capacity))
	return coop, nil
}

// GetCoop returns one coop.
func (s *Service) GetCoop(ctx context.Context, id string) (models.Coop, error) {
	var coop models.Coop
	err := s.runner.Run(ctx, "intake.get_coop", func(ctx context.Context, tx repository.Tx) error {
		var err error
		coop, err = tx.GetCoop(ctx, id)
		return err
	})
	return coop, err
}

// ListCoops returns every coop ordered by name.
func (s *Service) ListCoops(ctx context.Context) ([]models.Coop, error) {
	var coops []models.Coop
	err := s.runner.Run(ctx, "intake.list_coops", func(ctx context.Context, tx repository.Tx) error {
		var err error
		coops, err = tx.ListCoops(ctx)
		return err
	})
	return coops, err
}

// CreateBatch locks the coop, re-derives its occupancy and inserts the batch
// when it fits. A forced intake over capacity is persisted with its reason.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) (models.Batch, models.StockAvailability, error) {
	if err := validateBatch(in); err != nil {
		return models.Batch{}, models.StockAvailability{}, err
	}

	var (
		batch models.Batch
		avail models.StockAvailability
	)
	err := s.runner.Run(ctx, "intake.create_batch", func(ctx context.Context, tx repository.Tx) error {
		coop, err := tx.LockCoop(ctx, in.CoopID)
		if err != nil {
			return err
		}
		live, err := ledger.CoopLive(ctx, tx, coop.ID, false)
		if err != nil {
			return err
		}
		room := capacity.Compute(coop, live, in.EntryDate)
		avail = capacity.Evaluate(capacity.LineCoop,
			decimal.NewFromInt(int64(room.Available)),
			decimal.NewFromInt(int64(in.Quantity)))

		forced := false
		if !avail.IsAvailable {
			if !in.Force {
				return models.CapacityExceeded(coop.ID, room.Available, in.Quantity)
			}
			forced = true
		}

		batch = s.buildBatch(in, forced)
		return tx.CreateBatch(ctx, &batch)
	})
	if err != nil {
		s.logger.Debug("intake rejected",
			zap.String("coop_id", in.CoopID),
			zap.Int("quantity", in.Quantity),
			zap.Error(err))
		return models.Batch{}, avail, err
	}

	fields := []zap.Field{
		zap.String("batch_id", batch.ID),
		zap.String("coop_id", batch.CoopID),
		zap.Int("quantity", batch.IntakeQuantity),
	}
	if batch.ForcedOverCapacity {
		s.logger.Warn("batch forced over capacity", append(fields, zap.String("reason", batch.ForceReason))...)
	} else {
		s.logger.Info("batch created", fields...)
	}
	return batch, avail, nil
}

// GetBatch returns one batch.
func (s *Service) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	err := s.runner.Run(ctx, "intake.get_batch", func(ctx context.Context, tx repository.Tx) error {
		var err error
		batch, err = tx.GetBatch(ctx, id)
		return err
	})
	return batch, err
}

// MarkRemainder flags a batch as leftover stock from an earlier period.
func (s *Service) MarkRemainder(ctx context.Context, batchID, reason string) (models.Batch, error) {
	var batch models.Batch
	err := s.runner.Run(ctx, "intake.mark_remainder", func(ctx context.Context, tx repository.Tx) error {
		var err error
		batch, err = tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		batch.IsRemainder = true
		batch.RemainderReason = strings.TrimSpace(reason)
		batch.RemainderMarkedAt = &now
		batch.UpdatedAt = now
		return tx.SaveBatch(ctx, &batch)
	})
	if err != nil {
		return models.Batch{}, err
	}
	s.logger.Info("batch marked as remainder", zap.String("batch_id", batchID))
	return batch, nil
}

// SoftDeleteBatch hides a batch that never had any movement recorded.
func (s *Service) SoftDeleteBatch(ctx context.Context, batchID, userID string) error {
	err := s.runner.Run(ctx, "intake.delete_batch", func(ctx context.Context, tx repository.Tx) error {
		batch, err := tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		mv, err := tx.BatchMovements(ctx, []string{batch.ID})
		if err != nil {
			return err
		}
		if mv[batch.ID].Total() > 0 {
			return models.InvalidState("batch", batch.ID, "batch has recorded movements")
		}
		batch.MarkDeleted(s.now().UTC(), userID)
		return tx.SaveBatch(ctx, &batch)
	})
	if err != nil {
		return err
	}
	s.logger.Info("batch deleted", zap.String("batch_id", batchID), zap.String("deleted_by", userID))
	return nil
}

func (s *Service) buildCoop(in CoopInput) (models.Coop, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Coop{}, models.Invalid("name", "must be provided")
	}
	if in.Capacity <= 0 {
		return models.Coop{}, models.Invalid("capacity", "must be greater than zero")
	}
	coop := models.Coop{
		Name:              name,
		Capacity:          in.Capacity,
		Location:          strings.TrimSpace(in.Location),
		ResponsibleUserID: in.ResponsibleUserID,
	}
	coop.Stamp(s.now().UTC())
	return coop, nil
}

func (s *Service) buildBatch(in BatchInput, forced bool) models.Batch {
	now := s.now().UTC()
	batch := models.Batch{
		CoopID:         in.CoopID,
		EntryDate:      in.EntryDate.UTC(),
		IntakeQuantity: in.Quantity,
		Origin:         models.OriginIntake,
		CreatedBy:      in.ActingUserID,
	}
	if in.IsRemainder {
		batch.IsRemainder = true
		batch.RemainderReason = strings.TrimSpace(in.RemainderReason)
		batch.RemainderMarkedAt = &now
	}
	if in.Force {
		batch.ForceReason = strings.TrimSpace(in.ForceReason)
	}
	batch.ForcedOverCapacity = forced
	batch.Stamp(now)
	return batch
}

func validateBatch(in BatchInput) error {
	switch {
	case in.CoopID == "":
		return models.Invalid("coop_id", "must be provided")
	case in.EntryDate.IsZero():
		return models.Invalid("entry_date", "must be provided")
	case in.Quantity <= 0:
		return models.Invalid("quantity", "must be greater than zero")
	case in.Force && strings.TrimSpace(in.ForceReason) == "":
		return models.Invalid("force_reason", "required when forcing an intake")
	}
	return nil
}
