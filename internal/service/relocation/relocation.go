// Package relocation moves live birds from a batch in one coop into a new
// batch in another coop.
package relocation

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/capacity"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

const dateLayout = "2006-01-02"

// Request describes one relocation.
type Request struct {
	SourceCoopID  string
	DestCoopID    string
	SourceBatchID string
	Quantity      int
	Date          time.Time
	Reason        models.RelocationReason
	Notes         string
	ActingUserID  string
}

// DetailsUpdate carries the only fields editable after creation.
type DetailsUpdate struct {
	Notes  *string
	Status *models.RelocationStatus
}

// Service is the relocation engine.
type Service struct {
	runner *txrunner.Runner
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a relocation engine.
func NewService(runner *txrunner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger, now: time.Now}
}

// Relocate debits the source batch and creates the destination batch and
// the relocation record in one transaction.
func (s *Service) Relocate(ctx context.Context, req Request) (models.Relocation, error) {
	if err := validate(req); err != nil {
		return models.Relocation{}, err
	}

	var rec models.Relocation
	err := s.runner.Run(ctx, "relocation.relocate", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetCoop(ctx, req.SourceCoopID); err != nil {
			return err
		}
		dest, err := tx.LockCoop(ctx, req.DestCoopID)
		if err != nil {
			return err
		}
		source, err := tx.LockBatch(ctx, req.SourceBatchID)
		if err != nil {
			return err
		}
		if source.CoopID != req.SourceCoopID {
			return models.Invalid("source_batch_id", "batch %s does not belong to coop %s", source.ID, req.SourceCoopID)
		}
		if req.Date.UTC().Before(source.EntryDate) {
			return models.Invalid("date", "relocation on %s precedes entry of batch %s on %s",
				req.Date.UTC().Format(dateLayout), source.ID, source.EntryDate.Format(dateLayout))
		}

		destLive, err := ledger.CoopLive(ctx, tx, dest.ID, false)
		if err != nil {
			return err
		}
		room := capacity.Compute(dest, destLive, req.Date)
		if req.Quantity > room.Available {
			return models.CapacityExceeded(dest.ID, room.Available, req.Quantity)
		}

		stock, err := ledger.StockOf(ctx, tx, source)
		if err != nil {
			return err
		}
		if req.Quantity > stock.Live {
			return models.Insufficient("batch", source.ID, strconv.Itoa(stock.Live), strconv.Itoa(req.Quantity))
		}

		now := s.now().UTC()
		rec = models.Relocation{
			SourceCoopID:  req.SourceCoopID,
			DestCoopID:    dest.ID,
			SourceBatchID: source.ID,
			Quantity:      req.Quantity,
			Date:          req.Date.UTC(),
			Reason:        req.Reason,
			Status:        models.RelocationCompleted,
			Notes:         req.Notes,
			CreatedBy:     req.ActingUserID,
		}
		rec.Stamp(now)

		destBatch := models.Batch{
			CoopID:             dest.ID,
			EntryDate:          req.Date.UTC(),
			IntakeQuantity:     req.Quantity,
			Origin:             models.OriginRelocation,
			SourceRelocationID: rec.ID,
			CreatedBy:          req.ActingUserID,
		}
		destBatch.Stamp(now)
		if err := tx.CreateBatch(ctx, &destBatch); err != nil {
			return err
		}
		rec.DestBatchID = &destBatch.ID

		if err := tx.CreateRelocation(ctx, &rec); err != nil {
			return err
		}
		return tx.TouchBatch(ctx, source.ID, source.Version)
	})
	if err != nil {
		s.logger.Debug("relocation rejected",
			zap.String("source_batch_id", req.SourceBatchID),
			zap.String("dest_coop_id", req.DestCoopID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return models.Relocation{}, err
	}

	s.logger.Info("relocation completed",
		zap.String("relocation_id", rec.ID),
		zap.String("source_batch_id", rec.SourceBatchID),
		zap.String("dest_batch_id", *rec.DestBatchID),
		zap.Int("quantity", rec.Quantity))
	return rec, nil
}

// Cancel flags a relocation as cancelled. Stock is not moved back.
func (s *Service) Cancel(ctx context.Context, id string) (models.Relocation, error) {
	var rec models.Relocation
	err := s.runner.Run(ctx, "relocation.cancel", func(ctx context.Context, tx repository.Tx) error {
		var err error
		rec, err = tx.GetRelocation(ctx, id)
		if err != nil {
			return err
		}
		if rec.Status == models.RelocationCancelled {
			return models.InvalidState("relocation", id, "already cancelled")
		}
		now := s.now().UTC()
		rec.Status = models.RelocationCancelled
		rec.CancelledAt = &now
		rec.UpdatedAt = now
		return tx.SaveRelocation(ctx, &rec)
	})
	if err != nil {
		return models.Relocation{}, err
	}
	s.logger.Info("relocation cancelled", zap.String("relocation_id", id))
	return rec, nil
}

// UpdateDetails edits notes and status. The only status move allowed here is
// Pending to Completed; cancelling goes through Cancel and a cancelled
// relocation is frozen.
func (s *Service) UpdateDetails(ctx context.Context, id string, upd DetailsUpdate) (models.Relocation, error) {
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return models.Relocation{}, models.Invalid("status", "unknown status %q", *upd.Status)
		}
		if *upd.Status == models.RelocationCancelled {
			return models.Relocation{}, models.Invalid("status", "use cancel to cancel a relocation")
		}
	}

	var rec models.Relocation
	err := s.runner.Run(ctx, "relocation.update", func(ctx context.Context, tx repository.Tx) error {
		var err error
		rec, err = tx.GetRelocation(ctx, id)
		if err != nil {
			return err
		}
		if rec.Status == models.RelocationCancelled {
			return models.InvalidState("relocation", id, "cancelled relocations cannot be edited")
		}
		if upd.Notes != nil {
			rec.Notes = *upd.Notes
		}
		if upd.Status != nil && *upd.Status != rec.Status {
			if rec.Status != models.RelocationPending || *upd.Status != models.RelocationCompleted {
				return models.InvalidState("relocation", id, "cannot move from %s to %s", rec.Status, *upd.Status)
			}
			rec.Status = *upd.Status
		}
		rec.UpdatedAt = s.now().UTC()
		return tx.SaveRelocation(ctx, &rec)
	})
	if err != nil {
		return models.Relocation{}, err
	}
	return rec, nil
}

// Get returns one relocation record.
func (s *Service) Get(ctx context.Context, id string) (models.Relocation, error) {
	var rec models.Relocation
	err := s.runner.Run(ctx, "relocation.get", func(ctx context.Context, tx repository.Tx) error {
		var err error
		rec, err = tx.GetRelocation(ctx, id)
		return err
	})
	return rec, err
}

func validate(req Request) error {
	switch {
	case req.SourceCoopID == "":
		return models.Invalid("source_coop_id", "must be provided")
	case req.DestCoopID == "":
		return models.Invalid("dest_coop_id", "must be provided")
	case req.SourceBatchID == "":
		return models.Invalid("source_batch_id", "must be provided")
	case req.SourceCoopID == req.DestCoopID:
		return models.Invalid("dest_coop_id", "must differ from the source coop")
	case req.Quantity <= 0:
		return models.Invalid("quantity", "must be greater than zero")
	case req.Date.IsZero():
		return models.Invalid("date", "must be provided")
	case !req.Reason.Valid():
		return models.Invalid("reason", "unknown reason %q", req.Reason)
	}
	return nil
}
