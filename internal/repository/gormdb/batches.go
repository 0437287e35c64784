package gormdb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateBatch(_ context.Context, batch *models.Batch) error {
	if err := t.db.Create(batch).Error; err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (t *txn) GetBatch(_ context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	if err := t.live().Where("id = ?", id).First(&batch).Error; err != nil {
		return models.Batch{}, notFoundOr(err, "batch", id)
	}
	return batch, nil
}

func (t *txn) LockBatch(_ context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	if err := t.forUpdate().Where("id = ? AND is_deleted = ?", id, false).First(&batch).Error; err != nil {
		return models.Batch{}, notFoundOr(err, "batch", id)
	}
	return batch, nil
}

func (t *txn) ListCoopBatches(_ context.Context, coopID string, lock bool) ([]models.Batch, error) {
	q := t.db
	if lock {
		q = t.forUpdate()
	}
	var batches []models.Batch
	err := q.Where("coop_id = ? AND is_deleted = ?", coopID, false).
		Order("entry_date ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("list batches of coop %s: %w", coopID, err)
	}
	return batches, nil
}

func (t *txn) SaveBatch(_ context.Context, batch *models.Batch) error {
	res := t.db.Model(&models.Batch{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version).
		Updates(map[string]interface{}{
			"is_remainder":        batch.IsRemainder,
			"remainder_reason":    batch.RemainderReason,
			"remainder_marked_at": batch.RemainderMarkedAt,
			"is_deleted":          batch.IsDeleted,
			"deleted_at":          batch.DeletedAt,
			"deleted_by":          batch.DeletedBy,
			"updated_at":          batch.UpdatedAt,
			"version":             batch.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save batch %s: %w", batch.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Conflict("batch", batch.ID, fmt.Errorf("stale version %d", batch.Version))
	}
	batch.Version++
	return nil
}

func (t *txn) TouchBatch(_ context.Context, id string, version int64) error {
	return t.bumpVersion(&models.Batch{}, "batch", id, version)
}
