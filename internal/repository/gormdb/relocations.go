package gormdb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateRelocation(_ context.Context, r *models.Relocation) error {
	if err := t.db.Create(r).Error; err != nil {
		return fmt.Errorf("create relocation: %w", err)
	}
	return nil
}

func (t *txn) GetRelocation(_ context.Context, id string) (models.Relocation, error) {
	var r models.Relocation
	if err := t.forUpdate().Where("id = ? AND is_deleted = ?", id, false).First(&r).Error; err != nil {
		return models.Relocation{}, notFoundOr(err, "relocation", id)
	}
	return r, nil
}

func (t *txn) SaveRelocation(_ context.Context, r *models.Relocation) error {
	err := t.db.Model(&models.Relocation{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"status":       r.Status,
			"notes":        r.Notes,
			"cancelled_at": r.CancelledAt,
			"updated_at":   r.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("save relocation %s: %w", r.ID, err)
	}
	return nil
}
