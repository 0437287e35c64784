package gormdb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateCoop(_ context.Context, coop *models.Coop) error {
	if err := t.db.Create(coop).Error; err != nil {
		return fmt.Errorf("create coop: %w", err)
	}
	return nil
}

func (t *txn) GetCoop(_ context.Context, id string) (models.Coop, error) {
	var coop models.Coop
	if err := t.live().Where("id = ?", id).First(&coop).Error; err != nil {
		return models.Coop{}, notFoundOr(err, "coop", id)
	}
	return coop, nil
}

func (t *txn) ListCoops(_ context.Context) ([]models.Coop, error) {
	var coops []models.Coop
	if err := t.live().Order("name ASC, id ASC").Find(&coops).Error; err != nil {
		return nil, fmt.Errorf("list coops: %w", err)
	}
	return coops, nil
}

func (t *txn) LockCoop(_ context.Context, id string) (models.Coop, error) {
	var coop models.Coop
	if err := t.forUpdate().Where("id = ? AND is_deleted = ?", id, false).First(&coop).Error; err != nil {
		return models.Coop{}, notFoundOr(err, "coop", id)
	}
	if err := t.bumpVersion(&models.Coop{}, "coop", id, coop.Version); err != nil {
		return models.Coop{}, err
	}
	coop.Version++
	return coop, nil
}
