package gormdb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateSupplyItem(_ context.Context, item *models.SupplyItem) error {
	if err := t.db.Create(item).Error; err != nil {
		return fmt.Errorf("create supply item: %w", err)
	}
	return nil
}

func (t *txn) GetSupplyItem(_ context.Context, id string) (models.SupplyItem, error) {
	var item models.SupplyItem
	if err := t.live().Where("id = ?", id).First(&item).Error; err != nil {
		return models.SupplyItem{}, notFoundOr(err, "supply_item", id)
	}
	return item, nil
}

func (t *txn) LockSupplyItem(_ context.Context, id string) (models.SupplyItem, error) {
	var item models.SupplyItem
	if err := t.forUpdate().Where("id = ? AND is_deleted = ?", id, false).First(&item).Error; err != nil {
		return models.SupplyItem{}, notFoundOr(err, "supply_item", id)
	}
	return item, nil
}

func (t *txn) SaveSupplyItem(_ context.Context, item *models.SupplyItem) error {
	res := t.db.Model(&models.SupplyItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"quantity":   item.Quantity,
			"unit_cost":  item.UnitCost,
			"updated_at": item.UpdatedAt,
			"version":    item.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save supply item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Conflict("supply_item", item.ID, fmt.Errorf("stale version %d", item.Version))
	}
	item.Version++
	return nil
}

func (t *txn) CreateSupplyUsage(_ context.Context, u *models.SupplyUsage) error {
	if err := t.db.Create(u).Error; err != nil {
		return fmt.Errorf("create supply usage: %w", err)
	}
	return nil
}

func (t *txn) ListBatchSupplyUsages(_ context.Context, batchID string) ([]models.SupplyUsage, error) {
	var usages []models.SupplyUsage
	if err := t.live().Where("batch_id = ?", batchID).Order("used_at ASC").Find(&usages).Error; err != nil {
		return nil, fmt.Errorf("list supply usages of batch %s: %w", batchID, err)
	}
	return usages, nil
}

func (t *txn) CreateOperationalCost(_ context.Context, c *models.OperationalCost) error {
	if err := t.db.Create(c).Error; err != nil {
		return fmt.Errorf("create operational cost: %w", err)
	}
	return nil
}

func (t *txn) ListBatchOperationalCosts(_ context.Context, batchID string) ([]models.OperationalCost, error) {
	var costs []models.OperationalCost
	if err := t.live().Where("batch_id = ?", batchID).Order("incurred_at ASC").Find(&costs).Error; err != nil {
		return nil, fmt.Errorf("list operational costs of batch %s: %w", batchID, err)
	}
	return costs, nil
}
