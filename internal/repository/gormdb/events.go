package gormdb

import (
	"context"
	"fmt"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

type batchSum struct {
	BatchID string
	Total   int
}

func (t *txn) CreateHarvest(_ context.Context, h *models.Harvest) error {
	if err := t.db.Create(h).Error; err != nil {
		return fmt.Errorf("create harvest: %w", err)
	}
	return nil
}

func (t *txn) GetHarvest(_ context.Context, id string) (models.Harvest, error) {
	var h models.Harvest
	if err := t.live().Where("id = ?", id).First(&h).Error; err != nil {
		return models.Harvest{}, notFoundOr(err, "harvest", id)
	}
	return h, nil
}

func (t *txn) CreateMortality(_ context.Context, m *models.Mortality) error {
	if err := t.db.Create(m).Error; err != nil {
		return fmt.Errorf("create mortality: %w", err)
	}
	return nil
}

func (t *txn) BatchMovements(_ context.Context, batchIDs []string) (map[string]models.Movements, error) {
	out := make(map[string]models.Movements, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	for _, id := range batchIDs {
		out[id] = models.Movements{}
	}

	harvested, err := t.sumBy(&models.Harvest{}, "batch_id", "quantity_harvested", batchIDs)
	if err != nil {
		return nil, err
	}
	died, err := t.sumBy(&models.Mortality{}, "batch_id", "quantity", batchIDs)
	if err != nil {
		return nil, err
	}
	// Every relocation counts, whatever its status: cancelling does not
	// return birds to the source batch.
	relocated, err := t.sumBy(&models.Relocation{}, "source_batch_id", "quantity", batchIDs)
	if err != nil {
		return nil, err
	}

	for _, row := range harvested {
		m := out[row.BatchID]
		m.Harvested = row.Total
		out[row.BatchID] = m
	}
	for _, row := range died {
		m := out[row.BatchID]
		m.Died = row.Total
		out[row.BatchID] = m
	}
	for _, row := range relocated {
		m := out[row.BatchID]
		m.RelocatedOut = row.Total
		out[row.BatchID] = m
	}
	return out, nil
}

func (t *txn) sumBy(model interface{}, keyColumn, qtyColumn string, ids []string) ([]batchSum, error) {
	var rows []batchSum
	err := t.db.Model(model).
		Select(fmt.Sprintf("%s AS batch_id, COALESCE(SUM(%s), 0) AS total", keyColumn, qtyColumn)).
		Where(fmt.Sprintf("%s IN ? AND is_deleted = ?", keyColumn), ids, false).
		Group(keyColumn).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum %s by %s: %w", qtyColumn, keyColumn, err)
	}
	return rows, nil
}
