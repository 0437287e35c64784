package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateCoop(ctx context.Context, coop *models.Coop) error {
	return t.insert(ctx, coopsColl, "coop", coop)
}

func (t *txn) GetCoop(ctx context.Context, id string) (models.Coop, error) {
	var coop models.Coop
	err := t.findOne(ctx, coopsColl, "coop", id, &coop)
	return coop, err
}

func (t *txn) ListCoops(ctx context.Context) ([]models.Coop, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := t.coll(coopsColl).Find(ctx, liveFilter(bson.M{}), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list coops: %w", err)
	}
	var coops []models.Coop
	if err := cur.All(ctx, &coops); err != nil {
		return nil, fmt.Errorf("failed to decode coops: %w", err)
	}
	return coops, nil
}

func (t *txn) LockCoop(ctx context.Context, id string) (models.Coop, error) {
	var coop models.Coop
	err := t.lockOne(ctx, coopsColl, "coop", id, &coop)
	return coop, err
}

func (t *txn) CreateBatch(ctx context.Context, batch *models.Batch) error {
	return t.insert(ctx, batchesColl, "batch", batch)
}

func (t *txn) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	err := t.findOne(ctx, batchesColl, "batch", id, &batch)
	return batch, err
}

func (t *txn) LockBatch(ctx context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	err := t.lockOne(ctx, batchesColl, "batch", id, &batch)
	return batch, err
}

func (t *txn) ListCoopBatches(ctx context.Context, coopID string, lock bool) ([]models.Batch, error) {
	filter := liveFilter(bson.M{"coop_id": coopID})
	if lock {
		if _, err := t.coll(batchesColl).UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"version": 1}}); err != nil {
			return nil, fmt.Errorf("failed to lock batches of coop %s: %w", coopID, err)
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "entry_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := t.coll(batchesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches of coop %s: %w", coopID, err)
	}
	var batches []models.Batch
	if err := cur.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}
	return batches, nil
}

func (t *txn) SaveBatch(ctx context.Context, batch *models.Batch) error {
	res, err := t.coll(batchesColl).UpdateOne(ctx,
		bson.M{"_id": batch.ID, "version": batch.Version},
		bson.M{
			"$set": bson.M{
				"is_remainder":        batch.IsRemainder,
				"remainder_reason":    batch.RemainderReason,
				"remainder_marked_at": batch.RemainderMarkedAt,
				"is_deleted":          batch.IsDeleted,
				"deleted_at":          batch.DeletedAt,
				"deleted_by":          batch.DeletedBy,
				"updated_at":          batch.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("failed to save batch %s: %w", batch.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.Conflict("batch", batch.ID, fmt.Errorf("stale version %d", batch.Version))
	}
	batch.Version++
	return nil
}

func (t *txn) TouchBatch(ctx context.Context, id string, version int64) error {
	res, err := t.coll(batchesColl).UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{"$inc": bson.M{"version": 1}})
	if err != nil {
		return fmt.Errorf("failed to touch batch %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.Conflict("batch", id, fmt.Errorf("stale version %d", version))
	}
	return nil
}

func (t *txn) CreateHarvest(ctx context.Context, h *models.Harvest) error {
	return t.insert(ctx, harvestsColl, "harvest", h)
}

func (t *txn) GetHarvest(ctx context.Context, id string) (models.Harvest, error) {
	var h models.Harvest
	err := t.findOne(ctx, harvestsColl, "harvest", id, &h)
	return h, err
}

func (t *txn) CreateMortality(ctx context.Context, m *models.Mortality) error {
	return t.insert(ctx, mortalitiesColl, "mortality", m)
}

func (t *txn) BatchMovements(ctx context.Context, batchIDs []string) (map[string]models.Movements, error) {
	out := make(map[string]models.Movements, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	for _, id := range batchIDs {
		out[id] = models.Movements{}
	}

	harvested, err := t.sumBy(ctx, harvestsColl, "batch_id", "quantity_harvested", batchIDs)
	if err != nil {
		return nil, err
	}
	died, err := t.sumBy(ctx, mortalitiesColl, "batch_id", "quantity", batchIDs)
	if err != nil {
		return nil, err
	}
	// Cancelled relocations still count: cancelling never returns birds.
	relocated, err := t.sumBy(ctx, relocationsColl, "source_batch_id", "quantity", batchIDs)
	if err != nil {
		return nil, err
	}

	for id, total := range harvested {
		m := out[id]
		m.Harvested = total
		out[id] = m
	}
	for id, total := range died {
		m := out[id]
		m.Died = total
		out[id] = m
	}
	for id, total := range relocated {
		m := out[id]
		m.RelocatedOut = total
		out[id] = m
	}
	return out, nil
}

func (t *txn) sumBy(ctx context.Context, collName, key, qty string, ids []string) (map[string]int, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{key: bson.M{"$in": ids}, "is_deleted": false}},
		bson.M{"$group": bson.M{"_id": "$" + key, "total": bson.M{"$sum": "$" + qty}}},
	}
	cur, err := t.coll(collName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", collName, err)
	}
	var rows []struct {
		ID    string `bson:"_id"`
		Total int    `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s totals: %w", collName, err)
	}
	sums := make(map[string]int, len(rows))
	for _, row := range rows {
		sums[row.ID] = row.Total
	}
	return sums, nil
}

func (t *txn) CreateRelocation(ctx context.Context, r *models.Relocation) error {
	return t.insert(ctx, relocationsColl, "relocation", r)
}

func (t *txn) GetRelocation(ctx context.Context, id string) (models.Relocation, error) {
	var r models.Relocation
	err := t.findOne(ctx, relocationsColl, "relocation", id, &r)
	return r, err
}

func (t *txn) SaveRelocation(ctx context.Context, r *models.Relocation) error {
	_, err := t.coll(relocationsColl).UpdateOne(ctx,
		bson.M{"_id": r.ID},
		bson.M{"$set": bson.M{
			"status":       r.Status,
			"notes":        r.Notes,
			"cancelled_at": r.CancelledAt,
			"updated_at":   r.UpdatedAt,
		}})
	if err != nil {
		return fmt.Errorf("failed to save relocation %s: %w", r.ID, err)
	}
	return nil
}
