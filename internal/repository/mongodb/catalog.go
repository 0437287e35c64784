package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateMarketPrice(ctx context.Context, p *models.MarketPrice) error {
	return t.insert(ctx, marketPricesColl, "market_price", p)
}

func (t *txn) GetMarketPrice(ctx context.Context, id string) (models.MarketPrice, error) {
	var p models.MarketPrice
	err := t.findOne(ctx, marketPricesColl, "market_price", id, &p)
	return p, err
}

func (t *txn) ListMarketPrices(ctx context.Context, activeOnly bool) ([]models.MarketPrice, error) {
	filter := liveFilter(bson.M{})
	if activeOnly {
		filter["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}})
	return t.findPrices(ctx, filter, opts)
}

func (t *txn) CandidatePrices(ctx context.Context, ref time.Time) ([]models.MarketPrice, error) {
	filter := liveFilter(bson.M{"is_active": true, "start_date": bson.M{"$lte": ref}})
	return t.findPrices(ctx, filter, options.Find())
}

func (t *txn) findPrices(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.MarketPrice, error) {
	cur, err := t.coll(marketPricesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list market prices: %w", err)
	}
	var prices []models.MarketPrice
	if err := cur.All(ctx, &prices); err != nil {
		return nil, fmt.Errorf("failed to decode market prices: %w", err)
	}
	return prices, nil
}

func (t *txn) SaveMarketPrice(ctx context.Context, p *models.MarketPrice) error {
	_, err := t.coll(marketPricesColl).UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"price_per_unit": p.PricePerUnit,
			"start_date":     p.StartDate,
			"end_date":       p.EndDate,
			"is_active":      p.IsActive,
			"region":         p.Region,
			"updated_at":     p.UpdatedAt,
		}})
	if err != nil {
		return fmt.Errorf("failed to save market price %s: %w", p.ID, err)
	}
	return nil
}

func (t *txn) DeactivateAllMarketPrices(ctx context.Context, at time.Time) (int64, error) {
	res, err := t.coll(marketPricesColl).UpdateMany(ctx,
		liveFilter(bson.M{"is_active": true}),
		bson.M{"$set": bson.M{"is_active": false, "updated_at": at}})
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate market prices: %w", err)
	}
	return res.ModifiedCount, nil
}

func (t *txn) CreateSupplyItem(ctx context.Context, item *models.SupplyItem) error {
	return t.insert(ctx, supplyItemsColl, "supply_item", item)
}

func (t *txn) GetSupplyItem(ctx context.Context, id string) (models.SupplyItem, error) {
	var item models.SupplyItem
	err := t.findOne(ctx, supplyItemsColl, "supply_item", id, &item)
	return item, err
}

func (t *txn) LockSupplyItem(ctx context.Context, id string) (models.SupplyItem, error) {
	var item models.SupplyItem
	err := t.lockOne(ctx, supplyItemsColl, "supply_item", id, &item)
	return item, err
}

func (t *txn) SaveSupplyItem(ctx context.Context, item *models.SupplyItem) error {
	res, err := t.coll(supplyItemsColl).UpdateOne(ctx,
		bson.M{"_id": item.ID, "version": item.Version},
		bson.M{
			"$set": bson.M{
				"quantity":   item.Quantity,
				"unit_cost":  item.UnitCost,
				"updated_at": item.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("failed to save supply item %s: %w", item.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.Conflict("supply_item", item.ID, fmt.Errorf("stale version %d", item.Version))
	}
	item.Version++
	return nil
}

func (t *txn) CreateSupplyUsage(ctx context.Context, u *models.SupplyUsage) error {
	return t.insert(ctx, supplyUsagesColl, "supply_usage", u)
}

func (t *txn) ListBatchSupplyUsages(ctx context.Context, batchID string) ([]models.SupplyUsage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "used_at", Value: 1}})
	cur, err := t.coll(supplyUsagesColl).Find(ctx, liveFilter(bson.M{"batch_id": batchID}), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list supply usages: %w", err)
	}
	var usages []models.SupplyUsage
	if err := cur.All(ctx, &usages); err != nil {
		return nil, fmt.Errorf("failed to decode supply usages: %w", err)
	}
	return usages, nil
}

func (t *txn) CreateOperationalCost(ctx context.Context, c *models.OperationalCost) error {
	return t.insert(ctx, operationalCostsColl, "operational_cost", c)
}

func (t *txn) ListBatchOperationalCosts(ctx context.Context, batchID string) ([]models.OperationalCost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "incurred_at", Value: 1}})
	cur, err := t.coll(operationalCostsColl).Find(ctx, liveFilter(bson.M{"batch_id": batchID}), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list operational costs: %w", err)
	}
	var costs []models.OperationalCost
	if err := cur.All(ctx, &costs); err != nil {
		return nil, fmt.Errorf("failed to decode operational costs: %w", err)
	}
	return costs, nil
}
