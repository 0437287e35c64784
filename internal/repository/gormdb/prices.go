package gormdb

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func (t *txn) CreateMarketPrice(_ context.Context, p *models.MarketPrice) error {
	if err := t.db.Create(p).Error; err != nil {
		return fmt.Errorf("create market price: %w", err)
	}
	return nil
}

func (t *txn) GetMarketPrice(_ context.Context, id string) (models.MarketPrice, error) {
	var p models.MarketPrice
	if err := t.live().Where("id = ?", id).First(&p).Error; err != nil {
		return models.MarketPrice{}, notFoundOr(err, "market_price", id)
	}
	return p, nil
}

func (t *txn) ListMarketPrices(_ context.Context, activeOnly bool) ([]models.MarketPrice, error) {
	q := t.live()
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var prices []models.MarketPrice
	if err := q.Order("start_date DESC, id DESC").Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("list market prices: %w", err)
	}
	return prices, nil
}

func (t *txn) CandidatePrices(_ context.Context, ref time.Time) ([]models.MarketPrice, error) {
	var prices []models.MarketPrice
	err := t.live().
		Where("is_active = ? AND start_date <= ?", true, ref).
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("candidate market prices: %w", err)
	}
	return prices, nil
}

func (t *txn) SaveMarketPrice(_ context.Context, p *models.MarketPrice) error {
	err := t.db.Model(&models.MarketPrice{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"price_per_unit": p.PricePerUnit,
			"start_date":     p.StartDate,
			"end_date":       p.EndDate,
			"is_active":      p.IsActive,
			"region":         p.Region,
			"updated_at":     p.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("save market price %s: %w", p.ID, err)
	}
	return nil
}

func (t *txn) DeactivateAllMarketPrices(_ context.Context, at time.Time) (int64, error) {
	res := t.live().Model(&models.MarketPrice{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": at})
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate market prices: %w", res.Error)
	}
	return res.RowsAffected, nil
}
