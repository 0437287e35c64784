package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource tells whether a price was entered by hand or pulled from a feed.
type PriceSource string

const (
	PriceManual PriceSource = "manual"
	PriceFeed   PriceSource = "feed"
)

// MarketPrice is the live-bird price per kilogram over a validity window.
// EndDate nil means the window is open-ended.
type MarketPrice struct {
	Base         `bson:",inline"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(14,2);not null" bson:"price_per_unit" json:"price_per_unit"`
	StartDate    time.Time       `gorm:"not null;index" bson:"start_date" json:"start_date"`
	EndDate      *time.Time      `bson:"end_date,omitempty" json:"end_date,omitempty"`
	IsActive     bool            `gorm:"not null;index" bson:"is_active" json:"is_active"`
	Region       string          `gorm:"size:64" bson:"region" json:"region"`
	Source       PriceSource     `gorm:"size:16;not null;default:manual" bson:"source" json:"source"`
}

// TableName pins the market price table name.
func (MarketPrice) TableName() string { return "market_prices" }

// Covers reports whether the price row is eligible on the reference date.
func (p MarketPrice) Covers(ref time.Time) bool {
	if !p.IsActive || p.IsDeleted {
		return false
	}
	if p.StartDate.After(ref) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(ref)
}

// Profitability is the revenue/cost breakdown of one harvest record.
type Profitability struct {
	HarvestID     string          `json:"harvest_id"`
	MarketPriceID string          `json:"market_price_id"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	ROI           decimal.Decimal `json:"roi"`
	CostPerKg     decimal.Decimal `json:"cost_per_kg"`
}
