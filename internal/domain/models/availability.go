package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation is a machine-readable hint attached to a StockAvailability.
type Recommendation string

const (
	RecommendOK             Recommendation = "ok"
	RecommendReduceQuantity Recommendation = "reduce_quantity"
	RecommendRestock        Recommendation = "restock"
	RecommendForceRequired  Recommendation = "force_required"
)

// StockAvailability is the single availability shape shared by coop intake,
// feed stock and vaccine stock checks.
type StockAvailability struct {
	IsAvailable    bool            `json:"is_available"`
	Recommendation Recommendation  `json:"recommendation"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	Requested      decimal.Decimal `json:"requested"`
}

// CoopCapacity answers how many birds a coop can still take.
type CoopCapacity struct {
	CoopID                   string    `json:"coop_id"`
	PlannedEntryDate         time.Time `json:"planned_entry_date"`
	Capacity                 int       `json:"capacity"`
	CurrentLive              int       `json:"current_live"`
	Available                int       `json:"available"`
	HasRemainderFromPrevious bool      `json:"has_remainder_from_previous"`
	RemainderPeriod          string    `json:"remainder_period,omitempty"`
}
