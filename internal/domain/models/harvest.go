package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HarvestMode selects the allocation strategy of a harvest request.
type HarvestMode string

const (
	HarvestAutoFIFO    HarvestMode = "auto-fifo"
	HarvestManualSplit HarvestMode = "manual-split"
)

// Valid reports whether the mode is a known strategy.
func (m HarvestMode) Valid() bool {
	return m == HarvestAutoFIFO || m == HarvestManualSplit
}

// Harvest ("panen") removes birds from exactly one batch. A single request
// spanning several batches yields one Harvest per batch sharing AllocationGroup.
type Harvest struct {
	Base              `bson:",inline"`
	BatchID           string          `gorm:"size:36;not null;index" bson:"batch_id" json:"batch_id"`
	CoopID            string          `gorm:"size:36;not null;index" bson:"coop_id" json:"coop_id"`
	HarvestDate       time.Time       `gorm:"not null" bson:"harvest_date" json:"harvest_date"`
	QuantityHarvested int             `gorm:"not null" bson:"quantity_harvested" json:"quantity_harvested"`
	AverageWeight     decimal.Decimal `gorm:"type:decimal(10,3);not null" bson:"average_weight" json:"average_weight"`
	AllocationGroup   string          `gorm:"size:36;index" bson:"allocation_group" json:"allocation_group"`
	Mode              HarvestMode     `gorm:"size:16" bson:"mode" json:"mode"`
}

// TableName pins the harvest table name.
func (Harvest) TableName() string { return "harvests" }
