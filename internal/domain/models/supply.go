package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyKind separates feed from vaccine stock.
type SupplyKind string

const (
	SupplyFeed    SupplyKind = "feed"
	SupplyVaccine SupplyKind = "vaccine"
)

// Valid reports whether the kind is known.
func (k SupplyKind) Valid() bool {
	return k == SupplyFeed || k == SupplyVaccine
}

// SupplyItem is a stock line of feed or vaccine.
type SupplyItem struct {
	Base     `bson:",inline"`
	Kind     SupplyKind      `gorm:"size:16;not null;index" bson:"kind" json:"kind"`
	Name     string          `gorm:"size:128;not null" bson:"name" json:"name"`
	Unit     string          `gorm:"size:16;not null" bson:"unit" json:"unit"`
	Quantity decimal.Decimal `gorm:"type:decimal(14,3);not null" bson:"quantity" json:"quantity"`
	UnitCost decimal.Decimal `gorm:"type:decimal(14,2);not null" bson:"unit_cost" json:"unit_cost"`
	Version  int64           `gorm:"not null;default:0" bson:"version" json:"-"`
}

// TableName pins the supply item table name.
func (SupplyItem) TableName() string { return "supply_items" }

// SupplyUsage debits a supply item, optionally charging a batch.
type SupplyUsage struct {
	Base     `bson:",inline"`
	SupplyID string          `gorm:"size:36;not null;index" bson:"supply_id" json:"supply_id"`
	BatchID  string          `gorm:"size:36;index" bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	Quantity decimal.Decimal `gorm:"type:decimal(14,3);not null" bson:"quantity" json:"quantity"`
	UnitCost decimal.Decimal `gorm:"type:decimal(14,2);not null" bson:"unit_cost" json:"unit_cost"`
	UsedAt   time.Time       `gorm:"not null" bson:"used_at" json:"used_at"`
}

// TableName pins the supply usage table name.
func (SupplyUsage) TableName() string { return "supply_usages" }

// Cost returns the amount charged by the usage.
func (u SupplyUsage) Cost() decimal.Decimal {
	return u.Quantity.Mul(u.UnitCost)
}

// OperationalCost is any other expense attributed to a batch.
type OperationalCost struct {
	Base       `bson:",inline"`
	BatchID    string          `gorm:"size:36;not null;index" bson:"batch_id" json:"batch_id"`
	Category   string          `gorm:"size:64;not null" bson:"category" json:"category"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" bson:"amount" json:"amount"`
	IncurredAt time.Time       `gorm:"not null" bson:"incurred_at" json:"incurred_at"`
	Notes      string          `gorm:"type:text" bson:"notes" json:"notes"`
}

// TableName pins the operational cost table name.
func (OperationalCost) TableName() string { return "operational_costs" }
