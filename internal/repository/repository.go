// Package repository declares the transactional store the stock core runs on.
// Implementations live in the gormdb and mongodb subpackages.
package repository

import (
	"context"
	"time"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

// Store opens units of work.
type Store interface {
	// Atomic runs fn inside one transaction. Any error returned by fn rolls
	// back every write staged through tx. The ctx passed to fn must be used
	// for every tx call.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close(ctx context.Context) error
}

// Tx is the set of operations available inside a unit of work. Get* methods
// return models.ErrNotFound (by kind) for missing or soft-deleted rows.
type Tx interface {
	CoopRepository
	BatchRepository
	EventRepository
	RelocationRepository
	PriceRepository
	SupplyRepository
}

// CoopRepository persists coops.
type CoopRepository interface {
	CreateCoop(ctx context.Context, coop *models.Coop) error
	GetCoop(ctx context.Context, id string) (models.Coop, error)
	ListCoops(ctx context.Context) ([]models.Coop, error)
	// LockCoop takes a write lock on the coop row for the rest of the
	// transaction and bumps its version.
	LockCoop(ctx context.Context, id string) (models.Coop, error)
}

// BatchRepository persists batches.
type BatchRepository interface {
	CreateBatch(ctx context.Context, batch *models.Batch) error
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	// LockBatch takes a write lock on the batch row.
	LockBatch(ctx context.Context, id string) (models.Batch, error)
	// ListCoopBatches returns the coop's non-deleted batches ordered by
	// entry date then id. With lock set every returned row is write-locked.
	ListCoopBatches(ctx context.Context, coopID string, lock bool) ([]models.Batch, error)
	// SaveBatch writes mutable batch fields guarded by the version token;
	// a stale version yields models.ErrConflict.
	SaveBatch(ctx context.Context, batch *models.Batch) error
	// TouchBatch bumps the version of a batch whose stock changed.
	TouchBatch(ctx context.Context, id string, version int64) error
}

// EventRepository persists quantity-reducing events and aggregates them.
type EventRepository interface {
	CreateHarvest(ctx context.Context, h *models.Harvest) error
	GetHarvest(ctx context.Context, id string) (models.Harvest, error)
	CreateMortality(ctx context.Context, m *models.Mortality) error
	// BatchMovements sums harvested, died and relocated-out quantities for
	// each id. Ids without events are present with zero values.
	BatchMovements(ctx context.Context, batchIDs []string) (map[string]models.Movements, error)
}

// RelocationRepository persists relocation records.
type RelocationRepository interface {
	CreateRelocation(ctx context.Context, r *models.Relocation) error
	GetRelocation(ctx context.Context, id string) (models.Relocation, error)
	SaveRelocation(ctx context.Context, r *models.Relocation) error
}

// PriceRepository persists market prices.
type PriceRepository interface {
	CreateMarketPrice(ctx context.Context, p *models.MarketPrice) error
	GetMarketPrice(ctx context.Context, id string) (models.MarketPrice, error)
	ListMarketPrices(ctx context.Context, activeOnly bool) ([]models.MarketPrice, error)
	// CandidatePrices returns active rows whose window may cover ref.
	CandidatePrices(ctx context.Context, ref time.Time) ([]models.MarketPrice, error)
	SaveMarketPrice(ctx context.Context, p *models.MarketPrice) error
	DeactivateAllMarketPrices(ctx context.Context, at time.Time) (int64, error)
}

// SupplyRepository persists feed/vaccine stock and batch costs.
type SupplyRepository interface {
	CreateSupplyItem(ctx context.Context, item *models.SupplyItem) error
	GetSupplyItem(ctx context.Context, id string) (models.SupplyItem, error)
	LockSupplyItem(ctx context.Context, id string) (models.SupplyItem, error)
	SaveSupplyItem(ctx context.Context, item *models.SupplyItem) error
	CreateSupplyUsage(ctx context.Context, u *models.SupplyUsage) error
	ListBatchSupplyUsages(ctx context.Context, batchID string) ([]models.SupplyUsage, error)
	CreateOperationalCost(ctx context.Context, c *models.OperationalCost) error
	ListBatchOperationalCosts(ctx context.Context, batchID string) ([]models.OperationalCost, error)
}
