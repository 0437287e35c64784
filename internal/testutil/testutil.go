// Package testutil opens throwaway SQL stores and seeds ledger rows for
// package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository/gormdb"
)

var dbSeq atomic.Int64

// NewStore opens an isolated in-memory SQLite store with the full schema.
func NewStore(t *testing.T) *gormdb.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gormdb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gormdb.New(db, zap.NewNop())
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedCoop inserts a coop with the given capacity.
func SeedCoop(t *testing.T, store *gormdb.Store, name string, capacity int) models.Coop {
	t.Helper()
	coop := models.Coop{Name: name, Capacity: capacity}
	coop.Stamp(time.Now().UTC())
	if err := store.DB().Create(&coop).Error; err != nil {
		t.Fatalf("seed coop: %v", err)
	}
	return coop
}

// SeedBatch inserts an intake batch.
func SeedBatch(t *testing.T, store *gormdb.Store, coopID string, entry time.Time, quantity int) models.Batch {
	t.Helper()
	batch := models.Batch{
		CoopID:         coopID,
		EntryDate:      entry,
		IntakeQuantity: quantity,
		Origin:         models.OriginIntake,
	}
	batch.Stamp(time.Now().UTC())
	if err := store.DB().Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

// SeedHarvest records a harvest against a batch.
func SeedHarvest(t *testing.T, store *gormdb.Store, batch models.Batch, quantity int, weight string) models.Harvest {
	t.Helper()
	h := models.Harvest{
		BatchID:           batch.ID,
		CoopID:            batch.CoopID,
		HarvestDate:       batch.EntryDate.AddDate(0, 1, 0),
		QuantityHarvested: quantity,
		AverageWeight:     decimal.RequireFromString(weight),
		Mode:              models.HarvestAutoFIFO,
	}
	h.Stamp(time.Now().UTC())
	h.AllocationGroup = h.ID
	if err := store.DB().Create(&h).Error; err != nil {
		t.Fatalf("seed harvest: %v", err)
	}
	return h
}

// SeedMortality records deaths in a batch.
func SeedMortality(t *testing.T, store *gormdb.Store, batchID string, quantity int) models.Mortality {
	t.Helper()
	m := models.Mortality{BatchID: batchID, DeathDate: time.Now().UTC(), Quantity: quantity, Cause: "test"}
	m.Stamp(time.Now().UTC())
	if err := store.DB().Create(&m).Error; err != nil {
		t.Fatalf("seed mortality: %v", err)
	}
	return m
}

// SeedPrice inserts a market price row.
func SeedPrice(t *testing.T, store *gormdb.Store, price string, start time.Time, end *time.Time, active bool) models.MarketPrice {
	t.Helper()
	p := models.MarketPrice{
		PricePerUnit: decimal.RequireFromString(price),
		StartDate:    start,
		EndDate:      end,
		IsActive:     active,
		Source:       models.PriceManual,
	}
	p.Stamp(time.Now().UTC())
	if err := store.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed price: %v", err)
	}
	return p
}
