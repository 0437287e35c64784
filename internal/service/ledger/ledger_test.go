package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/internal/testutil"
)

func TestDeriveFloorsAtZero(t *testing.T) {
	b := models.Batch{Base: models.Base{ID: "b1"}, IntakeQuantity: 10}
	stock := Derive(b, models.Movements{Harvested: 8, Died: 3})
	if stock.Live != 0 {
		t.Fatalf("expected live 0 got %d", stock.Live)
	}
	if stock.Harvested != 8 || stock.Died != 3 {
		t.Fatalf("unexpected totals %+v", stock)
	}
}

func TestLiveBatchesOrdersByEntryThenID(t *testing.T) {
	day := testutil.Date(2024, time.March, 1)
	batches := []models.Batch{
		{Base: models.Base{ID: "c"}, EntryDate: day.AddDate(0, 0, 1), IntakeQuantity: 5},
		{Base: models.Base{ID: "b"}, EntryDate: day, IntakeQuantity: 5},
		{Base: models.Base{ID: "a"}, EntryDate: day, IntakeQuantity: 5},
		{Base: models.Base{ID: "empty"}, EntryDate: day, IntakeQuantity: 5},
	}
	mv := map[string]models.Movements{"empty": {Harvested: 5}}

	live := LiveBatches(batches, mv)
	if len(live) != 3 {
		t.Fatalf("expected 3 live batches got %d", len(live))
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if live[i].Batch.ID != id {
			t.Fatalf("position %d: expected %s got %s", i, id, live[i].Batch.ID)
		}
	}
	if Occupancy(live) != 15 {
		t.Fatalf("expected occupancy 15 got %d", Occupancy(live))
	}
}

func TestGetBatchStock(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	batch := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 5), 100)
	testutil.SeedHarvest(t, store, batch, 30, "1.8")
	testutil.SeedMortality(t, store, batch.ID, 5)

	stock, err := svc.GetBatchStock(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if stock.Intake != 100 || stock.Harvested != 30 || stock.Died != 5 || stock.Live != 65 {
		t.Fatalf("unexpected stock %+v", stock)
	}
}

func TestGetBatchStockIsRepeatable(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	batch := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 5), 80)
	testutil.SeedHarvest(t, store, batch, 12, "2.1")
	testutil.SeedMortality(t, store, batch.ID, 3)

	first, err := svc.GetBatchStock(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := svc.GetBatchStock(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reads differ: %+v vs %+v", first, second)
	}
	if first.Live != 65 {
		t.Fatalf("expected live 65 got %d", first.Live)
	}
}

func TestGetBatchStockNotFound(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)

	_, err := svc.GetBatchStock(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestGetBatchStockIgnoresSoftDeleted(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	batch := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 5), 100)
	if err := store.DB().Model(&models.Batch{}).Where("id = ?", batch.ID).Update("is_deleted", true).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, err := svc.GetBatchStock(context.Background(), batch.ID)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestGetCoopLiveBatches(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	other := testutil.SeedCoop(t, store, "B", 500)
	newer := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.February, 1), 50)
	older := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 40)
	drained := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2023, time.December, 1), 10)
	testutil.SeedHarvest(t, store, drained, 10, "2.0")
	testutil.SeedBatch(t, store, other.ID, testutil.Date(2023, time.June, 1), 99)

	live, err := svc.GetCoopLiveBatches(context.Background(), coop.ID)
	if err != nil {
		t.Fatalf("coop live: %v", err)
	}
	if len(live) != 2 {
		t.Fatalf("expected 2 live batches got %d", len(live))
	}
	if live[0].Batch.ID != older.ID || live[1].Batch.ID != newer.ID {
		t.Fatalf("unexpected order %s, %s", live[0].Batch.ID, live[1].Batch.ID)
	}
	if live[0].Live != 40 || live[1].Live != 50 {
		t.Fatalf("unexpected live values %d, %d", live[0].Live, live[1].Live)
	}

	if _, err := svc.GetCoopLiveBatches(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for unknown coop got %v", err)
	}
}

func TestGetAggregateStockForBatches(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 500)
	b1 := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 100)
	b2 := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 2), 100)
	testutil.SeedHarvest(t, store, b1, 10, "1.5")
	testutil.SeedHarvest(t, store, b1, 15, "1.5")
	testutil.SeedMortality(t, store, b1.ID, 2)

	totals, err := svc.GetAggregateStockForBatches(context.Background(), []string{b1.ID, b2.ID, "unknown"})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if totals[b1.ID].Harvested != 25 || totals[b1.ID].Died != 2 {
		t.Fatalf("unexpected b1 totals %+v", totals[b1.ID])
	}
	if totals[b2.ID] != (models.BatchEventTotals{}) {
		t.Fatalf("expected zero totals for b2 got %+v", totals[b2.ID])
	}
	if _, ok := totals["unknown"]; !ok {
		t.Fatalf("expected unknown id present with zero totals")
	}
}
