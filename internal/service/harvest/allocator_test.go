package harvest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository/gormdb"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/internal/testutil"
)

type fixture struct {
	store     *gormdb.Store
	allocator *Allocator
	coop      models.Coop
	b1, b2    models.Batch
}

// newFixture seeds B1 (Jan 1, 50 live) and B2 (Jan 5, 30 live).
func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore(t)
	coop := testutil.SeedCoop(t, store, "A", 500)
	return fixture{
		store:     store,
		allocator: NewAllocator(txrunner.New(store, txrunner.Options{}, nil), nil),
		coop:      coop,
		b1:        testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 50),
		b2:        testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 5), 30),
	}
}

func (f fixture) request(mode models.HarvestMode, total int) Request {
	return Request{
		CoopID:        f.coop.ID,
		HarvestDate:   testutil.Date(2024, time.March, 1),
		Mode:          mode,
		TotalQuantity: total,
		AverageWeight: decimal.RequireFromString("1.85"),
	}
}

func countHarvests(t *testing.T, store *gormdb.Store) int64 {
	t.Helper()
	var n int64
	if err := store.DB().Model(&models.Harvest{}).Count(&n).Error; err != nil {
		t.Fatalf("count harvests: %v", err)
	}
	return n
}

func TestFIFOAllocatesOldestFirst(t *testing.T) {
	f := newFixture(t)

	records, err := f.allocator.Allocate(context.Background(), f.request(models.HarvestAutoFIFO, 60))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records got %d", len(records))
	}
	if records[0].BatchID != f.b1.ID || records[0].QuantityHarvested != 50 {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].BatchID != f.b2.ID || records[1].QuantityHarvested != 10 {
		t.Fatalf("unexpected second record %+v", records[1])
	}
	if records[0].AllocationGroup == "" || records[0].AllocationGroup != records[1].AllocationGroup {
		t.Fatalf("records must share one allocation group")
	}
	if countHarvests(t, f.store) != 2 {
		t.Fatalf("expected 2 persisted harvests")
	}
}

func TestFIFOIsAllOrNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.allocator.Allocate(context.Background(), f.request(models.HarvestAutoFIFO, 200))
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock got %v", err)
	}
	if n := countHarvests(t, f.store); n != 0 {
		t.Fatalf("expected no harvests got %d", n)
	}
	var b1 models.Batch
	if err := f.store.DB().First(&b1, "id = ?", f.b1.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if b1.Version != f.b1.Version {
		t.Fatalf("batch version changed on failed allocation")
	}
}

func TestFIFOSkipsDrainedBatches(t *testing.T) {
	f := newFixture(t)
	testutil.SeedHarvest(t, f.store, f.b1, 50, "2.0")

	records, err := f.allocator.Allocate(context.Background(), f.request(models.HarvestAutoFIFO, 30))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(records) != 1 || records[0].BatchID != f.b2.ID {
		t.Fatalf("expected a single record on b2 got %+v", records)
	}
}

func TestManualSplitReconciles(t *testing.T) {
	f := newFixture(t)

	req := f.request(models.HarvestManualSplit, 50)
	req.QuantityFromOld = 30
	req.QuantityFromNew = 20
	records, err := f.allocator.Allocate(context.Background(), req)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(records) != 2 || records[0].BatchID != f.b1.ID || records[1].BatchID != f.b2.ID {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].QuantityHarvested != 30 || records[1].QuantityHarvested != 20 {
		t.Fatalf("unexpected quantities %d/%d", records[0].QuantityHarvested, records[1].QuantityHarvested)
	}

	req.TotalQuantity = 60
	_, err = f.allocator.Allocate(context.Background(), req)
	var splitErr *models.Error
	if !errors.As(err, &splitErr) || splitErr.Kind != models.KindInvalidSplit || splitErr.Field != "total" {
		t.Fatalf("expected invalid split on total got %v", err)
	}
	if n := countHarvests(t, f.store); n != 2 {
		t.Fatalf("expected only the first request persisted got %d", n)
	}
}

func TestManualSplitNamesOverAllocatedSide(t *testing.T) {
	cases := []struct {
		name     string
		old, new int
		side     string
	}{
		{"old side", 51, 0, "old"},
		{"new side", 10, 31, "new"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request(models.HarvestManualSplit, tc.old+tc.new)
			req.QuantityFromOld = tc.old
			req.QuantityFromNew = tc.new

			_, err := f.allocator.Allocate(context.Background(), req)
			var splitErr *models.Error
			if !errors.As(err, &splitErr) || splitErr.Kind != models.KindInvalidSplit {
				t.Fatalf("expected invalid split got %v", err)
			}
			if splitErr.Field != tc.side {
				t.Fatalf("expected side %s got %s", tc.side, splitErr.Field)
			}
			if n := countHarvests(t, f.store); n != 0 {
				t.Fatalf("expected no harvests got %d", n)
			}
		})
	}
}

func TestManualSplitExplicitBatches(t *testing.T) {
	f := newFixture(t)
	foreign := testutil.SeedCoop(t, f.store, "B", 100)
	stranger := testutil.SeedBatch(t, f.store, foreign.ID, testutil.Date(2024, time.January, 2), 10)

	req := f.request(models.HarvestManualSplit, 5)
	req.QuantityFromOld = 5
	req.OldBatchID = f.b2.ID
	records, err := f.allocator.Allocate(context.Background(), req)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(records) != 1 || records[0].BatchID != f.b2.ID {
		t.Fatalf("expected explicit old batch used got %+v", records)
	}

	req.OldBatchID = stranger.ID
	if _, err := f.allocator.Allocate(context.Background(), req); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for foreign batch got %v", err)
	}
}

func TestManualSplitWithoutNewerBatch(t *testing.T) {
	store := testutil.NewStore(t)
	coop := testutil.SeedCoop(t, store, "A", 100)
	testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 50)
	allocator := NewAllocator(txrunner.New(store, txrunner.Options{}, nil), nil)

	req := Request{
		CoopID:          coop.ID,
		HarvestDate:     testutil.Date(2024, time.March, 1),
		Mode:            models.HarvestManualSplit,
		TotalQuantity:   20,
		AverageWeight:   decimal.RequireFromString("2"),
		QuantityFromOld: 10,
		QuantityFromNew: 10,
	}
	_, err := allocator.Allocate(context.Background(), req)
	var splitErr *models.Error
	if !errors.As(err, &splitErr) || splitErr.Kind != models.KindInvalidSplit || splitErr.Field != "new" {
		t.Fatalf("expected invalid split on new got %v", err)
	}
}

func TestAllocateValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero quantity", func(r *Request) { r.TotalQuantity = 0 }},
		{"negative quantity", func(r *Request) { r.TotalQuantity = -5 }},
		{"zero weight", func(r *Request) { r.AverageWeight = decimal.Zero }},
		{"unknown mode", func(r *Request) { r.Mode = "lifo" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request(models.HarvestAutoFIFO, 10)
			tc.mutate(&req)
			if _, err := f.allocator.Allocate(context.Background(), req); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error got %v", err)
			}
		})
	}
	if _, err := f.allocator.Allocate(context.Background(), Request{
		CoopID: "missing", HarvestDate: time.Now(), Mode: models.HarvestAutoFIFO,
		TotalQuantity: 1, AverageWeight: decimal.NewFromInt(1),
	}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for unknown coop got %v", err)
	}
}

func TestConcurrentFIFONeverOverdraws(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.allocator.Allocate(context.Background(), f.request(models.HarvestAutoFIFO, 60))
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("expected one success and one insufficient got %d/%d", succeeded, insufficient)
	}

	var total int64
	if err := f.store.DB().Model(&models.Harvest{}).Select("COALESCE(SUM(quantity_harvested), 0)").Scan(&total).Error; err != nil {
		t.Fatalf("sum harvests: %v", err)
	}
	if total != 60 {
		t.Fatalf("expected 60 harvested got %d", total)
	}
}

func TestHarvestBeforeEntryDateRejected(t *testing.T) {
	f := newFixture(t)

	req := f.request(models.HarvestAutoFIFO, 10)
	req.HarvestDate = testutil.Date(2023, time.June, 1)
	records, err := f.allocator.Allocate(context.Background(), req)
	if !errors.Is(err, models.ErrValidation) || models.KindOf(err) != models.KindValidation {
		t.Fatalf("expected validation error got records=%d err=%v", len(records), err)
	}

	// Spilling into a batch that entered after the harvest date is rejected too.
	req = f.request(models.HarvestAutoFIFO, 60)
	req.HarvestDate = testutil.Date(2024, time.January, 3)
	if _, err := f.allocator.Allocate(context.Background(), req); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for later batch got %v", err)
	}

	split := f.request(models.HarvestManualSplit, 15)
	split.HarvestDate = testutil.Date(2024, time.January, 3)
	split.QuantityFromOld = 10
	split.QuantityFromNew = 5
	if _, err := f.allocator.Allocate(context.Background(), split); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for manual split got %v", err)
	}

	if n := countHarvests(t, f.store); n != 0 {
		t.Fatalf("expected no harvests got %d", n)
	}

	sameDay := f.request(models.HarvestAutoFIFO, 10)
	sameDay.HarvestDate = f.b1.EntryDate
	if _, err := f.allocator.Allocate(context.Background(), sameDay); err != nil {
		t.Fatalf("harvest on entry day must be accepted: %v", err)
	}
}
