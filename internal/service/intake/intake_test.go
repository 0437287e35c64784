package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository/gormdb"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/internal/testutil"
)

func newService(t *testing.T) (*Service, *gormdb.Store) {
	t.Helper()
	store := testutil.NewStore(t)
	return NewService(txrunner.New(store, txrunner.Options{}, nil), nil), store
}

func TestRegisterCoopValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.RegisterCoop(ctx, CoopInput{Name: "A", Capacity: 0}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	coop, err := svc.RegisterCoop(ctx, CoopInput{Name: " North ", Capacity: 300, Location: "hill"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if coop.ID == "" || coop.Name != "North" {
		t.Fatalf("unexpected coop %+v", coop)
	}
	coops, err := svc.ListCoops(ctx)
	if err != nil || len(coops) != 1 {
		t.Fatalf("expected one coop got %d, %v", len(coops), err)
	}
}

func TestCreateBatchWithinCapacity(t *testing.T) {
	svc, store := newService(t)
	coop := testutil.SeedCoop(t, store, "A", 100)
	testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 60)

	batch, avail, err := svc.CreateBatch(context.Background(), BatchInput{
		CoopID: coop.ID, EntryDate: testutil.Date(2024, time.February, 1), Quantity: 40, ActingUserID: "u-1",
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if !avail.IsAvailable || avail.Recommendation != models.RecommendOK {
		t.Fatalf("unexpected availability %+v", avail)
	}
	if batch.ForcedOverCapacity || batch.Origin != models.OriginIntake {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestCreateBatchOverCapacity(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	coop := testutil.SeedCoop(t, store, "A", 100)
	testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 60)
	in := BatchInput{CoopID: coop.ID, EntryDate: testutil.Date(2024, time.February, 1), Quantity: 41}

	_, avail, err := svc.CreateBatch(ctx, in)
	if !errors.Is(err, models.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded got %v", err)
	}
	if avail.Recommendation != models.RecommendReduceQuantity {
		t.Fatalf("expected reduce_quantity got %s", avail.Recommendation)
	}

	in.Force = true
	if _, _, err := svc.CreateBatch(ctx, in); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error without force reason got %v", err)
	}

	in.ForceReason = "late delivery from hatchery"
	batch, _, err := svc.CreateBatch(ctx, in)
	if err != nil {
		t.Fatalf("forced intake: %v", err)
	}
	var stored models.Batch
	if err := store.DB().First(&stored, "id = ?", batch.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.ForcedOverCapacity || stored.ForceReason != in.ForceReason {
		t.Fatalf("forced intake must persist its reason, got %+v", stored)
	}
}

func TestForcedIntakeWithinCapacityKeepsReason(t *testing.T) {
	svc, store := newService(t)
	coop := testutil.SeedCoop(t, store, "A", 100)

	batch, avail, err := svc.CreateBatch(context.Background(), BatchInput{
		CoopID:      coop.ID,
		EntryDate:   testutil.Date(2024, time.February, 1),
		Quantity:    30,
		Force:       true,
		ForceReason: " supervisor approved ",
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if !avail.IsAvailable {
		t.Fatalf("expected room for the intake got %+v", avail)
	}
	var stored models.Batch
	if err := store.DB().First(&stored, "id = ?", batch.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.ForceReason != "supervisor approved" {
		t.Fatalf("forced intake must persist its reason, got %q", stored.ForceReason)
	}
	if stored.ForcedOverCapacity {
		t.Fatalf("intake within capacity must not be flagged as a bypass")
	}
}

func TestMarkRemainderAndSoftDelete(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	coop := testutil.SeedCoop(t, store, "A", 100)
	used := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 30)
	fresh := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 2), 30)
	testutil.SeedMortality(t, store, used.ID, 1)

	marked, err := svc.MarkRemainder(ctx, used.ID, "carried over")
	if err != nil {
		t.Fatalf("mark remainder: %v", err)
	}
	if !marked.IsRemainder || marked.RemainderMarkedAt == nil {
		t.Fatalf("unexpected batch %+v", marked)
	}

	if err := svc.SoftDeleteBatch(ctx, used.ID, "u-1"); !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected invalid state got %v", err)
	}
	if err := svc.SoftDeleteBatch(ctx, fresh.ID, "u-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := svc.GetBatch(ctx, fresh.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected deleted batch hidden got %v", err)
	}
}
