package capacity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/internal/testutil"
)

func TestEvaluateRecommendations(t *testing.T) {
	cases := []struct {
		name      string
		line      Line
		current   int64
		requested int64
		available bool
		want      models.Recommendation
	}{
		{"coop fits", LineCoop, 50, 50, true, models.RecommendOK},
		{"coop short", LineCoop, 20, 50, false, models.RecommendReduceQuantity},
		{"coop full", LineCoop, 0, 10, false, models.RecommendForceRequired},
		{"feed short", LineFeed, 3, 5, false, models.RecommendRestock},
		{"vaccine ok", LineVaccine, 5, 1, true, models.RecommendOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.line, decimal.NewFromInt(tc.current), decimal.NewFromInt(tc.requested))
			if got.IsAvailable != tc.available {
				t.Fatalf("expected available=%v got %v", tc.available, got.IsAvailable)
			}
			if got.Recommendation != tc.want {
				t.Fatalf("expected %s got %s", tc.want, got.Recommendation)
			}
			if !got.CurrentStock.Equal(decimal.NewFromInt(tc.current)) || !got.Requested.Equal(decimal.NewFromInt(tc.requested)) {
				t.Fatalf("unexpected echoed quantities %+v", got)
			}
		})
	}
}

func TestCheckCapacity(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 200)
	b1 := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 100)
	testutil.SeedHarvest(t, store, b1, 30, "1.9")
	testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.February, 1), 50)

	got, err := svc.CheckCapacity(context.Background(), coop.ID, testutil.Date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if got.Capacity != 200 || got.CurrentLive != 120 || got.Available != 80 {
		t.Fatalf("unexpected capacity %+v", got)
	}
	if got.HasRemainderFromPrevious || got.RemainderPeriod != "" {
		t.Fatalf("expected no remainder got %+v", got)
	}
}

func TestCheckCapacityClampsAndReportsRemainder(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)
	coop := testutil.SeedCoop(t, store, "A", 100)
	rem := testutil.SeedBatch(t, store, coop.ID, testutil.Date(2023, time.November, 20), 60)
	if err := store.DB().Model(&models.Batch{}).Where("id = ?", rem.ID).Update("is_remainder", true).Error; err != nil {
		t.Fatalf("flag remainder: %v", err)
	}
	testutil.SeedBatch(t, store, coop.ID, testutil.Date(2024, time.January, 1), 70)

	got, err := svc.CheckCapacity(context.Background(), coop.ID, testutil.Date(2024, time.February, 1))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if got.CurrentLive != 130 || got.Available != 0 {
		t.Fatalf("expected clamped availability got %+v", got)
	}
	if !got.HasRemainderFromPrevious || got.RemainderPeriod != "2023-11" {
		t.Fatalf("expected remainder from 2023-11 got %+v", got)
	}

	avail, err := svc.CheckIntake(context.Background(), coop.ID, testutil.Date(2024, time.February, 1), 10)
	if err != nil {
		t.Fatalf("check intake: %v", err)
	}
	if avail.IsAvailable || avail.Recommendation != models.RecommendForceRequired {
		t.Fatalf("unexpected intake availability %+v", avail)
	}
}

func TestCheckCapacityUnknownCoop(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil)

	_, err := svc.CheckCapacity(context.Background(), "missing", time.Now())
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}
