package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/kandang/internal/config"
	"github.com/mamadbah2/kandang/internal/domain/models"
)

type fakeExporter struct {
	calls int
	at    time.Time
	err   error
}

func (f *fakeExporter) ExportOccupancy(_ context.Context, at time.Time) (int, error) {
	f.calls++
	f.at = at
	return 3, f.err
}

type fakePublisher struct{ calls int }

func (f *fakePublisher) PublishFromFeed(context.Context) (models.MarketPrice, error) {
	f.calls++
	return models.MarketPrice{}, nil
}

func schedule() config.ReportingConfig {
	return config.ReportingConfig{CronSchedule: "0 20 * * *", PriceSyncSchedule: "0 6 * * *", Timezone: "UTC"}
}

func TestStartRegistersConfiguredJobs(t *testing.T) {
	s, err := NewScheduler(schedule(), &fakeExporter{}, &fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()
	defer s.Stop()
	if n := len(s.cron.Entries()); n != 2 {
		t.Fatalf("expected 2 jobs got %d", n)
	}
}

func TestStartSkipsDisabledJobs(t *testing.T) {
	s, err := NewScheduler(schedule(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()
	defer s.Stop()
	if n := len(s.cron.Entries()); n != 0 {
		t.Fatalf("expected no jobs got %d", n)
	}
}

func TestInvalidTimezone(t *testing.T) {
	cfg := schedule()
	cfg.Timezone = "Nowhere/Land"
	if _, err := NewScheduler(cfg, nil, nil, nil); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestJobsCallDependencies(t *testing.T) {
	exp := &fakeExporter{err: errors.New("sheet down")}
	pub := &fakePublisher{}
	s, err := NewScheduler(schedule(), exp, pub, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fixed := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.exportOccupancy()
	s.syncPrice()

	if exp.calls != 1 || !exp.at.Equal(fixed) {
		t.Fatalf("unexpected exporter state %+v", exp)
	}
	if pub.calls != 1 {
		t.Fatalf("expected one price sync got %d", pub.calls)
	}
}
