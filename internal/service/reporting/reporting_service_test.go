package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/internal/testutil"
)

type memorySheet struct {
	rows [][]interface{}
}

func (m *memorySheet) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memorySheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	return m.rows, nil
}

func TestCoopOccupancy(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), nil, nil)
	a := testutil.SeedCoop(t, store, "A", 100)
	b := testutil.SeedCoop(t, store, "B", 50)
	batch := testutil.SeedBatch(t, store, a.ID, testutil.Date(2024, time.January, 1), 70)
	testutil.SeedMortality(t, store, batch.ID, 5)
	testutil.SeedBatch(t, store, a.ID, testutil.Date(2024, time.January, 8), 10)

	rows, err := svc.CoopOccupancy(context.Background(), testutil.Date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(rows))
	}
	if rows[0].CoopID != a.ID || rows[0].Live != 75 || rows[0].Available != 25 || rows[0].LiveBatches != 2 {
		t.Fatalf("unexpected row for A %+v", rows[0])
	}
	if rows[1].CoopID != b.ID || rows[1].Live != 0 || rows[1].Available != 50 {
		t.Fatalf("unexpected row for B %+v", rows[1])
	}
}

func TestExportOccupancySkipsExportedCoops(t *testing.T) {
	store := testutil.NewStore(t)
	sheet := &memorySheet{}
	svc := NewService(txrunner.New(store, txrunner.Options{}, nil), sheet, nil)
	testutil.SeedCoop(t, store, "A", 100)
	testutil.SeedCoop(t, store, "B", 100)
	day := testutil.Date(2024, time.March, 1)

	n, err := svc.ExportOccupancy(context.Background(), day)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 || len(sheet.rows) != 2 {
		t.Fatalf("expected 2 rows exported got %d (%d in sheet)", n, len(sheet.rows))
	}
	if sheet.rows[0][0] != "2024-03-01" || len(sheet.rows[0]) != 7 {
		t.Fatalf("unexpected row layout %v", sheet.rows[0])
	}

	n, err = svc.ExportOccupancy(context.Background(), day.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if n != 0 || len(sheet.rows) != 2 {
		t.Fatalf("expected re-run to skip exported coops, wrote %d", n)
	}
}
