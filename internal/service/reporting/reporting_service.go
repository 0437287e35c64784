package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	repo "github.com/mamadbah2/kandang/internal/repository/sheets"
	"github.com/mamadbah2/kandang/internal/service/capacity"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

const (
	dateLayout         = "2006-01-02"
	occupancyDataRange = "Occupancy!A:G"
)

// Service builds occupancy snapshots and exports them to Google Sheets.
type Service struct {
	runner *txrunner.Runner
	repo   repo.Repository
	logger *zap.Logger
}

// NewService wires a new reporting service instance. repository may be nil
// when no spreadsheet is configured.
func NewService(runner *txrunner.Runner, repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, repo: repository, logger: logger}
}

// CoopOccupancy returns the present occupancy of every coop.
func (s *Service) CoopOccupancy(ctx context.Context, at time.Time) ([]models.OccupancyRow, error) {
	day := at.UTC()
	var rows []models.OccupancyRow
	err := s.runner.Run(ctx, "reporting.occupancy", func(ctx context.Context, tx repository.Tx) error {
		rows = nil
		coops, err := tx.ListCoops(ctx)
		if err != nil {
			return err
		}
		for _, coop := range coops {
			live, err := ledger.CoopLive(ctx, tx, coop.ID, false)
			if err != nil {
				return err
			}
			c := capacity.Compute(coop, live, day)
			rows = append(rows, models.OccupancyRow{
				Date:         day,
				CoopID:       coop.ID,
				CoopName:     coop.Name,
				Capacity:     c.Capacity,
				Live:         c.CurrentLive,
				Available:    c.Available,
				LiveBatches:  len(live),
				HasRemainder: c.HasRemainderFromPrevious,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportOccupancy appends one sheet row per coop. Coops already exported for
// the same day are skipped so a re-run does not duplicate rows.
func (s *Service) ExportOccupancy(ctx context.Context, at time.Time) (int, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("occupancy export: no spreadsheet configured")
	}
	rows, err := s.CoopOccupancy(ctx, at)
	if err != nil {
		return 0, fmt.Errorf("build occupancy: %w", err)
	}

	day := at.UTC().Format(dateLayout)
	exported, err := s.exportedCoops(ctx, day)
	if err != nil {
		return 0, err
	}

	var out [][]interface{}
	for _, row := range rows {
		if exported[row.CoopID] {
			s.logger.Debug("skip coop already exported", zap.String("coop_id", row.CoopID), zap.String("date", day))
			continue
		}
		out = append(out, []interface{}{
			day,
			row.CoopID,
			row.CoopName,
			row.Capacity,
			row.Live,
			row.Available,
			strconv.FormatBool(row.HasRemainder),
		})
	}
	if err := s.repo.AppendRows(ctx, occupancyDataRange, out); err != nil {
		return 0, fmt.Errorf("export occupancy: %w", err)
	}
	written := len(out)

	s.logger.Info("occupancy exported", zap.String("date", day), zap.Int("rows", written))
	return written, nil
}

func (s *Service) exportedCoops(ctx context.Context, day string) (map[string]bool, error) {
	existing, err := s.repo.ReadRange(ctx, occupancyDataRange)
	if err != nil {
		return nil, fmt.Errorf("load occupancy range: %w", err)
	}
	out := make(map[string]bool)
	for _, row := range existing {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprint(row[0]) != day {
			continue
		}
		out[fmt.Sprint(row[1])] = true
	}
	return out, nil
}
