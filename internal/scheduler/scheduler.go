package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/config"
	"github.com/mamadbah2/kandang/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// OccupancyExporter appends the daily occupancy snapshot somewhere durable.
type OccupancyExporter interface {
	ExportOccupancy(ctx context.Context, at time.Time) (int, error)
}

// PricePublisher refreshes the active market price from the external feed.
type PricePublisher interface {
	PublishFromFeed(ctx context.Context) (models.MarketPrice, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	exporter  OccupancyExporter
	publisher PricePublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. A nil exporter or publisher
// disables the matching job.
func NewScheduler(cfg config.ReportingConfig, exporter OccupancyExporter, publisher PricePublisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
		}
		loc = l
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		exporter:  exporter,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the configured jobs and starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if s.exporter != nil {
		if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.exportOccupancy); err != nil {
			s.logger.Error("failed to schedule occupancy export", zap.String("schedule", s.cfg.CronSchedule), zap.Error(err))
		}
	} else {
		s.logger.Info("occupancy export disabled, no spreadsheet configured")
	}

	if s.publisher != nil {
		if _, err := s.cron.AddFunc(s.cfg.PriceSyncSchedule, s.syncPrice); err != nil {
			s.logger.Error("failed to schedule price sync", zap.String("schedule", s.cfg.PriceSyncSchedule), zap.Error(err))
		}
	} else {
		s.logger.Info("price sync disabled, no price feed configured")
	}

	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) exportOccupancy() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.exporter.ExportOccupancy(ctx, s.now())
	if err != nil {
		s.logger.Error("occupancy export failed", zap.Error(err))
		return
	}
	s.logger.Info("occupancy export finished", zap.Int("rows", n))
}

func (s *Scheduler) syncPrice() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	price, err := s.publisher.PublishFromFeed(ctx)
	if err != nil {
		s.logger.Error("price sync failed", zap.Error(err))
		return
	}
	s.logger.Info("price sync finished", zap.String("price_id", price.ID))
}
