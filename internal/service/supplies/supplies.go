// Package supplies keeps feed and vaccine stock, debits it through usage
// records and aggregates what each batch has cost.
package supplies

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/service/capacity"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
)

// ItemInput creates a supply item.
type ItemInput struct {
	Kind     models.SupplyKind
	Name     string
	Unit     string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// UsageInput debits a supply item. BatchID is optional.
type UsageInput struct {
	SupplyID string
	BatchID  string
	Quantity decimal.Decimal
	UsedAt   time.Time
}

// CostInput attributes an expense to a batch.
type CostInput struct {
	BatchID    string
	Category   string
	Amount     decimal.Decimal
	IncurredAt time.Time
	Notes      string
}

// Service manages supplies and batch costs.
type Service struct {
	runner *txrunner.Runner
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the supplies service.
func NewService(runner *txrunner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger, now: time.Now}
}

// CreateItem registers a feed or vaccine stock line.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (models.SupplyItem, error) {
	switch {
	case !in.Kind.Valid():
		return models.SupplyItem{}, models.Invalid("kind", "unknown supply kind %q", in.Kind)
	case strings.TrimSpace(in.Name) == "":
		return models.SupplyItem{}, models.Invalid("name", "must be provided")
	case strings.TrimSpace(in.Unit) == "":
		return models.SupplyItem{}, models.Invalid("unit", "must be provided")
	case in.Quantity.IsNegative():
		return models.SupplyItem{}, models.Invalid("quantity", "must not be negative")
	case in.UnitCost.IsNegative():
		return models.SupplyItem{}, models.Invalid("unit_cost", "must not be negative")
	}

	item := models.SupplyItem{
		Kind:     in.Kind,
		Name:     strings.TrimSpace(in.Name),
		Unit:     strings.TrimSpace(in.Unit),
		Quantity: in.Quantity,
		UnitCost: in.UnitCost,
	}
	item.Stamp(s.now().UTC())
	err := s.runner.Run(ctx, "supplies.create_item", func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateSupplyItem(ctx, &item)
	})
	if err != nil {
		return models.SupplyItem{}, err
	}
	s.logger.Info("supply item created", zap.String("supply_id", item.ID), zap.String("kind", string(item.Kind)))
	return item, nil
}

// GetItem returns one supply item.
func (s *Service) GetItem(ctx context.Context, id string) (models.SupplyItem, error) {
	var item models.SupplyItem
	err := s.runner.Run(ctx, "supplies.get_item", func(ctx context.Context, tx repository.Tx) error {
		var err error
		item, err = tx.GetSupplyItem(ctx, id)
		return err
	})
	return item, err
}

// Restock adds quantity to an item's stock on hand.
func (s *Service) Restock(ctx context.Context, id string, quantity decimal.Decimal) (models.SupplyItem, error) {
	if !quantity.IsPositive() {
		return models.SupplyItem{}, models.Invalid("quantity", "must be greater than zero")
	}
	var item models.SupplyItem
	err := s.runner.Run(ctx, "supplies.restock", func(ctx context.Context, tx repository.Tx) error {
		var err error
		item, err = tx.LockSupplyItem(ctx, id)
		if err != nil {
			return err
		}
		item.Quantity = item.Quantity.Add(quantity)
		item.UpdatedAt = s.now().UTC()
		return tx.SaveSupplyItem(ctx, &item)
	})
	if err != nil {
		return models.SupplyItem{}, err
	}
	s.logger.Info("supply restocked", zap.String("supply_id", id), zap.String("quantity", quantity.String()))
	return item, nil
}

// CheckAvailability answers whether requested units can be drawn from the item.
func (s *Service) CheckAvailability(ctx context.Context, id string, requested decimal.Decimal) (models.StockAvailability, error) {
	if !requested.IsPositive() {
		return models.StockAvailability{}, models.Invalid("quantity", "must be greater than zero")
	}
	var out models.StockAvailability
	err := s.runner.Run(ctx, "supplies.availability", func(ctx context.Context, tx repository.Tx) error {
		item, err := tx.GetSupplyItem(ctx, id)
		if err != nil {
			return err
		}
		out = capacity.Evaluate(lineOf(item.Kind), item.Quantity, requested)
		return nil
	})
	return out, err
}

// RecordUsage debits the item and charges the batch, if any, at the item's
// current unit cost.
func (s *Service) RecordUsage(ctx context.Context, in UsageInput) (models.SupplyUsage, error) {
	if !in.Quantity.IsPositive() {
		return models.SupplyUsage{}, models.Invalid("quantity", "must be greater than zero")
	}
	if in.UsedAt.IsZero() {
		in.UsedAt = s.now()
	}

	var usage models.SupplyUsage
	err := s.runner.Run(ctx, "supplies.usage", func(ctx context.Context, tx repository.Tx) error {
		if in.BatchID != "" {
			if _, err := tx.GetBatch(ctx, in.BatchID); err != nil {
				return err
			}
		}
		item, err := tx.LockSupplyItem(ctx, in.SupplyID)
		if err != nil {
			return err
		}
		avail := capacity.Evaluate(lineOf(item.Kind), item.Quantity, in.Quantity)
		if !avail.IsAvailable {
			return models.Insufficient("supply_item", item.ID, item.Quantity.String(), in.Quantity.String())
		}

		now := s.now().UTC()
		item.Quantity = item.Quantity.Sub(in.Quantity)
		item.UpdatedAt = now
		if err := tx.SaveSupplyItem(ctx, &item); err != nil {
			return err
		}

		usage = models.SupplyUsage{
			SupplyID: item.ID,
			BatchID:  in.BatchID,
			Quantity: in.Quantity,
			UnitCost: item.UnitCost,
			UsedAt:   in.UsedAt.UTC(),
		}
		usage.Stamp(now)
		return tx.CreateSupplyUsage(ctx, &usage)
	})
	if err != nil {
		s.logger.Debug("supply usage rejected",
			zap.String("supply_id", in.SupplyID),
			zap.String("quantity", in.Quantity.String()),
			zap.Error(err))
		return models.SupplyUsage{}, err
	}
	s.logger.Info("supply usage recorded",
		zap.String("supply_id", usage.SupplyID),
		zap.String("batch_id", usage.BatchID),
		zap.String("quantity", usage.Quantity.String()))
	return usage, nil
}

// RecordOperationalCost attributes an expense to a batch.
func (s *Service) RecordOperationalCost(ctx context.Context, in CostInput) (models.OperationalCost, error) {
	switch {
	case in.BatchID == "":
		return models.OperationalCost{}, models.Invalid("batch_id", "must be provided")
	case strings.TrimSpace(in.Category) == "":
		return models.OperationalCost{}, models.Invalid("category", "must be provided")
	case !in.Amount.IsPositive():
		return models.OperationalCost{}, models.Invalid("amount", "must be greater than zero")
	}
	if in.IncurredAt.IsZero() {
		in.IncurredAt = s.now()
	}

	cost := models.OperationalCost{
		BatchID:    in.BatchID,
		Category:   strings.TrimSpace(in.Category),
		Amount:     in.Amount,
		IncurredAt: in.IncurredAt.UTC(),
		Notes:      in.Notes,
	}
	err := s.runner.Run(ctx, "supplies.operational_cost", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetBatch(ctx, in.BatchID); err != nil {
			return err
		}
		cost.Stamp(s.now().UTC())
		return tx.CreateOperationalCost(ctx, &cost)
	})
	if err != nil {
		return models.OperationalCost{}, err
	}
	s.logger.Info("operational cost recorded", zap.String("batch_id", cost.BatchID), zap.String("amount", cost.Amount.String()))
	return cost, nil
}

// BatchCost sums supply usage and operational costs charged to a batch over
// its lifetime.
func (s *Service) BatchCost(ctx context.Context, batchID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.runner.Run(ctx, "supplies.batch_cost", func(ctx context.Context, tx repository.Tx) error {
		total = decimal.Zero
		usages, err := tx.ListBatchSupplyUsages(ctx, batchID)
		if err != nil {
			return err
		}
		for _, u := range usages {
			total = total.Add(u.Cost())
		}
		costs, err := tx.ListBatchOperationalCosts(ctx, batchID)
		if err != nil {
			return err
		}
		for _, c := range costs {
			total = total.Add(c.Amount)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func lineOf(kind models.SupplyKind) capacity.Line {
	if kind == models.SupplyVaccine {
		return capacity.LineVaccine
	}
	return capacity.LineFeed
}
