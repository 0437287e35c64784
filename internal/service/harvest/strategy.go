package harvest

import (
	"github.com/mamadbah2/kandang/internal/domain/models"
)

// Pool is the coop state a strategy allocates from. Live is FIFO ordered.
type Pool struct {
	CoopID  string
	Batches []models.Batch
	Live    []models.LiveBatch
}

// Allocation is the share of a request taken from one batch.
type Allocation struct {
	Batch    models.Batch
	Quantity int
}

// Strategy decides how many birds each batch gives up.
type Strategy interface {
	Mode() models.HarvestMode
	Allocate(pool Pool, req Request) ([]Allocation, error)
}

// FIFO drains the oldest batch first.
type FIFO struct{}

func (FIFO) Mode() models.HarvestMode { return models.HarvestAutoFIFO }

func (FIFO) Allocate(pool Pool, req Request) ([]Allocation, error) {
	total := 0
	for _, lb := range pool.Live {
		total += lb.Live
	}
	if total < req.TotalQuantity {
		return nil, models.Insufficient("coop", pool.CoopID, itoa(total), itoa(req.TotalQuantity))
	}

	remaining := req.TotalQuantity
	var out []Allocation
	for _, lb := range pool.Live {
		if remaining == 0 {
			break
		}
		take := min(lb.Live, remaining)
		out = append(out, Allocation{Batch: lb.Batch, Quantity: take})
		remaining -= take
	}
	return out, nil
}

// ManualSplit takes caller-chosen quantities from an old and a new batch.
type ManualSplit struct{}

func (ManualSplit) Mode() models.HarvestMode { return models.HarvestManualSplit }

func (ManualSplit) Allocate(pool Pool, req Request) ([]Allocation, error) {
	if req.QuantityFromOld < 0 {
		return nil, models.InvalidSplit("old", "quantity must not be negative")
	}
	if req.QuantityFromNew < 0 {
		return nil, models.InvalidSplit("new", "quantity must not be negative")
	}
	if req.QuantityFromOld+req.QuantityFromNew != req.TotalQuantity {
		return nil, models.InvalidSplit("total", "old %d + new %d does not equal total %d",
			req.QuantityFromOld, req.QuantityFromNew, req.TotalQuantity)
	}

	old, oldLive, err := pool.pick(req.OldBatchID, "old_batch_id", true)
	if err != nil {
		return nil, err
	}
	newer, newLive, err := pool.pick(req.NewBatchID, "new_batch_id", false)
	if err != nil {
		return nil, err
	}

	var out []Allocation
	if req.QuantityFromOld > 0 {
		if old == nil {
			return nil, models.InvalidSplit("old", "coop has no live batch")
		}
		if req.QuantityFromOld > oldLive {
			return nil, models.InvalidSplit("old", "requested %d, live %d in batch %s", req.QuantityFromOld, oldLive, old.ID)
		}
		out = append(out, Allocation{Batch: *old, Quantity: req.QuantityFromOld})
	}
	if req.QuantityFromNew > 0 {
		if newer == nil || (old != nil && newer.ID == old.ID) {
			return nil, models.InvalidSplit("new", "coop has no newer batch distinct from the old one")
		}
		if req.QuantityFromNew > newLive {
			return nil, models.InvalidSplit("new", "requested %d, live %d in batch %s", req.QuantityFromNew, newLive, newer.ID)
		}
		out = append(out, Allocation{Batch: *newer, Quantity: req.QuantityFromNew})
	}
	return out, nil
}

// pick resolves an explicit batch id, or defaults to the oldest (or newest)
// live batch. A batch of the coop with no live stock resolves with live 0.
func (p Pool) pick(id, field string, oldest bool) (*models.Batch, int, error) {
	if id == "" {
		if len(p.Live) == 0 {
			return nil, 0, nil
		}
		lb := p.Live[0]
		if !oldest {
			lb = p.Live[len(p.Live)-1]
		}
		return &lb.Batch, lb.Live, nil
	}
	for _, lb := range p.Live {
		if lb.Batch.ID == id {
			b := lb.Batch
			return &b, lb.Live, nil
		}
	}
	for _, b := range p.Batches {
		if b.ID == id {
			return &b, 0, nil
		}
	}
	return nil, 0, models.Invalid(field, "batch %s does not belong to coop %s", id, p.CoopID)
}
