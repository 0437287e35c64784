package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/service/intake"
	"github.com/mamadbah2/kandang/internal/service/ledger"
	"github.com/mamadbah2/kandang/internal/service/mortality"
)

// BatchHandler exposes batch intake, stock queries and mortality recording.
type BatchHandler struct {
	intake    *intake.Service
	ledger    *ledger.Service
	mortality *mortality.Service
	logger    *zap.Logger
}

// NewBatchHandler constructs the batch HTTP adapter.
func NewBatchHandler(in *intake.Service, ledgerSvc *ledger.Service, mortalitySvc *mortality.Service, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{intake: in, ledger: ledgerSvc, mortality: mortalitySvc, logger: logger}
}

// Register mounts the batch routes.
func (h *BatchHandler) Register(r gin.IRouter) {
	r.POST("/batches", h.Create)
	r.POST("/batches/stock", h.AggregateStock)
	r.GET("/batches/:id", h.Get)
	r.DELETE("/batches/:id", h.Delete)
	r.GET("/batches/:id/stock", h.Stock)
	r.POST("/batches/:id/remainder", h.MarkRemainder)
	r.POST("/batches/:id/mortalities", h.RecordMortality)
}

type createBatchRequest struct {
	CoopID          string `json:"coop_id" binding:"required"`
	EntryDate       string `json:"entry_date" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
	IsRemainder     bool   `json:"is_remainder"`
	RemainderReason string `json:"remainder_reason"`
	Force           bool   `json:"force"`
	ForceReason     string `json:"force_reason"`
}

// Create records a new intake batch after the capacity check.
func (h *BatchHandler) Create(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	entry, err := parseDate("entry_date", req.EntryDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	batch, avail, err := h.intake.CreateBatch(c.Request.Context(), intake.BatchInput{
		CoopID:          req.CoopID,
		EntryDate:       entry,
		Quantity:        req.Quantity,
		IsRemainder:     req.IsRemainder,
		RemainderReason: req.RemainderReason,
		Force:           req.Force,
		ForceReason:     req.ForceReason,
		ActingUserID:    c.GetHeader(userIDHeader),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch, "availability": avail})
}

// Get returns one batch.
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.intake.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Delete soft-deletes a batch without movements.
func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.intake.SoftDeleteBatch(c.Request.Context(), c.Param("id"), c.GetHeader(userIDHeader)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stock returns the derived live stock of a batch.
func (h *BatchHandler) Stock(c *gin.Context) {
	stock, err := h.ledger.GetBatchStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

type aggregateStockRequest struct {
	BatchIDs []string `json:"batch_ids" binding:"required"`
}

// AggregateStock sums harvested and died counts for many batches at once.
func (h *BatchHandler) AggregateStock(c *gin.Context) {
	var req aggregateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	totals, err := h.ledger.GetAggregateStockForBatches(c.Request.Context(), req.BatchIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

type remainderRequest struct {
	Reason string `json:"reason"`
}

// MarkRemainder flags the batch as leftover stock.
func (h *BatchHandler) MarkRemainder(c *gin.Context) {
	var req remainderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	batch, err := h.intake.MarkRemainder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type mortalityRequest struct {
	DeathDate string `json:"death_date" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Cause     string `json:"cause"`
}

// RecordMortality records dead birds against the batch.
func (h *BatchHandler) RecordMortality(c *gin.Context) {
	var req mortalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	day, err := parseDate("death_date", req.DeathDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rec, err := h.mortality.Record(c.Request.Context(), mortality.Input{
		BatchID:   c.Param("id"),
		DeathDate: day,
		Quantity:  req.Quantity,
		Cause:     req.Cause,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
