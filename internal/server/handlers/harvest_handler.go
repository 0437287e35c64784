package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/service/harvest"
	"github.com/mamadbah2/kandang/internal/service/profitability"
)

// HarvestHandler exposes harvest allocation and per-harvest profitability.
type HarvestHandler struct {
	allocator     *harvest.Allocator
	profitability *profitability.Service
	logger        *zap.Logger
}

// NewHarvestHandler constructs the harvest HTTP adapter.
func NewHarvestHandler(allocator *harvest.Allocator, profit *profitability.Service, logger *zap.Logger) *HarvestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HarvestHandler{allocator: allocator, profitability: profit, logger: logger}
}

// Register mounts the harvest routes.
func (h *HarvestHandler) Register(r gin.IRouter) {
	r.POST("/harvests", h.Create)
	r.GET("/harvests/:id", h.Get)
	r.GET("/harvests/:id/profitability", h.Profitability)
}

type harvestRequest struct {
	CoopID          string          `json:"coop_id" binding:"required"`
	HarvestDate     string          `json:"harvest_date" binding:"required"`
	Mode            string          `json:"mode"`
	TotalQuantity   int             `json:"total_quantity" binding:"required,gt=0"`
	AverageWeight   decimal.Decimal `json:"average_weight"`
	QuantityFromOld int             `json:"quantity_from_old"`
	QuantityFromNew int             `json:"quantity_from_new"`
	OldBatchID      string          `json:"old_batch_id"`
	NewBatchID      string          `json:"new_batch_id"`
}

// Create allocates a harvest request across the coop's batches.
func (h *HarvestHandler) Create(c *gin.Context) {
	var req harvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	day, err := parseDate("harvest_date", req.HarvestDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	mode := models.HarvestMode(req.Mode)
	if mode == "" {
		mode = models.HarvestAutoFIFO
	}
	records, err := h.allocator.Allocate(c.Request.Context(), harvest.Request{
		CoopID:          req.CoopID,
		HarvestDate:     day,
		Mode:            mode,
		TotalQuantity:   req.TotalQuantity,
		AverageWeight:   req.AverageWeight,
		QuantityFromOld: req.QuantityFromOld,
		QuantityFromNew: req.QuantityFromNew,
		OldBatchID:      req.OldBatchID,
		NewBatchID:      req.NewBatchID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"harvests": records})
}

// Get returns one harvest record.
func (h *HarvestHandler) Get(c *gin.Context) {
	rec, err := h.allocator.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Profitability returns the revenue and cost breakdown of a harvest. The
// profitability field is null when no active price covers the harvest date.
func (h *HarvestHandler) Profitability(c *gin.Context) {
	out, err := h.profitability.ComputeProfitability(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": out != nil, "profitability": out})
}
