package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/service/supplies"
)

// SupplyHandler exposes feed and vaccine stock plus batch costs.
type SupplyHandler struct {
	svc    *supplies.Service
	logger *zap.Logger
}

// NewSupplyHandler constructs the supplies HTTP adapter.
func NewSupplyHandler(svc *supplies.Service, logger *zap.Logger) *SupplyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplyHandler{svc: svc, logger: logger}
}

// Register mounts the supplies and batch cost routes.
func (h *SupplyHandler) Register(r gin.IRouter) {
	r.POST("/supplies", h.Create)
	r.GET("/supplies/:id", h.Get)
	r.POST("/supplies/:id/restock", h.Restock)
	r.GET("/supplies/:id/availability", h.Availability)
	r.POST("/supplies/:id/usages", h.RecordUsage)
	r.POST("/batches/:id/costs", h.RecordCost)
	r.GET("/batches/:id/cost", h.BatchCost)
}

type supplyItemRequest struct {
	Kind     string          `json:"kind" binding:"required,oneof=feed vaccine"`
	Name     string          `json:"name" binding:"required"`
	Unit     string          `json:"unit" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Create adds a supply stock line.
func (h *SupplyHandler) Create(c *gin.Context) {
	var req supplyItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), supplies.ItemInput{
		Kind:     models.SupplyKind(req.Kind),
		Name:     req.Name,
		Unit:     req.Unit,
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Get returns one supply item.
func (h *SupplyHandler) Get(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type restockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// Restock adds quantity to a supply item.
func (h *SupplyHandler) Restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.svc.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Availability checks whether quantity can be drawn from the item.
func (h *SupplyHandler) Availability(c *gin.Context) {
	qty, err := queryDecimal(c, "quantity")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	avail, err := h.svc.CheckAvailability(c.Request.Context(), c.Param("id"), qty)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

type usageRequest struct {
	BatchID  string          `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UsedAt   string          `json:"used_at"`
}

// RecordUsage debits the item and charges the optional batch.
func (h *SupplyHandler) RecordUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	usedAt, err := parseDate("used_at", req.UsedAt)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	usage, err := h.svc.RecordUsage(c.Request.Context(), supplies.UsageInput{
		SupplyID: c.Param("id"),
		BatchID:  req.BatchID,
		Quantity: req.Quantity,
		UsedAt:   usedAt,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, usage)
}

type costRequest struct {
	Category   string          `json:"category" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	IncurredAt string          `json:"incurred_at"`
	Notes      string          `json:"notes"`
}

// RecordCost attributes an operational expense to a batch.
func (h *SupplyHandler) RecordCost(c *gin.Context) {
	var req costRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	at, err := parseDate("incurred_at", req.IncurredAt)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	cost, err := h.svc.RecordOperationalCost(c.Request.Context(), supplies.CostInput{
		BatchID:    c.Param("id"),
		Category:   req.Category,
		Amount:     req.Amount,
		IncurredAt: at,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cost)
}

// BatchCost returns the total cost charged to a batch.
func (h *SupplyHandler) BatchCost(c *gin.Context) {
	total, err := h.svc.BatchCost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": c.Param("id"), "cost": total})
}
