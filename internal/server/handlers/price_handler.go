package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/service/pricing"
)

// PriceHandler exposes market price management.
type PriceHandler struct {
	svc    *pricing.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewPriceHandler constructs the market price HTTP adapter.
func NewPriceHandler(svc *pricing.Service, logger *zap.Logger) *PriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceHandler{svc: svc, logger: logger, now: time.Now}
}

// Register mounts the price routes.
func (h *PriceHandler) Register(r gin.IRouter) {
	r.POST("/prices", h.Create)
	r.GET("/prices", h.List)
	r.GET("/prices/active", h.Active)
	r.POST("/prices/deactivate", h.DeactivateAll)
	r.POST("/prices/sync", h.Sync)
	r.GET("/prices/:id", h.Get)
	r.POST("/prices/:id/activate", h.Activate)
}

type priceRequest struct {
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	StartDate    string          `json:"start_date" binding:"required"`
	EndDate      *string         `json:"end_date"`
	IsActive     bool            `json:"is_active"`
	Region       string          `json:"region"`
}

// Create stores a manually entered price.
func (h *PriceHandler) Create(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	price, err := h.svc.Create(c.Request.Context(), pricing.Input{
		PricePerUnit: req.PricePerUnit,
		StartDate:    start,
		EndDate:      end,
		IsActive:     req.IsActive,
		Region:       req.Region,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, price)
}

// List returns prices, newest first. active=true keeps active rows only.
func (h *PriceHandler) List(c *gin.Context) {
	prices, err := h.svc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

// Get returns one price.
func (h *PriceHandler) Get(c *gin.Context) {
	price, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

// Active returns the price in force on date for an optional region.
func (h *PriceHandler) Active(c *gin.Context) {
	day, err := queryDay(c, "date", h.now)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	price, err := h.svc.ActiveOn(c.Request.Context(), day, c.Query("region"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

// Activate makes the price the only active one.
func (h *PriceHandler) Activate(c *gin.Context) {
	price, err := h.svc.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

// DeactivateAll switches every price off.
func (h *PriceHandler) DeactivateAll(c *gin.Context) {
	n, err := h.svc.DeactivateAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": n})
}

// Sync pulls the latest quote from the price feed.
func (h *PriceHandler) Sync(c *gin.Context) {
	price, err := h.svc.PublishFromFeed(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, price)
}
