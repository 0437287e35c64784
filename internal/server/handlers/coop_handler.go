package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/service/capacity"
	"github.com/mamadbah2/kandang/internal/service/intake"
	"github.com/mamadbah2/kandang/internal/service/ledger"
)

// CoopHandler exposes coop registration, capacity and live stock queries.
type CoopHandler struct {
	intake   *intake.Service
	capacity *capacity.Service
	ledger   *ledger.Service
	logger   *zap.Logger
	now      func() time.Time
}

// NewCoopHandler constructs the coop HTTP adapter.
func NewCoopHandler(in *intake.Service, capSvc *capacity.Service, ledgerSvc *ledger.Service, logger *zap.Logger) *CoopHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoopHandler{intake: in, capacity: capSvc, ledger: ledgerSvc, logger: logger, now: time.Now}
}

// Register mounts the coop routes.
func (h *CoopHandler) Register(r gin.IRouter) {
	r.POST("/coops", h.Create)
	r.GET("/coops", h.List)
	r.GET("/coops/:id", h.Get)
	r.GET("/coops/:id/capacity", h.Capacity)
	r.GET("/coops/:id/intake-check", h.IntakeCheck)
	r.GET("/coops/:id/live-batches", h.LiveBatches)
}

type createCoopRequest struct {
	Name              string `json:"name" binding:"required"`
	Capacity          int    `json:"capacity" binding:"required,gt=0"`
	Location          string `json:"location"`
	ResponsibleUserID string `json:"responsible_user_id"`
}

// Create registers a new coop.
func (h *CoopHandler) Create(c *gin.Context) {
	var req createCoopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	coop, err := h.intake.RegisterCoop(c.Request.Context(), intake.CoopInput{
		Name:              req.Name,
		Capacity:          req.Capacity,
		Location:          req.Location,
		ResponsibleUserID: req.ResponsibleUserID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, coop)
}

// List returns every coop.
func (h *CoopHandler) List(c *gin.Context) {
	coops, err := h.intake.ListCoops(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coops": coops})
}

// Get returns one coop.
func (h *CoopHandler) Get(c *gin.Context) {
	coop, err := h.intake.GetCoop(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coop)
}

// Capacity answers how many birds the coop can take on planned_entry_date.
func (h *CoopHandler) Capacity(c *gin.Context) {
	planned, err := queryDay(c, "planned_entry_date", h.now)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	out, err := h.capacity.CheckCapacity(c.Request.Context(), c.Param("id"), planned)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// IntakeCheck evaluates a planned intake quantity without persisting it.
func (h *CoopHandler) IntakeCheck(c *gin.Context) {
	planned, err := queryDay(c, "planned_entry_date", h.now)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	qty, err := queryInt(c, "quantity")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	out, err := h.capacity.CheckIntake(c.Request.Context(), c.Param("id"), planned, qty)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// LiveBatches lists the coop's batches that still hold birds, oldest first.
func (h *CoopHandler) LiveBatches(c *gin.Context) {
	live, err := h.ledger.GetCoopLiveBatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": live})
}
