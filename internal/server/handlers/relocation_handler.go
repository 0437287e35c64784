package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/service/relocation"
)

// RelocationHandler exposes bird moves between coops.
type RelocationHandler struct {
	svc    *relocation.Service
	logger *zap.Logger
}

// NewRelocationHandler constructs the relocation HTTP adapter.
func NewRelocationHandler(svc *relocation.Service, logger *zap.Logger) *RelocationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelocationHandler{svc: svc, logger: logger}
}

// Register mounts the relocation routes.
func (h *RelocationHandler) Register(r gin.IRouter) {
	r.POST("/relocations", h.Create)
	r.GET("/relocations/:id", h.Get)
	r.PATCH("/relocations/:id", h.Update)
	r.POST("/relocations/:id/cancel", h.Cancel)
}

type relocationRequest struct {
	SourceCoopID  string `json:"source_coop_id" binding:"required"`
	DestCoopID    string `json:"dest_coop_id" binding:"required"`
	SourceBatchID string `json:"source_batch_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	Date          string `json:"date" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
	Notes         string `json:"notes"`
}

// Create moves birds into a new batch of the destination coop.
func (h *RelocationHandler) Create(c *gin.Context) {
	var req relocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	day, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rec, err := h.svc.Relocate(c.Request.Context(), relocation.Request{
		SourceCoopID:  req.SourceCoopID,
		DestCoopID:    req.DestCoopID,
		SourceBatchID: req.SourceBatchID,
		Quantity:      req.Quantity,
		Date:          day,
		Reason:        models.RelocationReason(req.Reason),
		Notes:         req.Notes,
		ActingUserID:  c.GetHeader(userIDHeader),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Get returns one relocation record.
func (h *RelocationHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type relocationUpdateRequest struct {
	Notes  *string `json:"notes"`
	Status *string `json:"status"`
}

// Update edits the notes or status of a relocation record.
func (h *RelocationHandler) Update(c *gin.Context) {
	var req relocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	upd := relocation.DetailsUpdate{Notes: req.Notes}
	if req.Status != nil {
		status := models.RelocationStatus(*req.Status)
		upd.Status = &status
	}
	rec, err := h.svc.UpdateDetails(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Cancel marks the record cancelled. Bird stock is not moved back.
func (h *RelocationHandler) Cancel(c *gin.Context) {
	rec, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
