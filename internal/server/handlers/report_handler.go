package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/service/reporting"
)

// ReportHandler exposes occupancy snapshots.
type ReportHandler struct {
	svc       *reporting.Service
	canExport bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportHandler constructs the reporting HTTP adapter. canExport tells
// whether a spreadsheet is configured.
func NewReportHandler(svc *reporting.Service, canExport bool, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, canExport: canExport, logger: logger, now: time.Now}
}

// Register mounts the report routes.
func (h *ReportHandler) Register(r gin.IRouter) {
	r.GET("/reports/occupancy", h.Occupancy)
	r.POST("/reports/occupancy/export", h.Export)
}

// Occupancy returns the live count and free room of every coop.
func (h *ReportHandler) Occupancy(c *gin.Context) {
	day, err := queryDay(c, "date", h.now)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rows, err := h.svc.CoopOccupancy(c.Request.Context(), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(dateLayout), "coops": rows})
}

// Export appends today's occupancy to the spreadsheet.
func (h *ReportHandler) Export(c *gin.Context) {
	if !h.canExport {
		c.JSON(http.StatusServiceUnavailable, errorResponse{
			Error:   "unavailable",
			Details: errorDetails{Message: "no spreadsheet configured"},
		})
		return
	}
	n, err := h.svc.ExportOccupancy(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Error("occupancy export failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{
			Error:   "export_failed",
			Details: errorDetails{Message: "unable to export occupancy"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": n})
}
