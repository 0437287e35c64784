package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

const (
	dateLayout   = "2006-01-02"
	userIDHeader = "X-User-ID"
)

type errorDetails struct {
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Details errorDetails `json:"details"`
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindValidation, models.KindInvalidSplit, models.KindCapacityExceeded, models.KindInsufficientStock:
		return http.StatusBadRequest
	case models.KindInvalidState, models.KindConflict:
		return http.StatusConflict
	case models.KindTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var domainErr *models.Error
	if !errors.As(err, &domainErr) {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "internal",
			Details: errorDetails{Message: "internal error"},
		})
		return
	}

	status := statusFor(domainErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, errorResponse{
		Error: string(domainErr.Kind),
		Details: errorDetails{
			Entity:  domainErr.Entity,
			ID:      domainErr.ID,
			Field:   domainErr.Field,
			Message: domainErr.Message,
		},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:   string(models.KindValidation),
		Details: errorDetails{Field: "body", Message: err.Error()},
	})
}

// parseDate accepts a calendar day or an RFC3339 timestamp. Empty input
// yields the zero time.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, models.Invalid(field, "expected YYYY-MM-DD, got %q", raw)
	}
	return t.UTC(), nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(c *gin.Context, field string) (int, error) {
	raw := c.Query(field)
	if raw == "" {
		return 0, models.Invalid(field, "is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.Invalid(field, "must be an integer")
	}
	return n, nil
}

func queryDecimal(c *gin.Context, field string) (decimal.Decimal, error) {
	raw := c.Query(field)
	if raw == "" {
		return decimal.Zero, models.Invalid(field, "is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, models.Invalid(field, "must be a number")
	}
	return d, nil
}

// queryDay reads a date query parameter, defaulting to today in UTC.
func queryDay(c *gin.Context, field string, now func() time.Time) (time.Time, error) {
	t, err := parseDate(field, c.Query(field))
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		t = now().UTC()
	}
	return t, nil
}
