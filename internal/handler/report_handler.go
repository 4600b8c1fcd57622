package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/internal/service"
	appErrors "github.com/worklane/hr-api/pkg/errors"
	"github.com/worklane/hr-api/pkg/response"
)

// ReportHandler exposes timesheet export endpoints.
type ReportHandler struct {
	export *service.ExportService
}

// NewReportHandler constructs handler.
func NewReportHandler(export *service.ExportService) *ReportHandler {
	return &ReportHandler{export: export}
}

// Timesheet godoc
// @Summary Export a worker timesheet as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param workerId query string false "Worker ID (admin only)"
// @Param from query string true "Date from (YYYY-MM-DD)"
// @Param to query string true "Date to (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/timesheet [get]
func (h *ReportHandler) Timesheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	workerID := claims.WorkerID
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleManager {
		if requested := c.Query("workerId"); requested != "" {
			workerID = requested
		}
	}

	from, ok := parseDateQuery(c, "from")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from date is required as YYYY-MM-DD"))
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		to = time.Now().UTC().Truncate(24 * time.Hour)
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	result, err := h.export.Timesheet(c.Request.Context(), workerID, from, to, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
