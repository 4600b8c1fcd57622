package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklane/hr-api/internal/models"
	"github.com/worklane/hr-api/internal/service"
	appErrors "github.com/worklane/hr-api/pkg/errors"
	"github.com/worklane/hr-api/pkg/response"
)

// AttendanceHandler exposes the clock event endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// ClockIn godoc
// @Summary Clock in for the current day
// @Tags Attendance
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /attendance/clock-in [post]
func (h *AttendanceHandler) ClockIn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.WorkerID = claims.WorkerID
	record, err := h.attendance.ClockIn(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// StartBreak godoc
// @Summary Start a break on an open record
// @Tags Attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 201 {object} response.Envelope
// @Router /attendance/{id}/break [post]
func (h *AttendanceHandler) StartBreak(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	interval, err := h.attendance.StartBreak(c.Request.Context(), claims.WorkerID, c.Param("id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, interval)
}

// Resume godoc
// @Summary Resume from the open break
// @Tags Attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/resume [post]
func (h *AttendanceHandler) Resume(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	interval, err := h.attendance.Resume(c.Request.Context(), claims.WorkerID, c.Param("id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interval, nil)
}

// ClockOut godoc
// @Summary Close the record with an end-of-day report
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/clock-out [post]
func (h *AttendanceHandler) ClockOut(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.RecordID = c.Param("id")
	view, err := h.attendance.ClockOut(c.Request.Context(), claims.WorkerID, req, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Today godoc
// @Summary Current open record with break ledger
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.attendance.Today(c.Request.Context(), claims.WorkerID, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param workerId query string false "Worker ID (admin only)"
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.AttendanceFilter{
		WorkerID:  claims.WorkerID,
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleManager {
		if workerID := c.Query("workerId"); workerID != "" {
			filter.WorkerID = workerID
		}
	}
	if from, ok := parseDateQuery(c, "from"); ok {
		filter.DateFrom = &from
	}
	if to, ok := parseDateQuery(c, "to"); ok {
		filter.DateTo = &to
	}
	filter.LeaveOnly = c.Query("leaveOnly") == "true"
	filter.Page = intQuery(c, "page", 1)
	filter.PageSize = intQuery(c, "limit", 50)

	rows, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}
