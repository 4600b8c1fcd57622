package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklane/hr-api/internal/service"
	appErrors "github.com/worklane/hr-api/pkg/errors"
	"github.com/worklane/hr-api/pkg/response"
)

// LeaveHandler exposes leave request and approval endpoints.
type LeaveHandler struct {
	leave *service.LeaveService
}

// NewLeaveHandler constructs handler.
func NewLeaveHandler(leave *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leave: leave}
}

// Request godoc
// @Summary Request leave for an inclusive date range
// @Tags Leave
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.WorkerID = claims.WorkerID
	records, err := h.leave.ExpandAndStore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, records)
}

// Approve godoc
// @Summary Approve a pending leave day
// @Tags Leave
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id}/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.leave.Approve(c.Request.Context(), c.Param("id"), claims.WorkerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Reject godoc
// @Summary Reject a pending leave day
// @Tags Leave
// @Produce json
// @Param id path string true "Record ID"
// @Success 204
// @Router /leaves/{id} [delete]
func (h *LeaveHandler) Reject(c *gin.Context) {
	if err := h.leave.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkApprove godoc
// @Summary Approve a batch of pending leave days
// @Tags Leave
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/bulk-approve [post]
func (h *LeaveHandler) BulkApprove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.BulkLeaveActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	records, err := h.leave.BulkApprove(c.Request.Context(), req, claims.WorkerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// BulkReject godoc
// @Summary Reject a batch of pending leave days
// @Tags Leave
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/bulk-reject [post]
func (h *LeaveHandler) BulkReject(c *gin.Context) {
	var req service.BulkLeaveActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	records, err := h.leave.BulkReject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
