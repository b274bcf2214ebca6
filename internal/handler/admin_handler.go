package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aramartialarts/portal-backend/internal/response"
	"github.com/aramartialarts/portal-backend/internal/service"
)

// AdminHandler handles the shared-key-gated reporting endpoints.
type AdminHandler struct {
	reportService *service.ReportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reportService *service.ReportService) *AdminHandler {
	return &AdminHandler{reportService: reportService}
}

// GetActivity godoc
// GET /portal/admin/activity?limit=N
// Returns the most recent login events (newest first, limit clamped to
// [1,1000], default 200) plus the per-student activity summary.
func (h *AdminHandler) GetActivity(c *gin.Context) {
	report, err := h.reportService.Activity(c.Request.Context(), c.Query("limit"))
	if err != nil {
		response.FailErr(c, http.StatusInternalServerError, response.ErrInternal, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
