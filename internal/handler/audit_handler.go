package handler

import (
	"net/http"

	"tem-backend/internal/middleware"
	"tem-backend/internal/model"
	"tem-backend/internal/service"
	"tem-backend/pkg/pagination"
	"tem-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, authed gin.HandlerFunc) {
	group := router.Group("/api/audit-logs")
	group.Use(authed, middleware.RequireRole(model.RoleAdmin))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves strictly paginated records with actors pre-loaded
// @Summary      Get audit logs
// @Description  Retrieves the audit trail of critical system changes. Admin only.
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"audit_logs": logs,
		"pagination": pagination.NewMeta(params, total),
	}))
}
