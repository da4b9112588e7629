package handler

import (
	"net/http"

	"tussles/internal/middleware"
	"tussles/internal/model"
	"tussles/internal/repository"
	"tussles/internal/service"
	"tussles/pkg/pagination"
	"tussles/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(middleware.RequireRole(model.RoleOwner)) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// AuditLogPage is one page of audit entries.
type AuditLogPage struct {
	Logs  []service.AuditLogResponse `json:"logs"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

// GetAuditLogs retrieves paginated audit entries with the acting user's name
// @Summary      Get audit logs
// @Description  Order and company changes, newest first
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20, max 100)"
// @Param        action     query     string  false  "CREATE_ORDER, APPROVE_ORDER or CREATE_COMPANY"
// @Param        entity_id  query     string  false  "Entity ID"
// @Success      200        {object}  response.Response{data=AuditLogPage}
// @Failure      403        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(AuditLogPage{
		Logs:  logs,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}
