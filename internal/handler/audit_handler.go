package handler

import (
	"net/http"

	"opsportal/internal/middleware"
	"opsportal/internal/model"
	"opsportal/internal/service"
	"opsportal/pkg/pagination"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Auth
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Auth) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.auth.RequireRole(model.ManagerRoles...)) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs pages through the audit trail, newest first
// @Summary      Get audit logs
// @Description  Filters by action, entity id, acting user and calendar day
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Action filter, e.g. APPROVE_PROJECT_EXPENSE"
// @Param        entity_id  query     string  false  "Entity id filter"
// @Param        user       query     string  false  "Acting user id"
// @Param        date       query     string  false  "YYYY-MM-DD or DD-MM-YYYY"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=service.AuditPage}
// @Failure      400        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	page, err := h.auditService.GetAuditLogs(c.Request.Context(), service.AuditQuery{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		User:     c.Query("user"),
		Date:     c.Query("date"),
		Page:     params.Page,
		Limit:    params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}
