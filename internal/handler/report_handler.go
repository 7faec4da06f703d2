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

type ReportHandler struct {
	reportService service.ReportService
	auth          *middleware.Auth
}

func NewReportHandler(reportService service.ReportService, auth *middleware.Auth) *ReportHandler {
	return &ReportHandler{reportService: reportService, auth: auth}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	viewers := h.auth.RequireRole(model.ReportViewerRoles...)

	router.GET("/reportGet", viewers, h.ListReports)
	router.GET("/reportGet/:id", viewers, h.GetReport)
	router.POST("/reportSubmission", h.auth.RequireAuth(), h.SubmitReport)
}

// ListReports
// @Summary      Query inspection reports
// @Description  Filters by type, cost center (id or name fragment), calendar day and inspector; newest first
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        reportType  query     string  false  "daily or weekly"
// @Param        costCenter  query     string  false  "Cost center id or name fragment"
// @Param        date        query     string  false  "YYYY-MM-DD or DD-MM-YYYY"
// @Param        inspector   query     string  false  "Inspector user id"
// @Param        page        query     int     false  "Page number"   default(1)
// @Param        limit       query     int     false  "Items per page" default(20)
// @Success      200         {object}  response.Response{data=service.ReportPage}
// @Failure      400         {object}  response.Response
// @Router       /reportGet [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	params := pagination.Parse(c)

	page, err := h.reportService.ListReports(c.Request.Context(), service.ReportQuery{
		ReportType: c.Query("reportType"),
		CostCenter: c.Query("costCenter"),
		Date:       c.Query("date"),
		Inspector:  c.Query("inspector"),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// GetReport
// @Summary      Get one report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportView}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /reportGet/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// SubmitReport files a report for the authenticated inspector
// @Summary      Submit an inspection report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitReportRequest  true  "Report"
// @Success      201      {object}  response.Response{data=service.ReportView}
// @Failure      400      {object}  response.Response
// @Router       /reportSubmission [post]
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	var req service.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	report, err := h.reportService.SubmitReport(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}
