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

type CostCenterHandler struct {
	costCenterService service.CostCenterService
	auth              *middleware.Auth
}

func NewCostCenterHandler(costCenterService service.CostCenterService, auth *middleware.Auth) *CostCenterHandler {
	return &CostCenterHandler{costCenterService: costCenterService, auth: auth}
}

func (h *CostCenterHandler) RegisterRoutes(router *gin.RouterGroup) {
	managers := h.auth.RequireRole(model.ManagerRoles...)
	accountants := h.auth.RequireRole(model.LedgerRoles...)

	costCenters := router.Group("/api/cost-centers")
	{
		costCenters.GET("", h.auth.RequireAuth(), h.ListCostCenters)
		costCenters.GET("/:id", h.auth.RequireAuth(), h.GetCostCenter)
		costCenters.POST("", managers, h.CreateCostCenter)
		costCenters.PUT("/:id", managers, h.UpdateCostCenter)
		costCenters.DELETE("/:id", managers, h.DeleteCostCenter)

		costCenters.GET("/:id/ledger", accountants, h.ListLedger)
		costCenters.POST("/:id/ledger", accountants, h.CreateLedgerEntry)
		costCenters.DELETE("/:id/ledger/:entryId", accountants, h.DeleteLedgerEntry)
	}
}

// ListCostCenters
// @Summary      List cost centers
// @Tags         cost-centers
// @Produce      json
// @Security     BearerAuth
// @Param        q    query     string  false  "Name fragment"
// @Success      200  {object}  response.Response{data=[]service.CostCenterResponse}
// @Router       /api/cost-centers [get]
func (h *CostCenterHandler) ListCostCenters(c *gin.Context) {
	costCenters, err := h.costCenterService.ListCostCenters(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, costCenters))
}

func (h *CostCenterHandler) GetCostCenter(c *gin.Context) {
	costCenter, err := h.costCenterService.GetCostCenter(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, costCenter))
}

// CreateCostCenter
// @Summary      Create a cost center
// @Tags         cost-centers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CostCenterRequest  true  "Cost center"
// @Success      201      {object}  response.Response{data=service.CostCenterResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/cost-centers [post]
func (h *CostCenterHandler) CreateCostCenter(c *gin.Context) {
	var req service.CostCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	costCenter, err := h.costCenterService.CreateCostCenter(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, costCenter))
}

func (h *CostCenterHandler) UpdateCostCenter(c *gin.Context) {
	var req service.CostCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	costCenter, err := h.costCenterService.UpdateCostCenter(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, costCenter))
}

func (h *CostCenterHandler) DeleteCostCenter(c *gin.Context) {
	if err := h.costCenterService.DeleteCostCenter(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Cost center deleted"}))
}

// ListLedger
// @Summary      Bank ledger of a cost center
// @Tags         cost-centers
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Cost center ID"
// @Param        page   query     int     false  "Page number"   default(1)
// @Param        limit  query     int     false  "Items per page" default(20)
// @Success      200    {object}  response.Response{data=service.LedgerPage}
// @Failure      404    {object}  response.Response
// @Router       /api/cost-centers/{id}/ledger [get]
func (h *CostCenterHandler) ListLedger(c *gin.Context) {
	params := pagination.Parse(c)

	ledger, err := h.costCenterService.ListLedger(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ledger))
}

// CreateLedgerEntry
// @Summary      Record a bank ledger entry
// @Tags         cost-centers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Cost center ID"
// @Param        payload  body      service.LedgerEntryRequest  true  "Entry"
// @Success      201      {object}  response.Response{data=service.LedgerEntryResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/cost-centers/{id}/ledger [post]
func (h *CostCenterHandler) CreateLedgerEntry(c *gin.Context) {
	var req service.LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	entry, err := h.costCenterService.CreateLedgerEntry(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

func (h *CostCenterHandler) DeleteLedgerEntry(c *gin.Context) {
	err := h.costCenterService.DeleteLedgerEntry(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("entryId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Ledger entry deleted"}))
}
