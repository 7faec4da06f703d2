package handler

import (
	"net/http"
	"strings"

	"opsportal/internal/middleware"
	"opsportal/internal/model"
	"opsportal/internal/service"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

const expenseExportFilename = "projectExpense.xlsx"

type ExpenseHandler struct {
	expenseService service.ExpenseService
	auth           *middleware.Auth
	upload         gin.HandlerFunc
}

// NewExpenseHandler wires the project expense endpoints. upload is the middleware that
// accepts the import spreadsheet.
func NewExpenseHandler(expenseService service.ExpenseService, auth *middleware.Auth, upload gin.HandlerFunc) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auth: auth, upload: upload}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := h.auth.RequireRole(model.ExpenseRoles...)
	approve := h.auth.RequireRole(model.ExpenseApproverRoles...)

	router.GET("/projectExpenseAll", read, h.ListExpenses)
	router.POST("/projectExpenseNew", read, h.CreateExpense)
	router.GET("/projectExpenseTags", read, h.ListTags)
	router.POST("/projectExpenseUpdate", read, h.UpdateExpense)
	router.POST("/projectExpenseReceiveApprove/:id", approve, h.ApproveExpense)
	router.DELETE("/projectExpenseDelete/:id", approve, h.DeleteExpense)
	router.DELETE("/projectExpenseDelete", approve, h.DeleteExpenses)
	router.GET("/projectExpenseExport", read, h.Export)
	router.POST("/projectExpenseImport", read, h.upload, h.Import)
}

// ListExpenses returns every expense with its submitter
// @Summary      List project expenses
// @Tags         projectExpense
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ExpenseResponse}
// @Failure      403  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /projectExpenseAll [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	expenses, err := h.expenseService.ListExpenses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expenses))
}

// CreateExpense
// @Summary      Create a project expense
// @Tags         projectExpense
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateExpenseRequest  true  "Expense"
// @Success      201      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Router       /projectExpenseNew [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// ListTags
// @Summary      List expense tags
// @Tags         projectExpense
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.TagResponse}
// @Router       /projectExpenseTags [get]
func (h *ExpenseHandler) ListTags(c *gin.Context) {
	tags, err := h.expenseService.ListTags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tags))
}

// UpdateExpense overwrites the non-empty fields of the expense identified by tag
// @Summary      Update a project expense by tag
// @Tags         projectExpense
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "{tag, ...fields}"
// @Success      200      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /projectExpenseUpdate [post]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	var patch service.ExpensePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// ApproveExpense
// @Summary      Approve receipt of a project expense
// @Tags         projectExpense
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response{data=service.ExpenseResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /projectExpenseReceiveApprove/{id} [post]
func (h *ExpenseHandler) ApproveExpense(c *gin.Context) {
	expense, err := h.expenseService.ApproveExpense(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// DeleteExpense
// @Summary      Delete one project expense
// @Tags         projectExpense
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /projectExpenseDelete/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Project expense deleted"}))
}

type deleteExpensesRequest struct {
	IDs []string `json:"ids"`
}

// DeleteExpenses removes exactly the listed expenses
// @Summary      Bulk delete project expenses
// @Tags         projectExpense
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      deleteExpensesRequest  true  "{ids: [...]}"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /projectExpenseDelete [delete]
func (h *ExpenseHandler) DeleteExpenses(c *gin.Context) {
	var req deleteExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, service.ErrNoExpenseIDs)
		return
	}

	deleted, err := h.expenseService.DeleteExpenses(c.Request.Context(), middleware.UserID(c), req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": deleted}))
}

// Export streams every expense as an xlsx workbook
// @Summary      Export project expenses
// @Tags         projectExpense
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200
// @Failure      500  {object}  response.Response
// @Router       /projectExpenseExport [get]
func (h *ExpenseHandler) Export(c *gin.Context) {
	data, err := h.expenseService.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+expenseExportFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Import loads the uploaded spreadsheet. Browser form posts are redirected back to the page.
// @Summary      Import project expenses
// @Tags         projectExpense
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        excelFile  formData  file  true  "xlsx or xls workbook"
// @Success      200        {object}  response.Response{data=service.ImportResult}
// @Failure      400        {object}  response.Response
// @Failure      500        {object}  response.Response
// @Router       /projectExpenseImport [post]
func (h *ExpenseHandler) Import(c *gin.Context) {
	filePath := c.GetString(middleware.CtxUploadPath)
	if filePath == "" {
		badRequest(c, "excelFile is required")
		return
	}

	result, err := h.expenseService.Import(c.Request.Context(), middleware.UserID(c), filePath)
	if err != nil {
		writeError(c, err)
		return
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/projectExpense")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
