package handler

import (
	"net/http"

	"opsportal/internal/middleware"
	"opsportal/internal/model"

	"github.com/gin-gonic/gin"
)

// PageHandler renders the server-side HTML shells; the tables inside are filled by
// the static scripts calling the JSON endpoints.
type PageHandler struct {
	auth *middleware.Auth
}

func NewPageHandler(auth *middleware.Auth) *PageHandler {
	return &PageHandler{auth: auth}
}

func (h *PageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/login", h.Login)

	router.GET("/", h.auth.RequirePage(), h.render("index.html", "Trang chủ / Home"))
	router.GET("/projectExpense", h.auth.RequirePage(model.ExpenseRoles...), h.render("project_expense.html", "Chi phí dự án / Project expenses"))
	router.GET("/reportSummary", h.auth.RequirePage(model.ReportViewerRoles...), h.render("report_summary.html", "Tổng hợp báo cáo / Report summary"))
	router.GET("/reportSubmission", h.auth.RequirePage(), h.render("report_submission.html", "Nộp báo cáo / Submit report"))
	router.GET("/files", h.auth.RequirePage(), h.render("files.html", "Tệp / Files"))
	router.GET("/chat", h.auth.RequirePage(), h.render("chat.html", "Tin nhắn / Chat"))
}

func (h *PageHandler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title": "Đăng nhập / Login",
		"Error": c.Query("error") != "",
	})
}

func (h *PageHandler) render(template, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, template, gin.H{
			"Title":  title,
			"UserID": middleware.UserID(c),
			"Role":   c.GetString(middleware.CtxUserRole),
		})
	}
}
