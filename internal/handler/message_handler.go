package handler

import (
	"net/http"

	"opsportal/internal/middleware"
	"opsportal/internal/service"
	"opsportal/pkg/pagination"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService service.MessageService
	auth           *middleware.Auth
}

func NewMessageHandler(messageService service.MessageService, auth *middleware.Auth) *MessageHandler {
	return &MessageHandler{messageService: messageService, auth: auth}
}

func (h *MessageHandler) RegisterRoutes(router *gin.RouterGroup) {
	messages := router.Group("/api/messages")
	messages.Use(h.auth.RequireAuth())
	{
		messages.GET("/:room", h.ListMessages)
		messages.POST("/:room", h.PostMessage)
	}
}

// ListMessages
// @Summary      Room history
// @Description  Messages of one room, newest first
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        room   path      string  true   "Room name"
// @Param        page   query     int     false  "Page number"    default(1)
// @Param        limit  query     int     false  "Items per page" default(20)
// @Success      200    {object}  response.Response{data=service.MessagePage}
// @Router       /api/messages/{room} [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	params := pagination.Parse(c)

	page, err := h.messageService.ListMessages(c.Request.Context(), c.Param("room"), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// PostMessage persists a message and pushes it to the room's websocket subscribers
// @Summary      Post to a room
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        room     path      string                      true  "Room name"
// @Param        payload  body      service.PostMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=service.MessageResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/messages/{room} [post]
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req service.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	msg, err := h.messageService.PostMessage(c.Request.Context(), middleware.UserID(c), c.Param("room"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, msg))
}
