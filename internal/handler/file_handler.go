package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"opsportal/internal/middleware"
	"opsportal/internal/service"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService service.FileService
	auth        *middleware.Auth
	maxUpload   int64
}

func NewFileHandler(fileService service.FileService, auth *middleware.Auth, maxUpload int64) *FileHandler {
	return &FileHandler{fileService: fileService, auth: auth, maxUpload: maxUpload}
}

func (h *FileHandler) RegisterRoutes(router *gin.RouterGroup) {
	files := router.Group("/api/files")
	files.Use(h.auth.RequireAuth())
	{
		files.GET("", h.List)
		files.POST("/upload", h.Upload)
		files.GET("/download", h.Download)
		files.POST("/mkdir", h.Mkdir)
		files.POST("/rename", h.Rename)
		files.DELETE("", h.Remove)
	}
}

// List
// @Summary      List a directory
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        path  query     string  false  "Directory, relative to the store root"
// @Success      200   {object}  response.Response{data=[]service.FileEntryResponse}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/files [get]
func (h *FileHandler) List(c *gin.Context) {
	entries, err := h.fileService.List(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// Upload
// @Summary      Upload files into a directory
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        path   query     string  false  "Target directory"
// @Param        files  formData  file    true   "One or more files"
// @Success      201    {object}  response.Response{data=[]service.FileEntryResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/files/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Invalid multipart form: "+err.Error())
		return
	}

	saved, err := h.fileService.Upload(c.Request.Context(), c.Query("path"), form.File["files"])
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, saved))
}

// Download streams one file as an attachment
// @Summary      Download a file
// @Tags         files
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        path  query  string  true  "File path"
// @Success      200
// @Failure      404   {object}  response.Response
// @Router       /api/files/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	dl, err := h.fileService.Download(c.Request.Context(), c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer dl.Body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Name))
	c.Header("Content-Length", strconv.FormatInt(dl.Size, 10))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, dl.Body); err != nil {
		_ = c.Error(err)
	}
}

// Mkdir
// @Summary      Create a directory
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.MkdirRequest  true  "Directory"
// @Success      201      {object}  response.Response
// @Router       /api/files/mkdir [post]
func (h *FileHandler) Mkdir(c *gin.Context) {
	var req service.MkdirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.fileService.Mkdir(c.Request.Context(), req.Path); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"path": req.Path}))
}

// Rename
// @Summary      Rename or move an entry
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RenameRequest  true  "From and to"
// @Success      200      {object}  response.Response
// @Router       /api/files/rename [post]
func (h *FileHandler) Rename(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.fileService.Rename(c.Request.Context(), req.From, req.To); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"from": req.From, "to": req.To}))
}

// Remove deletes a file or an empty directory
// @Summary      Delete a file
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        path  query     string  true  "File path"
// @Success      200   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/files [delete]
func (h *FileHandler) Remove(c *gin.Context) {
	if err := h.fileService.Remove(c.Request.Context(), middleware.UserID(c), c.Query("path")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Deleted"}))
}
