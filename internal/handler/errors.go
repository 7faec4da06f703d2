package handler

import (
	"errors"

	"opsportal/internal/apperror"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError renders err with the status of its kind
func writeError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.StatusCode(kind)

	msg := err.Error()
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		msg = appErr.Error()
	}
	if kind == apperror.KindInternal {
		_ = c.Error(err)
	}
	c.JSON(status, response.Error(status, string(kind), msg))
}

func badRequest(c *gin.Context, msg string) {
	writeError(c, apperror.Validation(msg))
}
