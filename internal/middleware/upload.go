package middleware

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"opsportal/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CtxUploadPath holds the on-disk path of the file accepted by SingleUpload
const CtxUploadPath = "uploadPath"

// SpreadsheetMIMETypes is the allow-list for expense imports
var SpreadsheetMIMETypes = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
}

// SingleUpload accepts one multipart file from field, checks its MIME type against
// allowed and saves it under dir as <field>-<unixnano>-<random><ext>.
// The handler owns the saved file from then on.
func SingleUpload(field, dir string, maxSize int64, allowed []string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		fh, err := c.FormFile(field)
		if err != nil {
			abort(c, apperror.KindValidation, fmt.Sprintf("file field %q is required", field))
			return
		}

		contentType := fh.Header.Get("Content-Type")
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mediaType
		}
		if !allowedType(contentType, allowed) {
			abort(c, apperror.KindValidation, "Định dạng tệp không được hỗ trợ / Unsupported file type: "+contentType)
			return
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("Failed to create upload dir", zap.String("dir", dir), zap.Error(err))
			abort(c, apperror.KindInternal, "failed to store upload")
			return
		}

		ext := strings.ToLower(filepath.Ext(fh.Filename))
		name := fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixNano(), uuid.NewString()[:8], ext)
		dst := filepath.Join(dir, name)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			logger.Error("Failed to save upload", zap.String("path", dst), zap.Error(err))
			abort(c, apperror.KindInternal, "failed to store upload")
			return
		}

		c.Set(CtxUploadPath, dst)
		c.Next()
	}
}

func allowedType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
