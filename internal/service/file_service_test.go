package service_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	"opsportal/internal/storage"
	dbtest "opsportal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func multipartFiles(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/files/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["files"]
}

func newFileService(t *testing.T) (service.FileService, *model.User, repository.AuditRepository) {
	t.Helper()
	db := dbtest.NewDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	audit := repository.NewAuditRepository(db)
	admin := dbtest.User(t, db, "admin", model.RoleSuperAdmin, "IT", nil)
	return service.NewFileService(store, audit, zap.NewNop()), admin, audit
}

func TestFileServiceRoundTrip(t *testing.T) {
	svc, admin, audit := newFileService(t)
	ctx := context.Background()

	saved, err := svc.Upload(ctx, "contracts", multipartFiles(t, map[string]string{`C:\scans\deal.pdf`: "pdf-bytes"}))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "deal.pdf", saved[0].Name)
	assert.Equal(t, "contracts/deal.pdf", saved[0].Path)
	assert.Equal(t, "9 B", saved[0].HumanSize)

	listing, err := svc.List(ctx, "contracts")
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.NotEmpty(t, listing[0].Modified)

	dl, err := svc.Download(ctx, "contracts/deal.pdf")
	require.NoError(t, err)
	content, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	require.NoError(t, dl.Body.Close())
	assert.Equal(t, "pdf-bytes", string(content))

	require.NoError(t, svc.Rename(ctx, "contracts/deal.pdf", "contracts/deal-2024.pdf"))
	require.NoError(t, svc.Remove(ctx, admin.ID.String(), "contracts/deal-2024.pdf"))

	logs, total, err := audit.List(ctx, repository.AuditFilter{Action: model.ActionDeleteFile}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "contracts/deal-2024.pdf", logs[0].EntityName)
}

func TestFileServiceErrors(t *testing.T) {
	svc, admin, _ := newFileService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "../etc")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.Download(ctx, "missing.txt")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.Remove(ctx, admin.ID.String(), "missing.txt")))

	_, err = svc.Upload(ctx, "/", nil)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
