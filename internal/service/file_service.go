package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/storage"
	"opsportal/pkg/timefmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FileEntryResponse struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	HumanSize  string `json:"human_size"`
	IsDir      bool   `json:"is_dir"`
	ModifiedAt string `json:"modified_at"`
	Modified   string `json:"modified"` // relative, e.g. "3 hours ago"
}

type MkdirRequest struct {
	Path string `json:"path" binding:"required"`
}

type RenameRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// Download is an open file ready to stream; the caller closes Body
type Download struct {
	Name string
	Size int64
	Body io.ReadCloser
}

type FileService interface {
	List(ctx context.Context, dir string) ([]FileEntryResponse, error)
	Upload(ctx context.Context, dir string, files []*multipart.FileHeader) ([]FileEntryResponse, error)
	Download(ctx context.Context, name string) (*Download, error)
	Mkdir(ctx context.Context, dir string) error
	Rename(ctx context.Context, from, to string) error
	Remove(ctx context.Context, userID, name string) error
}

type fileService struct {
	store     storage.FileStore
	auditRepo repository.AuditRepository
	logger    *zap.Logger
}

func NewFileService(store storage.FileStore, auditRepo repository.AuditRepository, logger *zap.Logger) FileService {
	return &fileService{store: store, auditRepo: auditRepo, logger: logger}
}

func (s *fileService) List(ctx context.Context, dir string) ([]FileEntryResponse, error) {
	entries, err := s.store.List(ctx, dir)
	if err != nil {
		return nil, fileError(err, dir)
	}

	res := make([]FileEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toFileEntryResponse(e))
	}
	return res, nil
}

func (s *fileService) Upload(ctx context.Context, dir string, files []*multipart.FileHeader) ([]FileEntryResponse, error) {
	if len(files) == 0 {
		return nil, apperror.Validation("no files uploaded")
	}
	base, err := storage.CleanPath(dir)
	if err != nil {
		return nil, fileError(err, dir)
	}

	saved := make([]FileEntryResponse, 0, len(files))
	for _, fh := range files {
		name := path.Base(strings.ReplaceAll(fh.Filename, `\`, "/"))
		if name == "." || name == "/" || name == ".." {
			return saved, apperror.Validation("invalid file name: " + fh.Filename)
		}

		src, err := fh.Open()
		if err != nil {
			return saved, apperror.Internal(err)
		}
		target := path.Join(base, name)
		n, err := s.store.Save(ctx, target, src)
		_ = src.Close()
		if err != nil {
			return saved, fileError(err, target)
		}

		saved = append(saved, FileEntryResponse{
			Name:      name,
			Path:      strings.TrimPrefix(target, "/"),
			Size:      n,
			HumanSize: humanize.Bytes(uint64(n)),
		})
	}

	s.logger.Info("Files uploaded", zap.String("dir", base), zap.Int("count", len(saved)))
	return saved, nil
}

func (s *fileService) Download(ctx context.Context, name string) (*Download, error) {
	body, entry, err := s.store.Open(ctx, name)
	if err != nil {
		return nil, fileError(err, name)
	}
	return &Download{Name: entry.Name, Size: entry.Size, Body: body}, nil
}

func (s *fileService) Mkdir(ctx context.Context, dir string) error {
	if err := s.store.Mkdir(ctx, dir); err != nil {
		return fileError(err, dir)
	}
	return nil
}

func (s *fileService) Rename(ctx context.Context, from, to string) error {
	if err := s.store.Rename(ctx, from, to); err != nil {
		return fileError(err, from)
	}
	return nil
}

func (s *fileService) Remove(ctx context.Context, userID, name string) error {
	if err := s.store.Remove(ctx, name); err != nil {
		return fileError(err, name)
	}

	actor, _ := uuid.Parse(userID)
	if err := s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     nilIfZero(actor),
		Action:     model.ActionDeleteFile,
		EntityName: name,
	}); err != nil {
		s.logger.Warn("Failed to write file audit log", zap.String("path", name), zap.Error(err))
	}
	return nil
}

func fileError(err error, p string) error {
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		return apperror.Validation("invalid path: " + p)
	case errors.Is(err, storage.ErrNotExist):
		return apperror.NotFound("file not found: " + p)
	}
	return apperror.Internal(err)
}

func toFileEntryResponse(e storage.Entry) FileEntryResponse {
	resp := FileEntryResponse{
		Name:       e.Name,
		Path:       e.Path,
		Size:       e.Size,
		IsDir:      e.IsDir,
		ModifiedAt: timefmt.Format(e.ModTime),
		Modified:   humanize.Time(e.ModTime),
	}
	if !e.IsDir {
		resp.HumanSize = humanize.Bytes(uint64(e.Size))
	}
	return resp
}
