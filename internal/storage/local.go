package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// LocalStore implements FileStore on the local filesystem
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates baseDir if needed
func NewLocalStore(baseDir string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalStore) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return ErrInvalidPath
	}

	return nil
}

func (s *LocalStore) resolve(rel string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := s.ValidatePath(full); err != nil {
		return "", err
	}
	return full, nil
}

func (s *LocalStore) List(ctx context.Context, dir string) ([]Entry, error) {
	rel, err := CleanPath(dir)
	if err != nil {
		return nil, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	items, err := os.ReadDir(full)
	if err != nil {
		return nil, mapFSError(err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		info, err := item.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		entries = append(entries, entryFromInfo(rel, info))
	}
	sortEntries(entries)
	return entries, nil
}

func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, Entry, error) {
	rel, err := cleanTarget(name)
	if err != nil {
		return nil, Entry{}, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return nil, Entry{}, err
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, Entry{}, mapFSError(err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Entry{}, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, Entry{}, fmt.Errorf("%s is a directory", rel)
	}
	return f, entryFromInfo(path.Dir(rel), info), nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	rel, err := cleanTarget(name)
	if err != nil {
		return 0, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		s.logger.Error("Failed to create parent directories", zap.String("path", full), zap.Error(err))
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved", zap.String("path", rel), zap.Int64("size", n))
	return n, nil
}

func (s *LocalStore) Remove(ctx context.Context, name string) error {
	rel, err := cleanTarget(name)
	if err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	return mapFSError(os.Remove(full))
}

func (s *LocalStore) Mkdir(ctx context.Context, dir string) error {
	rel, err := cleanTarget(dir)
	if err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0755)
}

func (s *LocalStore) Rename(ctx context.Context, from, to string) error {
	src, err := cleanTarget(from)
	if err != nil {
		return err
	}
	dst, err := cleanTarget(to)
	if err != nil {
		return err
	}
	srcFull, err := s.resolve(src)
	if err != nil {
		return err
	}
	dstFull, err := s.resolve(dst)
	if err != nil {
		return err
	}
	return mapFSError(os.Rename(srcFull, dstFull))
}

func (s *LocalStore) Close() error {
	return nil
}

func entryFromInfo(dir string, info fs.FileInfo) Entry {
	return Entry{
		Name:    info.Name(),
		Path:    joinRel(dir, info.Name()),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
}

// sortEntries lists directories first, then by name
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	}
	return err
}
