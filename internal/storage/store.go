package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrInvalidPath is returned for any path that would leave the store root
	ErrInvalidPath = errors.New("path escapes store root")
	ErrNotExist    = errors.New("file does not exist")
)

// Entry describes one file or directory in a store
type Entry struct {
	Name    string
	Path    string // slash-separated, relative to the store root
	Size    int64
	IsDir   bool
	ModTime time.Time
}

// FileStore is the managed file area. Every path argument is slash-separated and
// relative to the store root.
type FileStore interface {
	List(ctx context.Context, dir string) ([]Entry, error)
	Open(ctx context.Context, name string) (io.ReadCloser, Entry, error)
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	// Remove deletes a file or an empty directory
	Remove(ctx context.Context, name string) error
	Mkdir(ctx context.Context, dir string) error
	Rename(ctx context.Context, from, to string) error
	Close() error
}

// CleanPath normalises p to a rooted slash path ("/" for the root itself).
// Any ".." segment is rejected instead of being clamped.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	if strings.ContainsRune(p, 0) {
		return "", ErrInvalidPath
	}
	return path.Clean("/" + p), nil
}

// cleanTarget is CleanPath for operations that must not touch the root itself
func cleanTarget(p string) (string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if cleaned == "/" {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func joinRel(dir, name string) string {
	return strings.TrimPrefix(path.Join(dir, name), "/")
}
