package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPConfig describes the remote file server
type SFTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Root       string
	Timeout    time.Duration
	KnownHosts string
}

// SFTPStore implements FileStore on a remote SFTP server. Paths are joined under Root.
type SFTPStore struct {
	conn   *ssh.Client
	client *sftp.Client
	root   string
	logger *zap.Logger
}

// DialSFTP opens the SSH connection and the SFTP subsystem on top of it
func DialSFTP(cfg SFTPConfig, logger *zap.Logger) (*SFTPStore, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		cb, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial sftp server %s: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}

	root := cfg.Root
	if root == "" {
		root = "/"
	}

	logger.Info("Connected to SFTP server", zap.String("addr", addr), zap.String("root", root))
	return &SFTPStore{conn: conn, client: client, root: root, logger: logger}, nil
}

func (s *SFTPStore) remote(rel string) string {
	return path.Join(s.root, rel)
}

func (s *SFTPStore) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := CleanPath(dir)
	if err != nil {
		return nil, err
	}

	infos, err := s.client.ReadDir(s.remote(rel))
	if err != nil {
		return nil, mapFSError(err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(rel, info))
	}
	sortEntries(entries)
	return entries, nil
}

func (s *SFTPStore) Open(ctx context.Context, name string) (io.ReadCloser, Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, Entry{}, err
	}
	rel, err := cleanTarget(name)
	if err != nil {
		return nil, Entry{}, err
	}

	f, err := s.client.Open(s.remote(rel))
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

func (s *SFTPStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rel, err := cleanTarget(name)
	if err != nil {
		return 0, err
	}

	target := s.remote(rel)
	if err := s.client.MkdirAll(path.Dir(target)); err != nil {
		return 0, fmt.Errorf("failed to create remote directories: %w", err)
	}

	f, err := s.client.Create(target)
	if err != nil {
		return 0, fmt.Errorf("failed to create remote file: %w", err)
	}
	n, err := f.ReadFrom(r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.client.Remove(target)
		return 0, fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Debug("File uploaded", zap.String("path", rel), zap.Int64("size", n))
	return n, nil
}

func (s *SFTPStore) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := cleanTarget(name)
	if err != nil {
		return err
	}

	target := s.remote(rel)
	info, err := s.client.Stat(target)
	if err != nil {
		return mapFSError(err)
	}
	if info.IsDir() {
		return s.client.RemoveDirectory(target)
	}
	return s.client.Remove(target)
}

func (s *SFTPStore) Mkdir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := cleanTarget(dir)
	if err != nil {
		return err
	}
	return s.client.MkdirAll(s.remote(rel))
}

func (s *SFTPStore) Rename(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := cleanTarget(from)
	if err != nil {
		return err
	}
	dst, err := cleanTarget(to)
	if err != nil {
		return err
	}
	return mapFSError(s.client.Rename(s.remote(src), s.remote(dst)))
}

func (s *SFTPStore) Close() error {
	clientErr := s.client.Close()
	connErr := s.conn.Close()
	if clientErr != nil {
		return clientErr
	}
	return connErr
}
