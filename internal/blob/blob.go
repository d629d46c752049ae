package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get for keys that have no stored object.
var ErrNotFound = errors.New("blob not found")

// Store is the cover-image backend. Keys are slash-separated relative
// paths; drivers must reject traversal outside their root.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}

// Options selects and configures a driver. The zero value is the
// filesystem driver rooted at ./data/covers.
type Options struct {
	Driver string // "fs" (default) or "s3"

	FSDir string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional, for MinIO-style endpoints
	S3AccessKey string // optional; falls back to the default credential chain
	S3SecretKey string
	S3PathStyle bool
}

// Open constructs the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "fs":
		return newFSStore(opts.FSDir)
	case "s3":
		return newS3Store(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
	}
}

// ── Filesystem driver ─────────────────────────────────────────────────────────

// fsStore keeps each object as a file under root, with the content type in
// a small sidecar so Get does not have to guess from the extension.
type fsStore struct {
	root string
}

func newFSStore(root string) (*fsStore, error) {
	if root == "" {
		root = "./data/covers"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return &fsStore{root: root}, nil
}

// pathFor maps a key to a file path, rejecting anything that would escape
// the root.
func (s *fsStore) pathFor(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *fsStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if contentType != "" {
		if err := os.WriteFile(path+".ctype", []byte(contentType), 0o644); err != nil {
			return fmt.Errorf("failed to write blob metadata for %s: %w", key, err)
		}
	}
	return nil
}

func (s *fsStore) Get(_ context.Context, key string) ([]byte, string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	contentType := ""
	if ct, err := os.ReadFile(path + ".ctype"); err == nil {
		contentType = strings.TrimSpace(string(ct))
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (s *fsStore) Delete(_ context.Context, key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	_ = os.Remove(path + ".ctype")
	return nil
}
