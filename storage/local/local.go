// Package local stores blobs as files under a base directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/storage"
)

// tmpPrefix marks in-flight writes; List never returns them.
const tmpPrefix = ".put-"

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, _ any, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(cfg.BasePath, cfg.MaxObjectSize)
		if err != nil {
			return nil, err
		}
		log.Debug("local storage ready", logger.Fields("base_path", s.basePath))
		return s, nil
	})
}

// Storage implements storage.Storage on the local filesystem.
type Storage struct {
	basePath string
	maxSize  int64
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage creates the base directory if needed. A maxSize of zero
// disables the size check.
func NewStorage(basePath string, maxSize int64) (*Storage, error) {
	if basePath == "" {
		return nil, errors.New("local: base path is required")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("local: resolve %s: %w", basePath, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("local: create %s: %w", abs, err)
	}
	return &Storage{basePath: abs, maxSize: maxSize}, nil
}

// path maps a key into the base directory. Keys are rooted first, so
// ".." segments cannot climb out.
func (s *Storage) path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(filepath.Clean("/"+key)))
}

// Put writes a temp file next to the target, fsyncs it and renames it
// into place.
func (s *Storage) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return fmt.Errorf("local: %s is %d bytes, limit is %d", key, len(data), s.maxSize)
	}

	target := s.path(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("local: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("local: put %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write failed
		return fmt.Errorf("local: put %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // sync failed
		return fmt.Errorf("local: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local: put %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("local: put %s: %w", key, err)
	}
	return nil
}

// Get reads the file stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("local: get %s: %w", key, err)
	}
	return data, nil
}

// List reads the directory prefix names. A missing directory is empty.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix = strings.TrimSuffix(prefix, "/")
	dir := s.path(prefix)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []storage.ObjectInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local: list %s: %w", prefix, err)
	}

	out := make([]storage.ObjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed since ReadDir
		}
		key := e.Name()
		if prefix != "" {
			key = prefix + "/" + key
		}
		out = append(out, storage.ObjectInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
