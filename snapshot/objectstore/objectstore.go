// Package objectstore stores snapshots as JSON objects in a storage.Storage
// backend, one object per snapshot under <prefix>/<container>/<unixnano>.json.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
	"github.com/kbukum/opflow/storage"

	// Register both storage providers.
	_ "github.com/kbukum/opflow/storage/local"
	_ "github.com/kbukum/opflow/storage/s3"
)

const ext = ".json"

func init() {
	snapshot.RegisterFactory(snapshot.ProviderStorage, func(cfg snapshot.Config, log *logger.Logger) (snapshot.Store, error) {
		var providerCfg any
		if cfg.Storage.Provider == storage.ProviderS3 {
			s3cfg := cfg.S3
			providerCfg = &s3cfg
		}
		st, err := storage.New(cfg.Storage, providerCfg, log)
		if err != nil {
			return nil, apperrors.InvalidConfig(err.Error()).WithCause(err)
		}
		return New(st, cfg.Prefix), nil
	})
}

// Store implements snapshot.Store over object storage.
type Store struct {
	st     storage.Storage
	prefix string
	clock  *snapshot.Clock

	mu     sync.Mutex
	synced map[string]bool // containers whose existing keys have advanced the clock
}

var _ snapshot.Store = (*Store)(nil)

// New creates a Store writing under prefix.
func New(st storage.Storage, prefix string) *Store {
	return &Store{st: st, prefix: prefix, clock: snapshot.NewClock(), synced: make(map[string]bool)}
}

// Write implements snapshot.Store.
func (s *Store) Write(ctx context.Context, snap *snapshot.ContainerSnapshot) error {
	if err := s.syncClock(ctx, snap.ContainerName); err != nil {
		return err
	}
	snap.TakenAt = s.clock.Next()
	key := snapshot.Key(s.prefix, snap.ContainerName, snap.TakenAt, ext)

	data, err := snapshot.Encode(snap)
	if err != nil {
		return apperrors.SnapshotWrite(key, err)
	}
	if err := s.st.Put(ctx, key, data); err != nil {
		return apperrors.SnapshotWrite(key, err)
	}
	return nil
}

// ListRecent implements snapshot.Store. Every container snapshot holds every
// operator, so the newest objects are read until limit records are found.
func (s *Store) ListRecent(ctx context.Context, container, name string, limit int) ([]*operator.Snapshot, error) {
	keys, err := s.keys(ctx, container)
	if err != nil {
		return nil, err
	}

	out := []*operator.Snapshot{}
	for _, key := range keys {
		snap, err := s.read(ctx, key)
		if apperrors.Is(err, apperrors.ErrSnapshotNotFound) {
			continue // removed since listing
		}
		if err != nil {
			return nil, err
		}
		if rec := snap.Operator(name); rec != nil {
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ListContainer implements snapshot.Store.
func (s *Store) ListContainer(ctx context.Context, container string, limit int) ([]*snapshot.ContainerSnapshot, error) {
	keys, err := s.keys(ctx, container)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]*snapshot.ContainerSnapshot, 0, len(keys))
	for _, key := range keys {
		snap, err := s.read(ctx, key)
		if apperrors.Is(err, apperrors.ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// keys returns the container's snapshot keys, newest first.
func (s *Store) keys(ctx context.Context, container string) ([]string, error) {
	prefix := snapshot.ContainerPrefix(s.prefix, container)
	files, err := s.st.List(ctx, prefix)
	if err != nil {
		return nil, apperrors.SnapshotRead(prefix, err)
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		if !strings.HasSuffix(f.Key, ext) {
			continue
		}
		keys = append(keys, f.Key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (s *Store) read(ctx context.Context, key string) (*snapshot.ContainerSnapshot, error) {
	data, err := s.st.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, apperrors.SnapshotNotFound(key)
	}
	if err != nil {
		return nil, apperrors.SnapshotRead(key, err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, apperrors.SnapshotRead(key, fmt.Errorf("%s: %w", key, err))
	}
	return snap, nil
}

// syncClock advances the clock past the newest stored key the first time a
// container is written, so a restarted process never writes behind records
// left by an earlier one.
func (s *Store) syncClock(ctx context.Context, container string) error {
	s.mu.Lock()
	done := s.synced[container]
	s.mu.Unlock()
	if done {
		return nil
	}

	keys, err := s.keys(ctx, container)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if ts, err := snapshot.ParseKey(keys[0]); err == nil {
			s.clock.Observe(ts)
		}
	}

	s.mu.Lock()
	s.synced[container] = true
	s.mu.Unlock()
	return nil
}
