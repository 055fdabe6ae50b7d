// Package badgerstore persists snapshots in an embedded badger database.
// Keys are <prefix>/<container>/<unixnano> and values are JSON snapshots,
// so a reverse prefix scan yields a container's history newest first.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
)

func init() {
	snapshot.RegisterFactory(snapshot.ProviderBadger, func(cfg snapshot.Config, log *logger.Logger) (snapshot.Store, error) {
		return Open(cfg.Badger, cfg.Prefix, log)
	})
}

// badgerLogger routes badger's internal logging through the service logger.
type badgerLogger struct {
	log *logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

// Store implements snapshot.Store on badger.
type Store struct {
	db     *badger.DB
	prefix string
	clock  *snapshot.Clock

	mu     sync.Mutex
	synced map[string]bool
}

var _ snapshot.Store = (*Store)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg snapshot.BadgerConfig, prefix string, log *logger.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, apperrors.InvalidConfig("badger: dir is required for a persistent database")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("badger: create directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if log != nil {
		opts = opts.WithLogger(&badgerLogger{log: log.WithComponent("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &Store{db: db, prefix: prefix, clock: snapshot.NewClock(), synced: make(map[string]bool)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write implements snapshot.Store.
func (s *Store) Write(ctx context.Context, snap *snapshot.ContainerSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.syncClock(snap.ContainerName); err != nil {
		return err
	}
	snap.TakenAt = s.clock.Next()
	key := snapshot.Key(s.prefix, snap.ContainerName, snap.TakenAt, "")

	data, err := snapshot.Encode(snap)
	if err != nil {
		return apperrors.SnapshotWrite(key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return apperrors.SnapshotWrite(key, err)
	}
	return nil
}

// ListRecent implements snapshot.Store.
func (s *Store) ListRecent(ctx context.Context, container, name string, limit int) ([]*operator.Snapshot, error) {
	out := []*operator.Snapshot{}
	err := s.scan(ctx, container, func(snap *snapshot.ContainerSnapshot) bool {
		if rec := snap.Operator(name); rec != nil {
			out = append(out, rec)
		}
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListContainer implements snapshot.Store.
func (s *Store) ListContainer(ctx context.Context, container string, limit int) ([]*snapshot.ContainerSnapshot, error) {
	out := []*snapshot.ContainerSnapshot{}
	err := s.scan(ctx, container, func(snap *snapshot.ContainerSnapshot) bool {
		out = append(out, snap)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan walks a container's snapshots newest first until fn returns false.
func (s *Store) scan(ctx context.Context, container string, fn func(*snapshot.ContainerSnapshot) bool) error {
	prefix := []byte(snapshot.ContainerPrefix(s.prefix, container))
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seekLast(prefix)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			snap, err := snapshot.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", item.Key(), err)
			}
			if !fn(snap) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return apperrors.SnapshotRead(string(prefix), err)
	}
	return nil
}

// syncClock advances the clock past the container's newest key once, so
// writes after a restart sort after the records already on disk.
func (s *Store) syncClock(container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synced[container] {
		return nil
	}

	prefix := []byte(snapshot.ContainerPrefix(s.prefix, container))
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(seekLast(prefix))
		if it.ValidForPrefix(prefix) {
			if ts, err := snapshot.ParseKey(string(it.Item().Key())); err == nil {
				s.clock.Observe(ts)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.SnapshotRead(string(prefix), err)
	}
	s.synced[container] = true
	return nil
}

// seekLast returns a key past every key under prefix, the start point for
// a reverse scan.
func seekLast(prefix []byte) []byte {
	k := make([]byte, len(prefix)+1)
	copy(k, prefix)
	k[len(prefix)] = 0xFF
	return k
}
