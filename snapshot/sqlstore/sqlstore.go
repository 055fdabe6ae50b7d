// Package sqlstore persists snapshots in PostgreSQL through lib/pq.
//
// Two tables are used: <table>_containers holds one row per container
// snapshot and <table>_operators one row per operator record, so the
// backfill lookup is a single indexed query.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
)

const driverName = "postgres"

func init() {
	snapshot.RegisterFactory(snapshot.ProviderSQL, func(cfg snapshot.Config, log *logger.Logger) (snapshot.Store, error) {
		return Open(context.Background(), cfg.SQL, log)
	})
}

// Store implements snapshot.Store on a database/sql handle.
type Store struct {
	db         *sql.DB
	containers string // quoted table names
	operators  string
	clock      *snapshot.Clock
	log        *logger.Logger

	mu     sync.Mutex
	synced map[string]bool
}

var _ snapshot.Store = (*Store)(nil)

// Open connects to PostgreSQL and, when AutoMigrate is set, creates the tables.
func Open(ctx context.Context, cfg snapshot.SQLConfig, log *logger.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, apperrors.InvalidConfig("sqlstore: dsn is required")
	}
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, apperrors.InvalidConfig(err.Error()).WithCause(err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := NewWithDB(db, cfg.Table, log)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB, table string, log *logger.Logger) *Store {
	if table == "" {
		table = snapshot.DefaultSQLTable
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		db:         db,
		containers: pq.QuoteIdentifier(table + "_containers"),
		operators:  pq.QuoteIdentifier(table + "_operators"),
		clock:      snapshot.NewClock(),
		log:        log,
		synced:     make(map[string]bool),
	}
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the snapshot tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	container_name TEXT NOT NULL,
	taken_at BIGINT NOT NULL,
	run_id TEXT NOT NULL,
	status TEXT NOT NULL,
	payload JSONB NOT NULL,
	PRIMARY KEY (container_name, taken_at)
)`, s.containers),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	container_name TEXT NOT NULL,
	operator_name TEXT NOT NULL,
	taken_at BIGINT NOT NULL,
	status TEXT NOT NULL,
	payload JSONB NOT NULL,
	PRIMARY KEY (container_name, operator_name, taken_at)
)`, s.operators),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.SnapshotWrite("migrate", err)
		}
	}
	s.log.Info("snapshot tables ready", logger.Fields("containers", s.containers, "operators", s.operators))
	return nil
}

// Write implements snapshot.Store. The container row and every operator
// row are inserted in one transaction.
func (s *Store) Write(ctx context.Context, snap *snapshot.ContainerSnapshot) (err error) {
	if err := s.syncClock(ctx, snap.ContainerName); err != nil {
		return err
	}
	snap.TakenAt = s.clock.Next()
	ts := snap.TakenAt.UnixNano()
	key := fmt.Sprintf("%s@%d", snap.ContainerName, ts)

	payload, err := snapshot.Encode(snap)
	if err != nil {
		return apperrors.SnapshotWrite(key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.SnapshotWrite(key, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (container_name, taken_at, run_id, status, payload) VALUES ($1, $2, $3, $4, $5)`, s.containers),
		snap.ContainerName, ts, snap.RunID, snap.Status.String(), payload)
	if err != nil {
		return apperrors.SnapshotWrite(key, err)
	}

	names := make([]string, 0, len(snap.Operators))
	for name := range snap.Operators {
		names = append(names, name)
	}
	sort.Strings(names)

	insertOp := fmt.Sprintf(`INSERT INTO %s (container_name, operator_name, taken_at, status, payload) VALUES ($1, $2, $3, $4, $5)`, s.operators)
	for _, name := range names {
		rec := snap.Operators[name]
		data, mErr := json.Marshal(rec)
		if mErr != nil {
			err = mErr
			return apperrors.SnapshotWrite(key, err)
		}
		if _, err = tx.ExecContext(ctx, insertOp, snap.ContainerName, name, ts, rec.Status.String(), data); err != nil {
			return apperrors.SnapshotWrite(key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.SnapshotWrite(key, err)
	}
	return nil
}

// ListRecent implements snapshot.Store.
func (s *Store) ListRecent(ctx context.Context, container, name string, limit int) ([]*operator.Snapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE container_name = $1 AND operator_name = $2 ORDER BY taken_at DESC LIMIT $3`, s.operators)
	rows, err := s.db.QueryContext(ctx, query, container, name, limitArg(limit))
	if err != nil {
		return nil, apperrors.SnapshotRead(container+"/"+name, err)
	}
	defer rows.Close() //nolint:errcheck

	out := []*operator.Snapshot{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, apperrors.SnapshotRead(container+"/"+name, err)
		}
		var rec operator.Snapshot
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, apperrors.SnapshotRead(container+"/"+name, err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.SnapshotRead(container+"/"+name, err)
	}
	return out, nil
}

// ListContainer implements snapshot.Store.
func (s *Store) ListContainer(ctx context.Context, container string, limit int) ([]*snapshot.ContainerSnapshot, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE container_name = $1 ORDER BY taken_at DESC LIMIT $2`, s.containers)
	rows, err := s.db.QueryContext(ctx, query, container, limitArg(limit))
	if err != nil {
		return nil, apperrors.SnapshotRead(container, err)
	}
	defer rows.Close() //nolint:errcheck

	out := []*snapshot.ContainerSnapshot{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, apperrors.SnapshotRead(container, err)
		}
		snap, err := snapshot.Decode(data)
		if err != nil {
			return nil, apperrors.SnapshotRead(container, err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.SnapshotRead(container, err)
	}
	return out, nil
}

// syncClock advances the clock past the newest stored row the first time
// a container is written.
func (s *Store) syncClock(ctx context.Context, container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synced[container] {
		return nil
	}

	var latest int64
	query := fmt.Sprintf(`SELECT COALESCE(MAX(taken_at), 0) FROM %s WHERE container_name = $1`, s.containers)
	if err := s.db.QueryRowContext(ctx, query, container).Scan(&latest); err != nil {
		return apperrors.SnapshotRead(container, err)
	}
	if latest > 0 {
		s.clock.Observe(time.Unix(0, latest))
	}
	s.synced[container] = true
	return nil
}

// limitArg maps a non-positive limit to NULL, which PostgreSQL reads as
// no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
