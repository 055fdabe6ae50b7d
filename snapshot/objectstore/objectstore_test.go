package objectstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
	"github.com/kbukum/opflow/snapshot/storetest"
	"github.com/kbukum/opflow/storage"
	"github.com/kbukum/opflow/storage/local"
)

func newLocal(t *testing.T) *local.Storage {
	t.Helper()
	st, err := local.NewStorage(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) snapshot.Store {
		return New(newLocal(t), "snapshots")
	})
}

func TestObjectLayout(t *testing.T) {
	st := newLocal(t)
	s := New(st, "snapshots")
	ctx := context.Background()
	if err := s.Write(ctx, storetest.Snap("daily", "r1", operator.Idle, "extract")); err != nil {
		t.Fatal(err)
	}

	files, err := st.List(ctx, "snapshots/daily/")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Key, ".json") {
		t.Fatalf("unexpected objects %+v", files)
	}
}

func TestRestartWritesAfterExistingRecords(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()

	first := New(st, "snapshots")
	_ = first.Write(ctx, storetest.Snap("daily", "old", operator.Succeeded, "extract"))
	latest, _ := first.ListContainer(ctx, "daily", 1)

	// A second process whose clock lags behind the stored record.
	second := New(st, "snapshots")
	second.clock = snapshot.NewClockFunc(func() time.Time { return latest[0].TakenAt.Add(-time.Hour) })
	if err := second.Write(ctx, storetest.Snap("daily", "new", operator.Failed, "extract")); err != nil {
		t.Fatal(err)
	}

	snaps, _ := second.ListContainer(ctx, "daily", 1)
	if snaps[0].RunID != "new" {
		t.Errorf("expected the new write to be the most recent, got %s", snaps[0].RunID)
	}
}

func TestIgnoresForeignObjects(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()
	_ = st.Put(ctx, "snapshots/daily/README.txt", []byte("hi"))
	_ = st.Put(ctx, "snapshots/daily/nested/00000000000000000001.json", []byte("{}"))

	s := New(st, "snapshots")
	snaps, err := s.ListContainer(ctx, "daily", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Errorf("expected foreign objects skipped, got %d", len(snaps))
	}
}

func TestCorruptObject(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()
	_ = st.Put(ctx, "snapshots/daily/00000000000000000001.json", []byte("{not json"))

	s := New(st, "snapshots")
	if _, err := s.ListRecent(ctx, "daily", "extract", 1); err == nil {
		t.Fatal("expected read error for a corrupt object")
	}
}

func TestFactory(t *testing.T) {
	cfg := snapshot.Config{
		Provider:     snapshot.ProviderStorage,
		WriteRetries: 1,
		Storage:      storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()},
	}
	store, err := snapshot.New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("snapshot.New: %v", err)
	}
	if _, ok := store.(*Store); !ok {
		t.Fatalf("expected *objectstore.Store, got %T", store)
	}
}
