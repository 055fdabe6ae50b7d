// Package storetest holds the behaviour every snapshot.Store backend must
// share. Backend tests call Run with a constructor for a fresh store.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
)

// Snap builds a container snapshot in which every named operator has status.
func Snap(container, runID string, status operator.Status, ops ...string) *snapshot.ContainerSnapshot {
	s := &snapshot.ContainerSnapshot{
		ContainerName: container,
		RunID:         runID,
		IsInitialized: true,
		Status:        status,
		Operators:     make(map[string]*operator.Snapshot, len(ops)),
	}
	for _, name := range ops {
		s.Operators[name] = &operator.Snapshot{OperatorName: name, Status: status}
	}
	return s
}

// Run exercises newStore against the Store contract.
func Run(t *testing.T, newStore func(t *testing.T) snapshot.Store) {
	t.Helper()

	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		recs, err := s.ListRecent(context.Background(), "daily", "extract", 1)
		if err != nil {
			t.Fatalf("ListRecent: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("expected no records, got %d", len(recs))
		}
		snaps, err := s.ListContainer(context.Background(), "daily", 10)
		if err != nil {
			t.Fatalf("ListContainer: %v", err)
		}
		if len(snaps) != 0 {
			t.Errorf("expected no snapshots, got %d", len(snaps))
		}
	})

	t.Run("newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		statuses := []operator.Status{operator.Idle, operator.Running, operator.Succeeded}
		for i, st := range statuses {
			if err := s.Write(ctx, Snap("daily", fmt.Sprintf("run-%d", i), st, "extract", "load")); err != nil {
				t.Fatalf("Write #%d: %v", i, err)
			}
		}

		recs, err := s.ListRecent(ctx, "daily", "extract", 1)
		if err != nil {
			t.Fatalf("ListRecent: %v", err)
		}
		if len(recs) != 1 || recs[0].Status != operator.Succeeded {
			t.Fatalf("expected latest SUCCEEDED record, got %+v", recs)
		}

		recs, _ = s.ListRecent(ctx, "daily", "load", 0)
		if len(recs) != 3 {
			t.Fatalf("expected 3 records without limit, got %d", len(recs))
		}
		for i, want := range []operator.Status{operator.Succeeded, operator.Running, operator.Idle} {
			if recs[i].Status != want {
				t.Errorf("record %d: got %v, want %v", i, recs[i].Status, want)
			}
		}

		snaps, err := s.ListContainer(ctx, "daily", 2)
		if err != nil {
			t.Fatalf("ListContainer: %v", err)
		}
		if len(snaps) != 2 || snaps[0].RunID != "run-2" || snaps[1].RunID != "run-1" {
			t.Fatalf("unexpected container listing %+v", snaps)
		}
		if !snaps[0].TakenAt.After(snaps[1].TakenAt) {
			t.Errorf("expected strictly increasing TakenAt, got %v then %v", snaps[1].TakenAt, snaps[0].TakenAt)
		}
		if snaps[0].Status != operator.Succeeded || !snaps[0].IsInitialized {
			t.Errorf("container fields not round-tripped: %+v", snaps[0])
		}
	})

	t.Run("containers are isolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Write(ctx, Snap("daily", "r1", operator.Succeeded, "extract"))
		_ = s.Write(ctx, Snap("daily-backfill", "r2", operator.Failed, "extract"))

		recs, _ := s.ListRecent(ctx, "daily", "extract", 5)
		if len(recs) != 1 || recs[0].Status != operator.Succeeded {
			t.Errorf("container prefix leaked records: %+v", recs)
		}
	})

	t.Run("names sharing a prefix", func(t *testing.T) {
		pairs := [][2]string{
			{"daily", "daily/eu"},
			{"b", "a/../b"},
			{".", ".."},
			{"daily", "daily/"},
		}
		for _, pair := range pairs {
			s := newStore(t)
			ctx := context.Background()
			if err := s.Write(ctx, Snap(pair[1], "other", operator.Succeeded, "extract")); err != nil {
				t.Fatalf("Write %q: %v", pair[1], err)
			}

			recs, err := s.ListRecent(ctx, pair[0], "extract", 1)
			if err != nil {
				t.Fatalf("ListRecent %q: %v", pair[0], err)
			}
			if len(recs) != 0 {
				t.Errorf("%q saw %d records written by %q", pair[0], len(recs), pair[1])
			}
			snaps, err := s.ListContainer(ctx, pair[0], 0)
			if err != nil {
				t.Fatalf("ListContainer %q: %v", pair[0], err)
			}
			if len(snaps) != 0 {
				t.Errorf("%q saw %d snapshots written by %q", pair[0], len(snaps), pair[1])
			}

			snaps, _ = s.ListContainer(ctx, pair[1], 0)
			if len(snaps) != 1 || snaps[0].ContainerName != pair[1] {
				t.Errorf("%q lost its own snapshot: %+v", pair[1], snaps)
			}
		}
	})

	t.Run("unknown operator", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Write(ctx, Snap("daily", "r1", operator.Succeeded, "extract"))
		recs, err := s.ListRecent(ctx, "daily", "nope", 1)
		if err != nil || len(recs) != 0 {
			t.Errorf("expected empty result, got %v, %v", recs, err)
		}
	})

	t.Run("counters round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		snap := Snap("daily", "r1", operator.Succeeded, "extract")
		snap.Operators["extract"].Counters = map[string]int64{"rows": 42}
		snap.Operators["extract"].DataModel = operator.Batch
		_ = s.Write(ctx, snap)

		recs, _ := s.ListRecent(ctx, "daily", "extract", 1)
		if len(recs) != 1 || recs[0].Counters["rows"] != 42 || recs[0].DataModel != operator.Batch {
			t.Errorf("record not round-tripped: %+v", recs)
		}
	})

	t.Run("concurrent writes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := s.Write(ctx, Snap("daily", fmt.Sprintf("r%d", i), operator.Running, "extract")); err != nil {
					t.Errorf("Write: %v", err)
				}
			}(i)
		}
		wg.Wait()

		snaps, err := s.ListContainer(ctx, "daily", 0)
		if err != nil {
			t.Fatalf("ListContainer: %v", err)
		}
		if len(snaps) != 16 {
			t.Fatalf("expected 16 snapshots, got %d", len(snaps))
		}
		for i := 1; i < len(snaps); i++ {
			if !snaps[i-1].TakenAt.After(snaps[i].TakenAt) {
				t.Fatalf("timestamps not strictly decreasing at %d", i)
			}
		}
	})
}
