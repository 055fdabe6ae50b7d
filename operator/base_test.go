package operator

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestBaseStatusTimes(t *testing.T) {
	b := NewBase("extract", Batch)
	if b.Status() != Idle {
		t.Fatalf("expected IDLE, got %v", b.Status())
	}

	b.SetStatus(Running)
	snap := b.Snapshot()
	if snap.StartTime.IsZero() || !snap.EndTime.IsZero() {
		t.Errorf("expected start time only while running, got %+v", snap)
	}

	b.SetStatus(Succeeded)
	snap = b.Snapshot()
	if snap.EndTime.Before(snap.StartTime) {
		t.Errorf("end %v before start %v", snap.EndTime, snap.StartTime)
	}
	if snap.OperatorName != "extract" || snap.Status != Succeeded || snap.DataModel != Batch {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestBaseStatusFromSnapshot(t *testing.T) {
	b := NewBase("load", Default)

	tests := []struct {
		name string
		snap *Snapshot
		want Status
	}{
		{"nil record", nil, Idle},
		{"other operator", &Snapshot{OperatorName: "extract", Status: Succeeded}, Idle},
		{"succeeded", &Snapshot{OperatorName: "load", Status: Succeeded}, Succeeded},
		{"failed", &Snapshot{OperatorName: "load", Status: Failed}, Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.StatusFromSnapshot(tt.snap); got != tt.want {
				t.Errorf("StatusFromSnapshot = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaseConvertDataModel(t *testing.T) {
	b := NewBase("x", Default)
	b.ConvertToBatch()
	if b.DataModel() != Batch {
		t.Errorf("expected BATCH, got %v", b.DataModel())
	}
	b.ConvertToStreaming()
	if b.DataModel() != Streaming {
		t.Errorf("expected STREAMING, got %v", b.DataModel())
	}
}

func TestBaseCounters(t *testing.T) {
	b := NewBase("x", Default)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.IncrementCounter("rows", 2)
		}()
	}
	wg.Wait()

	counters := b.Counters()
	if counters["rows"] != 100 {
		t.Errorf("expected 100 rows, got %d", counters["rows"])
	}

	counters["rows"] = 0
	if b.Counters()["rows"] != 100 {
		t.Error("Counters must return a copy")
	}
	if b.Snapshot().Counters["rows"] != 100 {
		t.Error("expected counters in snapshot")
	}

	b.Reset()
	if b.Status() != Idle || len(b.Counters()) != 0 {
		t.Errorf("expected reset state, got %v %v", b.Status(), b.Counters())
	}
}

func TestFuncOperators(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		op      *Func
		model   DataModel
		wantErr error
	}{
		{"default", New("a", func(context.Context) error { return nil }), Default, nil},
		{"batch", NewBatch("b", func(context.Context) error { return boom }), Batch, boom},
		{"streaming", NewStreaming("c", nil), Streaming, nil},
		{"dummy", Dummy("join", Batch), Batch, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.op.DataModel() != tt.model {
				t.Errorf("DataModel = %v, want %v", tt.op.DataModel(), tt.model)
			}
			if err := tt.op.Execute(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
