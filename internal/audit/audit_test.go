package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type stubSink struct {
	events []Event
	err    error
}

func (s *stubSink) Record(_ context.Context, ev Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

// TestTrailFansOut delivers each event to every sink.
func TestTrailFansOut(t *testing.T) {
	a, b := &stubSink{}, &stubSink{}
	trail := NewTrail(slog.Default(), a, b)

	trail.Record(context.Background(), Event{Type: TypeJobQueued, TrainerID: 1})
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("events = %d/%d, want 1/1", len(a.events), len(b.events))
	}
}

// TestTrailBestEffort keeps delivering past a failing sink.
func TestTrailBestEffort(t *testing.T) {
	bad := &stubSink{err: errors.New("broker down")}
	good := &stubSink{}
	trail := NewTrail(slog.Default(), bad, good)

	trail.Record(context.Background(), Event{Type: TypeCommitApplied})
	if len(good.events) != 1 {
		t.Fatalf("good sink events = %d, want 1", len(good.events))
	}
}
