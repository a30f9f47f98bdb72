package health

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSampler_LatestReportsUptimeBeforeFirstTick(t *testing.T) {
	s := New(nil, nil, time.Hour, testLogger())
	time.Sleep(10 * time.Millisecond)

	sample := s.Latest()
	if sample.UptimeSeconds < 0 {
		t.Fatalf("got negative uptime %d", sample.UptimeSeconds)
	}
	if sample.Status != "" {
		t.Fatalf("got status %q before any sample was taken, want empty", sample.Status)
	}
}

func TestSampler_RunProducesASampleImmediately(t *testing.T) {
	s := New(nil, func() int { return 3 }, time.Hour, testLogger())

	done := make(chan struct{})
	go s.Run(done)
	defer close(done)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sample := s.Latest(); sample.Status != "" {
			if sample.ActiveSessions != 3 {
				t.Fatalf("got ActiveSessions=%d, want 3", sample.ActiveSessions)
			}
			if sample.Goroutines <= 0 {
				t.Fatalf("got Goroutines=%d, want > 0", sample.Goroutines)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Run never produced a sample within the deadline")
}

func TestSampler_NilActiveSessionsReportsZero(t *testing.T) {
	s := New(nil, nil, time.Hour, testLogger())

	done := make(chan struct{})
	go s.Run(done)
	defer close(done)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sample := s.Latest(); sample.Status != "" {
			if sample.ActiveSessions != 0 {
				t.Fatalf("got ActiveSessions=%d, want 0 with no activeSessions func", sample.ActiveSessions)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Run never produced a sample within the deadline")
}
