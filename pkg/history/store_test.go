package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/telem"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunRoundTrip(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.BeginRun("sta1", "mcdm")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	sample := telem.Sample{
		Timestamp:   time.Now(),
		Station:     "sta1",
		Strategy:    "mcdm",
		Position:    pkg.Position{X: 10, Y: 20},
		ConnectedAP: "ap1",
		Rows: []pkg.TelemetryRow{
			{AP: "ap1", RSSIdBm: -60, DelayMs: 6.5, Load: 2},
			{AP: "ap2", RSSIdBm: -75, DelayMs: 5.2, Load: 0},
		},
	}
	if err := s.SaveSample(runID, sample); err != nil {
		t.Fatalf("SaveSample: %v", err)
	}

	event := pkg.HandoverEvent{
		Timestamp:       time.Now(),
		Station:         "sta1",
		Position:        pkg.Position{X: 55, Y: 20},
		From:            "ap1",
		To:              "ap2",
		Reason:          "strongest_signal",
		DecisionLatency: 120 * time.Microsecond,
	}
	if err := s.SaveEvent(runID, event); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	runs, err := s.Runs(10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Strategy != "mcdm" || runs[0].Station != "sta1" {
		t.Fatalf("unexpected run summary %+v", runs[0])
	}
	if runs[0].Handovers != 1 {
		t.Fatalf("run has %d handovers, want 1", runs[0].Handovers)
	}

	events, err := s.Events(runID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	got := events[0]
	if got.From != "ap1" || got.To != "ap2" || got.Reason != "strongest_signal" {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Station != "sta1" {
		t.Fatalf("event station = %q, want sta1", got.Station)
	}
	if got.DecisionLatency != 120*time.Microsecond {
		t.Fatalf("decision latency = %v, want 120µs", got.DecisionLatency)
	}
}

func TestRunsOrderedNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first, err := s.BeginRun("sta1", "ssf")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	second, err := s.BeginRun("sta1", "llf")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	runs, err := s.Runs(10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Fatalf("runs not newest first: %+v", runs)
	}
}
