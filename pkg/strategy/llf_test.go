package strategy

import (
	"testing"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/radio"
)

func TestLLFPicksLeastLoaded(t *testing.T) {
	l := NewLLF(-90)
	rows := []pkg.TelemetryRow{
		{AP: "ap1", RSSIdBm: -55, Load: 3},
		{AP: "ap2", RSSIdBm: -80, Load: 1},
		{AP: "ap3", RSSIdBm: -70, Load: 2},
	}
	dec := l.Select("", rows)
	if dec.AP != "ap2" {
		t.Fatalf("load is the primary key; expected ap2, got %s", dec.AP)
	}
}

func TestLLFRSSIBreaksLoadTies(t *testing.T) {
	l := NewLLF(-90)
	rows := []pkg.TelemetryRow{
		{AP: "ap1", RSSIdBm: -75, Load: 1},
		{AP: "ap2", RSSIdBm: -60, Load: 1},
	}
	dec := l.Select("", rows)
	if dec.AP != "ap2" {
		t.Fatalf("equal load must break on RSSI; expected ap2, got %s", dec.AP)
	}
}

func TestLLFFiltersUnreachable(t *testing.T) {
	l := NewLLF(-90)
	rows := []pkg.TelemetryRow{
		{AP: "ap1", RSSIdBm: -95, Load: 0}, // least loaded but below threshold
		{AP: "ap2", RSSIdBm: -70, Load: 4},
	}
	dec := l.Select("", rows)
	if dec.AP != "ap2" {
		t.Fatalf("unreachable APs must be excluded; expected ap2, got %s", dec.AP)
	}
}

func TestLLFStaysWithCurrentWhenNothingReachable(t *testing.T) {
	l := NewLLF(-90)
	rows := []pkg.TelemetryRow{
		{AP: "ap1", RSSIdBm: -96, Load: 0},
		{AP: "ap2", RSSIdBm: -99, Load: 0},
	}

	dec := l.Select("ap1", rows)
	if dec.AP != "ap1" {
		t.Fatalf("fail-safe must return the previous association, got %q", dec.AP)
	}
	if dec.Reason != "no_reachable_ap" {
		t.Fatalf("unexpected reason: %s", dec.Reason)
	}

	// Never associated: the empty selection means "do not hand over".
	dec = l.Select("", rows)
	if dec.AP != "" {
		t.Fatalf("unassociated station with nothing reachable must select nothing, got %q", dec.AP)
	}
}

// TestLLFPrefersIdleAPOverStrongSignal reproduces the canonical LLF
// scenario: the station sits 5 m from ap1 (load 2) with ap2 80 m away
// (RSSI ~ -78 dBm, still reachable at the -90 threshold) and load 0. LLF
// must pick the weaker but idle ap2.
func TestLLFPrefersIdleAPOverStrongSignal(t *testing.T) {
	model := radio.NewModel(0, nil)
	aps := []pkg.AccessPoint{
		{Name: "ap1", Pos: pkg.Position{X: 5, Y: 0}, LoadFactor: 1},
		{Name: "ap2", Pos: pkg.Position{X: 80, Y: 0}, LoadFactor: 1},
	}
	rows := model.Snapshot(pkg.Position{X: 0, Y: 0}, aps, map[string]float64{"ap1": 2, "ap2": 0})

	if rows[1].RSSIdBm < -90 {
		t.Fatalf("test setup: ap2 must be reachable, rssi=%.1f", rows[1].RSSIdBm)
	}
	if rows[0].RSSIdBm <= rows[1].RSSIdBm {
		t.Fatalf("test setup: ap1 must have the stronger signal")
	}

	dec := NewLLF(-90).Select("ap1", rows)
	if dec.AP != "ap2" {
		t.Fatalf("LLF must prefer idle ap2 despite weaker signal, got %s", dec.AP)
	}
}
