package decision

import (
	"math"
	"testing"
	"time"

	"github.com/roamsim/roamsim/pkg"
)

func observeSeries(p *Predictor, ap string, start time.Time, rssis []float64) {
	for i, rssi := range rssis {
		p.Observe(start.Add(time.Duration(i)*time.Second), []pkg.TelemetryRow{{AP: ap, RSSIdBm: rssi}})
	}
}

func TestSlopeFitsLinearDecay(t *testing.T) {
	p := NewPredictor(time.Minute, 10*time.Second, -90)
	start := time.Unix(1700000000, 0)

	// 2 dB lost per second.
	observeSeries(p, "ap1", start, []float64{-60, -62, -64, -66, -68})

	slope, ok := p.Slope("ap1")
	if !ok {
		t.Fatalf("expected a fit with 5 observations")
	}
	if math.Abs(slope-(-2)) > 0.01 {
		t.Fatalf("expected slope ~ -2 dB/s, got %.4f", slope)
	}
}

func TestSlopeNeedsEnoughObservations(t *testing.T) {
	p := NewPredictor(time.Minute, 10*time.Second, -90)
	start := time.Unix(1700000000, 0)

	observeSeries(p, "ap1", start, []float64{-60, -61})
	if _, ok := p.Slope("ap1"); ok {
		t.Fatalf("two observations must not produce a fit")
	}
}

func TestFallingProjectsBelowFloor(t *testing.T) {
	p := NewPredictor(time.Minute, 10*time.Second, -90)
	start := time.Unix(1700000000, 0)

	// At -80 dBm falling 2 dB/s, the floor is crossed in 5s < 10s horizon.
	observeSeries(p, "ap1", start, []float64{-72, -74, -76, -78, -80})
	if !p.Falling("ap1") {
		t.Fatalf("steep decay near the floor must be flagged")
	}

	// A strong, slowly decaying signal is not flagged.
	observeSeries(p, "ap2", start, []float64{-50.0, -50.1, -50.2, -50.3, -50.4})
	if p.Falling("ap2") {
		t.Fatalf("slow decay far from the floor must not be flagged")
	}

	// A rising signal is never flagged no matter the level.
	observeSeries(p, "ap3", start, []float64{-92, -88, -84, -80})
	if p.Falling("ap3") {
		t.Fatalf("improving signal must not be flagged")
	}
}

func TestObserveEvictsOldPoints(t *testing.T) {
	p := NewPredictor(10*time.Second, 5*time.Second, -90)
	start := time.Unix(1700000000, 0)

	p.Observe(start, []pkg.TelemetryRow{{AP: "ap1", RSSIdBm: -60}})
	p.Observe(start.Add(time.Minute), []pkg.TelemetryRow{{AP: "ap1", RSSIdBm: -61}})
	p.Observe(start.Add(time.Minute+time.Second), []pkg.TelemetryRow{{AP: "ap1", RSSIdBm: -62}})

	// The first point is outside the 10s window relative to the last
	// observation, so only two remain and no fit is possible.
	if _, ok := p.Slope("ap1"); ok {
		t.Fatalf("window eviction should leave too few points for a fit")
	}
}
