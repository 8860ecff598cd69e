package decision

import (
	"sync"
	"time"

	"github.com/sajari/regression"

	"github.com/roamsim/roamsim/pkg"
)

// Predictor defaults.
const (
	DefaultTrendWindow   = 30 * time.Second
	DefaultTrendHorizon  = 10 * time.Second
	DefaultFloorRSSIdBm  = -90.0
	minTrendObservations = 3
	maxTrendObservations = 64
)

// Predictor fits a linear RSSI-over-time trend per AP and flags
// associations whose signal is projected to fall below the floor within
// the horizon. It is advisory: the engine uses it only to annotate the
// reason on handovers the strategy decided anyway.
type Predictor struct {
	mu sync.Mutex

	window  time.Duration
	horizon time.Duration
	floor   float64

	observations map[string][]trendPoint
}

type trendPoint struct {
	at   time.Time
	rssi float64
}

// NewPredictor creates a predictor with the given observation window,
// projection horizon and RSSI floor. Non-positive arguments fall back to
// the defaults.
func NewPredictor(window, horizon time.Duration, floorRSSIdBm float64) *Predictor {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if horizon <= 0 {
		horizon = DefaultTrendHorizon
	}
	if floorRSSIdBm == 0 {
		floorRSSIdBm = DefaultFloorRSSIdBm
	}
	return &Predictor{
		window:       window,
		horizon:      horizon,
		floor:        floorRSSIdBm,
		observations: make(map[string][]trendPoint),
	}
}

// Observe records one tick's RSSI readings for every candidate AP.
func (p *Predictor) Observe(now time.Time, rows []pkg.TelemetryRow) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := now.Add(-p.window)
	for _, row := range rows {
		points := append(p.observations[row.AP], trendPoint{at: now, rssi: row.RSSIdBm})

		keep := 0
		for i, pt := range points {
			if pt.at.After(cutoff) {
				keep = i
				break
			}
			keep = i + 1
		}
		points = points[keep:]
		if len(points) > maxTrendObservations {
			points = points[len(points)-maxTrendObservations:]
		}
		p.observations[row.AP] = points
	}
}

// Slope returns the fitted RSSI trend for an AP in dB per second. ok is
// false when there are not enough observations for a fit.
func (p *Predictor) Slope(ap string) (float64, bool) {
	p.mu.Lock()
	points := append([]trendPoint(nil), p.observations[ap]...)
	p.mu.Unlock()

	if len(points) < minTrendObservations {
		return 0, false
	}

	r := new(regression.Regression)
	r.SetObserved("rssi_dbm")
	r.SetVar(0, "elapsed_s")

	t0 := points[0].at
	for _, pt := range points {
		r.Train(regression.DataPoint(pt.rssi, []float64{pt.at.Sub(t0).Seconds()}))
	}
	if err := r.Run(); err != nil {
		return 0, false
	}

	return r.Coeff(1), true
}

// Falling reports whether the AP's signal is trending down and projected
// to cross the floor within the horizon.
func (p *Predictor) Falling(ap string) bool {
	slope, ok := p.Slope(ap)
	if !ok || slope >= 0 {
		return false
	}

	p.mu.Lock()
	points := p.observations[ap]
	var last trendPoint
	if len(points) > 0 {
		last = points[len(points)-1]
	}
	p.mu.Unlock()

	if last.at.IsZero() {
		return false
	}

	projected := last.rssi + slope*p.horizon.Seconds()
	return projected < p.floor
}
