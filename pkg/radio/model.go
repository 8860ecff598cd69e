// Package radio implements the log-distance path-loss model, delay
// estimation and per-tick telemetry snapshot assembly.
package radio

import (
	"math"
	"math/rand"

	"github.com/roamsim/roamsim/pkg"
)

// NoiseSource produces shadowing samples. Implementations must be safe to
// substitute in tests with a fixed or seeded generator.
type NoiseSource interface {
	Sample(sigma float64) float64
}

// GaussianNoise draws zero-mean Gaussian shadowing samples from a seeded
// generator so runs are reproducible.
type GaussianNoise struct {
	rng *rand.Rand
}

// NewGaussianNoise creates a seeded Gaussian noise source.
func NewGaussianNoise(seed int64) *GaussianNoise {
	return &GaussianNoise{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns one N(0, sigma^2) draw. Sigma <= 0 yields 0.
func (g *GaussianNoise) Sample(sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	return g.rng.NormFloat64() * sigma
}

// Default delay model constants. Propagation assumes coordinates in meters
// and signal speed of 300 m/us; processing delay models AP queueing.
const (
	DefaultProcessingDelayMs = 5.0
	DefaultDistanceCoeff     = 0.001
)

// Model converts geometry and load into RSSI and delay estimates.
type Model struct {
	// ShadowSigma is the shadowing standard deviation in dB. 0 disables
	// shadowing and makes EstimateRSSI pure.
	ShadowSigma float64

	// ProcessingDelayMs is the fixed per-AP processing delay.
	ProcessingDelayMs float64

	// DistanceCoeff scales the distance-based congestion factor
	// (factor = 1 + DistanceCoeff*distance).
	DistanceCoeff float64

	noise NoiseSource
}

// NewModel creates a propagation model. A nil noise source disables
// shadowing regardless of ShadowSigma.
func NewModel(shadowSigma float64, noise NoiseSource) *Model {
	return &Model{
		ShadowSigma:       shadowSigma,
		ProcessingDelayMs: DefaultProcessingDelayMs,
		DistanceCoeff:     DefaultDistanceCoeff,
		noise:             noise,
	}
}

// EstimateRSSI returns the estimated received signal strength in dBm for a
// given distance. Distance is clamped to 1 unit before the log term, so the
// model has no singularity at the AP position.
func (m *Model) EstimateRSSI(distance float64) float64 {
	if distance < 1 {
		distance = 1
	}
	rssi := -40 - 20*math.Log10(distance)
	if m.ShadowSigma > 0 && m.noise != nil {
		rssi += m.noise.Sample(m.ShadowSigma)
	}
	return rssi
}

// EstimateDelay returns the estimated round-trip delay in milliseconds for
// an AP at the given distance with the given congestion multiplier.
func (m *Model) EstimateDelay(distance, loadFactor float64) float64 {
	propagation := (distance / 1000) / 300
	distanceFactor := 1 + m.DistanceCoeff*distance
	if loadFactor <= 0 {
		loadFactor = 1
	}
	return (propagation + m.ProcessingDelayMs) * distanceFactor * loadFactor
}

// Snapshot assembles one TelemetryRow per candidate AP for the given
// station position. The loads map supplies each AP's current load value as
// seen at the start of the decision; Snapshot reads it once per AP and has
// no side effects. Row order follows the candidate list, which keeps the
// strategies' tie-breaking stable.
func (m *Model) Snapshot(pos pkg.Position, aps []pkg.AccessPoint, loads map[string]float64) []pkg.TelemetryRow {
	rows := make([]pkg.TelemetryRow, 0, len(aps))
	for _, ap := range aps {
		d := pos.Distance(ap.Pos)
		rows = append(rows, pkg.TelemetryRow{
			AP:       ap.Name,
			Distance: d,
			RSSIdBm:  m.EstimateRSSI(d),
			DelayMs:  m.EstimateDelay(d, ap.LoadFactor),
			Load:     loads[ap.Name],
		})
	}
	return rows
}
