package pkg

import (
	"math"
	"time"
)

// Position is a point on the simulation plane. Coordinates are in the same
// unit as AP positions (meters by convention); Z is not modeled.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the 2D Euclidean distance to another position.
func (p Position) Distance(o Position) float64 {
	dx := o.X - p.X
	dy := o.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// AccessPoint represents a candidate AP the engine can hand a station to.
// Identity is the Name; APs are compared by name only, never by position.
type AccessPoint struct {
	Name       string   `json:"name"`
	Pos        Position `json:"position"`
	LoadFactor float64  `json:"load_factor"` // congestion multiplier for delay estimates, 1.0 = uncongested
}

// Station is a mobile client with at most one current association.
type Station struct {
	Name         string   `json:"name"`
	Pos          Position `json:"position"`
	AssociatedAP string   `json:"associated_ap,omitempty"` // AP name, "" when unassociated
}

// TelemetryRow is the per-AP measurement computed for one decision tick.
// Rows are ephemeral; they are recomputed every tick and retained only in
// the telemetry store as part of a Sample.
type TelemetryRow struct {
	AP       string  `json:"ap"`
	Distance float64 `json:"distance"`
	RSSIdBm  float64 `json:"rssi_dbm"`
	DelayMs  float64 `json:"delay_ms"`
	Load     float64 `json:"load"`
}

// HandoverEvent records a single committed AP change. From is "" for the
// initial association. Immutable after creation.
type HandoverEvent struct {
	Timestamp       time.Time     `json:"timestamp"`
	Station         string        `json:"station"`
	Position        Position      `json:"position"`
	From            string        `json:"from,omitempty"`
	To              string        `json:"to"`
	Reason          string        `json:"reason"`
	DecisionLatency time.Duration `json:"decision_latency_ns"`
}

// Associator executes the external act of re-associating a station. The
// engine commits its own state only after Associate returns nil, so engine
// state never diverges from what the collaborator accepted.
type Associator interface {
	Associate(station, from, to string) error
}
