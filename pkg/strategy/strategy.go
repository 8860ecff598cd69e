// Package strategy implements the AP-selection strategies (SSF, LLF, MCDM)
package strategy

import (
	"github.com/roamsim/roamsim/pkg"
)

// Decision is the outcome of one selection call. AP is "" only for the LLF
// fail-safe when no candidate is reachable and the station was never
// associated; callers must treat that as "do not attempt a handover".
type Decision struct {
	AP      string  `json:"ap"`
	RSSIdBm float64 `json:"rssi_dbm"`
	Reason  string  `json:"reason"`

	// MCDM diagnostics, nil for SSF/LLF. Consumed by comparison and
	// reporting tooling, not by the engine.
	Weights []float64   `json:"weights,omitempty"`
	Scores  []float64   `json:"scores,omitempty"`
	Matrix  [][]float64 `json:"matrix,omitempty"`
}

// Strategy selects the AP a station should use next, given the current
// association (by name, "" if unassociated) and the tick's telemetry rows.
// Implementations carry their own configuration but no per-tick side
// effects; load accounting belongs to the engine.
type Strategy interface {
	Name() string
	Select(current string, rows []pkg.TelemetryRow) Decision

	// LoadAware reports whether committed handovers must move load
	// between APs (decrement old, increment new).
	LoadAware() bool
}

// rowFor returns the row for the named AP, or nil.
func rowFor(rows []pkg.TelemetryRow, name string) *pkg.TelemetryRow {
	for i := range rows {
		if rows[i].AP == name {
			return &rows[i]
		}
	}
	return nil
}
