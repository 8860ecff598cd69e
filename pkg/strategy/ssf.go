package strategy

import (
	"math"

	"github.com/roamsim/roamsim/pkg"
)

// DefaultHysteresisDB is the default SSF hysteresis margin.
const DefaultHysteresisDB = 5.0

// SSF is Strongest Signal First: pick the AP with the highest RSSI, but
// only leave the current AP when the best candidate beats it by at least
// the hysteresis margin. The margin is what prevents ping-pong between two
// APs with near-equal signal.
type SSF struct {
	// HysteresisDB is the minimum RSSI improvement required to switch.
	HysteresisDB float64
}

// NewSSF creates an SSF strategy with the given hysteresis margin.
// A negative margin is treated as zero.
func NewSSF(hysteresisDB float64) *SSF {
	if hysteresisDB < 0 {
		hysteresisDB = 0
	}
	return &SSF{HysteresisDB: hysteresisDB}
}

func (s *SSF) Name() string    { return "ssf" }
func (s *SSF) LoadAware() bool { return false }

// Select returns the strongest AP, gated by hysteresis against the current
// association. Ties go to the first-encountered row, so candidate order
// must be stable across ticks.
func (s *SSF) Select(current string, rows []pkg.TelemetryRow) Decision {
	if len(rows) == 0 {
		return Decision{AP: current, Reason: "no_candidates"}
	}

	best := rows[0]
	for _, row := range rows[1:] {
		if row.RSSIdBm > best.RSSIdBm {
			best = row
		}
	}

	if current != "" {
		if cur := rowFor(rows, current); cur != nil {
			if best.RSSIdBm-cur.RSSIdBm < s.HysteresisDB {
				return Decision{AP: current, RSSIdBm: cur.RSSIdBm, Reason: "hysteresis_hold"}
			}
		}
	}

	reason := "strongest_signal"
	if current == "" {
		reason = "initial_selection"
	}
	return Decision{AP: best.AP, RSSIdBm: best.RSSIdBm, Reason: reason}
}

// SwitchMarginDB reports how far the best candidate currently leads the
// association, in dB. Used by reporting tooling; returns +Inf when there is
// no current association.
func (s *SSF) SwitchMarginDB(current string, rows []pkg.TelemetryRow) float64 {
	cur := rowFor(rows, current)
	if cur == nil {
		return math.Inf(1)
	}
	best := math.Inf(-1)
	for _, row := range rows {
		if row.RSSIdBm > best {
			best = row.RSSIdBm
		}
	}
	return best - cur.RSSIdBm
}
