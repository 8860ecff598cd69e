package strategy

import (
	"sort"

	"github.com/roamsim/roamsim/pkg"
)

// DefaultMinRSSIdBm is the default LLF reachability threshold.
const DefaultMinRSSIdBm = -90.0

// LLF is Least-Loaded First: among APs whose RSSI clears the reachability
// threshold, pick the one with the lowest load; RSSI is strictly a
// tiebreaker among equal loads. When nothing is reachable the station stays
// with its current association, even if that AP is itself out of range —
// a deliberate fail-safe that keeps the client nominally attached rather
// than dropping it. See the package documentation for the caveat.
type LLF struct {
	// MinRSSIdBm is the reachability threshold.
	MinRSSIdBm float64
}

// NewLLF creates an LLF strategy with the given RSSI threshold.
func NewLLF(minRSSIdBm float64) *LLF {
	return &LLF{MinRSSIdBm: minRSSIdBm}
}

func (l *LLF) Name() string    { return "llf" }
func (l *LLF) LoadAware() bool { return true }

// Select filters to reachable candidates and sorts by (load asc, RSSI
// desc). The sort is stable so equally loaded, equally strong candidates
// keep their list order.
func (l *LLF) Select(current string, rows []pkg.TelemetryRow) Decision {
	reachable := make([]pkg.TelemetryRow, 0, len(rows))
	for _, row := range rows {
		if row.RSSIdBm >= l.MinRSSIdBm {
			reachable = append(reachable, row)
		}
	}

	if len(reachable) == 0 {
		// Fail-safe: stay with the previous association ("" if never
		// associated). Not an error; callers must not hand over.
		dec := Decision{AP: current, Reason: "no_reachable_ap"}
		if cur := rowFor(rows, current); cur != nil {
			dec.RSSIdBm = cur.RSSIdBm
		}
		return dec
	}

	sort.SliceStable(reachable, func(i, j int) bool {
		if reachable[i].Load != reachable[j].Load {
			return reachable[i].Load < reachable[j].Load
		}
		return reachable[i].RSSIdBm > reachable[j].RSSIdBm
	})

	best := reachable[0]
	reason := "least_loaded"
	if current == "" {
		reason = "initial_selection"
	}
	return Decision{AP: best.AP, RSSIdBm: best.RSSIdBm, Reason: reason}
}
