package decision

import "sync"

// LoadTracker holds the per-AP load counters that are genuinely shared
// across concurrent stations. All mutation goes through single critical
// sections so a committed handover moves load atomically: the decrement of
// the old AP and the increment of the new one are never observed apart.
type LoadTracker struct {
	mu    sync.Mutex
	loads map[string]float64
}

// NewLoadTracker creates a tracker seeded with the given initial loads.
// A nil map starts all APs at zero.
func NewLoadTracker(initial map[string]float64) *LoadTracker {
	loads := make(map[string]float64, len(initial))
	for ap, v := range initial {
		if v < 0 {
			v = 0
		}
		loads[ap] = v
	}
	return &LoadTracker{loads: loads}
}

// Snapshot returns a copy of the current loads. Strategies read this once
// per decision so the candidate set sees a consistent view even while
// other stations commit handovers.
func (t *LoadTracker) Snapshot() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]float64, len(t.loads))
	for ap, v := range t.loads {
		out[ap] = v
	}
	return out
}

// Move transfers one unit of load from one AP to another as a single
// operation. An empty from (initial association) only increments; an empty
// to only decrements. Decrements clamp at zero.
func (t *LoadTracker) Move(from, to string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if from != "" {
		if v := t.loads[from] - 1; v > 0 {
			t.loads[from] = v
		} else {
			t.loads[from] = 0
		}
	}
	if to != "" {
		t.loads[to]++
	}
}

// Set overrides an AP's load counter. Negative values clamp to zero.
func (t *LoadTracker) Set(ap string, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v < 0 {
		v = 0
	}
	t.loads[ap] = v
}

// Get returns an AP's current load.
func (t *LoadTracker) Get(ap string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loads[ap]
}

// Total returns the sum of all load counters.
func (t *LoadTracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	sum := 0.0
	for _, v := range t.loads {
		sum += v
	}
	return sum
}
