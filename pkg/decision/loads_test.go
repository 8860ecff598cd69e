package decision

import (
	"sync"
	"testing"
)

func TestLoadTrackerMoveConservesTotal(t *testing.T) {
	tracker := NewLoadTracker(map[string]float64{"ap1": 3, "ap2": 1})
	total := tracker.Total()

	tracker.Move("ap1", "ap2")
	if got := tracker.Total(); got != total {
		t.Fatalf("move must conserve total load: want %v got %v", total, got)
	}
	if tracker.Get("ap1") != 2 || tracker.Get("ap2") != 2 {
		t.Fatalf("unexpected loads after move: ap1=%v ap2=%v", tracker.Get("ap1"), tracker.Get("ap2"))
	}
}

func TestLoadTrackerClampsAtZero(t *testing.T) {
	tracker := NewLoadTracker(map[string]float64{"ap1": 0})

	tracker.Move("ap1", "")
	if got := tracker.Get("ap1"); got != 0 {
		t.Fatalf("decrement below zero must clamp, got %v", got)
	}

	tracker.Set("ap1", -5)
	if got := tracker.Get("ap1"); got != 0 {
		t.Fatalf("negative Set must clamp, got %v", got)
	}
}

func TestLoadTrackerInitialAssociationOnlyIncrements(t *testing.T) {
	tracker := NewLoadTracker(nil)
	tracker.Move("", "ap1")
	if tracker.Get("ap1") != 1 {
		t.Fatalf("initial association must increment the target")
	}
	if tracker.Total() != 1 {
		t.Fatalf("unexpected total: %v", tracker.Total())
	}
}

func TestLoadTrackerSnapshotIsIsolated(t *testing.T) {
	tracker := NewLoadTracker(map[string]float64{"ap1": 2})
	snap := tracker.Snapshot()
	snap["ap1"] = 99

	if tracker.Get("ap1") != 2 {
		t.Fatalf("mutating a snapshot must not affect the tracker")
	}
}

func TestLoadTrackerConcurrentMoves(t *testing.T) {
	tracker := NewLoadTracker(map[string]float64{"ap1": 100, "ap2": 0})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Move("ap1", "ap2")
		}()
	}
	wg.Wait()

	if got := tracker.Total(); got != 100 {
		t.Fatalf("concurrent moves must conserve total, got %v", got)
	}
	if tracker.Get("ap1") != 0 || tracker.Get("ap2") != 100 {
		t.Fatalf("unexpected loads: ap1=%v ap2=%v", tracker.Get("ap1"), tracker.Get("ap2"))
	}
}
