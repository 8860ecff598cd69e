package config

import (
	"strings"
	"testing"
)

const sampleYAML = `
log_level: debug
station: sta7
strategy: mcdm
tick_interval_ms: 500
seed: 42

ssf:
  hysteresis_db: 8

radio:
  shadow_sigma_db: 2.0

aps:
  - name: ap1
    x: 20
    y: 40
    load: 3
    load_factor: 2.5
  - name: ap2
    x: 100
    y: 40

path:
  start_x: 10
  end_x: 120
  step_x: 5
  y: 20

telemetry:
  max_samples_per_station: 200

metrics:
  enabled: true
  listen: ":9200"
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Station != "sta7" || cfg.Strategy != "mcdm" {
		t.Fatalf("unexpected station/strategy: %q %q", cfg.Station, cfg.Strategy)
	}
	if cfg.TickIntervalMS != 500 || cfg.Seed != 42 {
		t.Fatalf("unexpected tick/seed: %d %d", cfg.TickIntervalMS, cfg.Seed)
	}
	if cfg.SSF.HysteresisDB != 8 {
		t.Fatalf("hysteresis = %v, want 8", cfg.SSF.HysteresisDB)
	}
	if cfg.Radio.ShadowSigmaDB != 2.0 {
		t.Fatalf("shadow sigma = %v, want 2", cfg.Radio.ShadowSigmaDB)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != ":9200" {
		t.Fatalf("unexpected metrics config %+v", cfg.Metrics)
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := Parse([]byte("aps:\n  - name: ap1\npath:\n  start_x: 0\n  end_x: 100\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Station != DefaultStation {
		t.Fatalf("station = %q, want default", cfg.Station)
	}
	if cfg.Strategy != DefaultStrategy {
		t.Fatalf("strategy = %q, want default", cfg.Strategy)
	}
	if cfg.TickIntervalMS != DefaultTickIntervalMS {
		t.Fatalf("tick interval = %d, want default", cfg.TickIntervalMS)
	}
	if cfg.SSF.HysteresisDB != 5 {
		t.Fatalf("hysteresis = %v, want 5", cfg.SSF.HysteresisDB)
	}
	if cfg.LLF.MinRSSIdBm != -90 {
		t.Fatalf("min rssi = %v, want -90", cfg.LLF.MinRSSIdBm)
	}
	if cfg.APs[0].LoadFactor != 1.0 {
		t.Fatalf("load factor = %v, want 1", cfg.APs[0].LoadFactor)
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"no aps", "strategy: ssf\npath:\n  end_x: 10\n", "at least one AP"},
		{"bad strategy", "strategy: best\naps:\n  - name: ap1\npath:\n  end_x: 10\n", "unknown strategy"},
		{"dup ap", "aps:\n  - name: ap1\n  - name: ap1\npath:\n  end_x: 10\n", "duplicate AP"},
		{"negative load", "aps:\n  - name: ap1\n    load: -2\npath:\n  end_x: 10\n", "negative initial load"},
		{"history missing path", "aps:\n  - name: ap1\npath:\n  end_x: 10\nhistory:\n  enabled: true\n", "history.path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("Parse accepted invalid config")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestBuildHelpers(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	aps := cfg.AccessPoints()
	if len(aps) != 2 || aps[0].Name != "ap1" || aps[1].Name != "ap2" {
		t.Fatalf("unexpected APs %+v", aps)
	}
	if aps[0].LoadFactor != 2.5 || aps[1].LoadFactor != 1.0 {
		t.Fatalf("unexpected load factors: %v %v", aps[0].LoadFactor, aps[1].LoadFactor)
	}

	loads := cfg.InitialLoads()
	if loads["ap1"] != 3 || loads["ap2"] != 0 {
		t.Fatalf("unexpected initial loads %v", loads)
	}

	positions := cfg.BuildPath().Positions()
	if len(positions) != 23 {
		t.Fatalf("sweep has %d positions, want 23", len(positions))
	}
	if positions[0].X != 10 || positions[0].Y != 20 {
		t.Fatalf("unexpected first position %+v", positions[0])
	}

	for _, name := range []string{"ssf", "llf", "mcdm"} {
		st, err := cfg.BuildStrategy(name)
		if err != nil {
			t.Fatalf("BuildStrategy(%s): %v", name, err)
		}
		if st.Name() != name {
			t.Fatalf("strategy name = %q, want %q", st.Name(), name)
		}
	}
	if _, err := cfg.BuildStrategy("best"); err == nil {
		t.Fatalf("BuildStrategy accepted unknown name")
	}
}

func TestWaypointPathWinsOverSweep(t *testing.T) {
	cfg, err := Parse([]byte(`
aps:
  - name: ap1
path:
  start_x: 0
  end_x: 100
  waypoints:
    - {x: 1, y: 2}
    - {x: 3, y: 4}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	positions := cfg.BuildPath().Positions()
	if len(positions) != 2 || positions[1].X != 3 || positions[1].Y != 4 {
		t.Fatalf("unexpected waypoint positions %+v", positions)
	}
}
