// Package config loads and validates the YAML simulation configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/mobility"
	"github.com/roamsim/roamsim/pkg/mqtt"
	"github.com/roamsim/roamsim/pkg/strategy"
	"github.com/roamsim/roamsim/pkg/telem"
)

// Default configuration values
const (
	DefaultStation        = "sta1"
	DefaultStrategy       = "ssf"
	DefaultTickIntervalMS = 1000
	DefaultLogLevel       = "info"
)

// Config is the full simulation configuration.
type Config struct {
	LogLevel       string `yaml:"log_level"`
	Station        string `yaml:"station"`
	Strategy       string `yaml:"strategy"` // ssf|llf|mcdm
	TickIntervalMS int    `yaml:"tick_interval_ms"`
	Seed           int64  `yaml:"seed"`

	SSF        SSFConfig        `yaml:"ssf"`
	LLF        LLFConfig        `yaml:"llf"`
	Radio      RadioConfig      `yaml:"radio"`
	Predictive PredictiveConfig `yaml:"predictive"`

	APs  []APConfig `yaml:"aps"`
	Path PathConfig `yaml:"path"`

	Telemetry telem.Config  `yaml:"telemetry"`
	Metrics   MetricsConfig `yaml:"metrics"`
	MQTT      mqtt.Config   `yaml:"mqtt"`
	History   HistoryConfig `yaml:"history"`
}

// SSFConfig configures the strongest-signal strategy.
type SSFConfig struct {
	HysteresisDB float64 `yaml:"hysteresis_db"`
}

// LLFConfig configures the least-loaded strategy.
type LLFConfig struct {
	MinRSSIdBm float64 `yaml:"min_rssi_dbm"`
}

// RadioConfig configures the propagation model.
type RadioConfig struct {
	ShadowSigmaDB     float64 `yaml:"shadow_sigma_db"`
	ProcessingDelayMs float64 `yaml:"processing_delay_ms"`
	DistanceCoeff     float64 `yaml:"distance_coeff"`
}

// PredictiveConfig configures the advisory RSSI trend predictor.
type PredictiveConfig struct {
	Enabled      bool    `yaml:"enabled"`
	WindowS      int     `yaml:"window_s"`
	HorizonS     int     `yaml:"horizon_s"`
	FloorRSSIdBm float64 `yaml:"floor_rssi_dbm"`
}

// APConfig describes one candidate AP.
type APConfig struct {
	Name       string  `yaml:"name"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Load       float64 `yaml:"load"`        // initial station count
	LoadFactor float64 `yaml:"load_factor"` // congestion multiplier, default 1.0
}

// PathConfig describes the mobility path. Waypoints win over the sweep
// when both are present.
type PathConfig struct {
	StartX    float64    `yaml:"start_x"`
	EndX      float64    `yaml:"end_x"`
	StepX     float64    `yaml:"step_x"`
	Y         float64    `yaml:"y"`
	Waypoints []Waypoint `yaml:"waypoints"`
}

// Waypoint is one explicit path position.
type Waypoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// HistoryConfig configures the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads, parses and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in unset values.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Station == "" {
		c.Station = DefaultStation
	}
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = DefaultTickIntervalMS
	}
	if c.SSF.HysteresisDB == 0 {
		c.SSF.HysteresisDB = strategy.DefaultHysteresisDB
	}
	if c.LLF.MinRSSIdBm == 0 {
		c.LLF.MinRSSIdBm = strategy.DefaultMinRSSIdBm
	}
	for i := range c.APs {
		if c.APs[i].LoadFactor == 0 {
			c.APs[i].LoadFactor = 1.0
		}
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9101"
	}
}

// Validate rejects configurations the simulator cannot run.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "ssf", "llf", "mcdm":
	default:
		return fmt.Errorf("unknown strategy %q (want ssf, llf or mcdm)", c.Strategy)
	}

	if len(c.APs) == 0 {
		return fmt.Errorf("at least one AP is required")
	}
	seen := make(map[string]bool, len(c.APs))
	for _, ap := range c.APs {
		if ap.Name == "" {
			return fmt.Errorf("every AP needs a name")
		}
		if seen[ap.Name] {
			return fmt.Errorf("duplicate AP name %q", ap.Name)
		}
		seen[ap.Name] = true
		if ap.Load < 0 {
			return fmt.Errorf("AP %q has negative initial load", ap.Name)
		}
	}

	if len(c.Path.Waypoints) == 0 {
		if err := (mobility.LinearSweep{StartX: c.Path.StartX, EndX: c.Path.EndX, StepX: c.Path.StepX, Y: c.Path.Y}).Validate(); err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	return nil
}

// AccessPoints converts the AP configs to engine candidates, in file order
// so tie-breaking stays stable.
func (c *Config) AccessPoints() []pkg.AccessPoint {
	aps := make([]pkg.AccessPoint, 0, len(c.APs))
	for _, ap := range c.APs {
		aps = append(aps, pkg.AccessPoint{
			Name:       ap.Name,
			Pos:        pkg.Position{X: ap.X, Y: ap.Y},
			LoadFactor: ap.LoadFactor,
		})
	}
	return aps
}

// InitialLoads returns the configured starting load per AP.
func (c *Config) InitialLoads() map[string]float64 {
	loads := make(map[string]float64, len(c.APs))
	for _, ap := range c.APs {
		loads[ap.Name] = ap.Load
	}
	return loads
}

// BuildPath returns the configured mobility path.
func (c *Config) BuildPath() mobility.Path {
	if len(c.Path.Waypoints) > 0 {
		w := make(mobility.Waypoints, 0, len(c.Path.Waypoints))
		for _, wp := range c.Path.Waypoints {
			w = append(w, pkg.Position{X: wp.X, Y: wp.Y})
		}
		return w
	}
	return mobility.LinearSweep{StartX: c.Path.StartX, EndX: c.Path.EndX, StepX: c.Path.StepX, Y: c.Path.Y}
}

// BuildStrategy instantiates the configured strategy.
func (c *Config) BuildStrategy(name string) (strategy.Strategy, error) {
	switch name {
	case "ssf":
		return strategy.NewSSF(c.SSF.HysteresisDB), nil
	case "llf":
		return strategy.NewLLF(c.LLF.MinRSSIdBm), nil
	case "mcdm":
		return strategy.NewMCDM(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
