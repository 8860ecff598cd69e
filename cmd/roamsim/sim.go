package main

import (
	"time"

	"github.com/roamsim/roamsim/pkg/config"
	"github.com/roamsim/roamsim/pkg/decision"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/radio"
	"github.com/roamsim/roamsim/pkg/telem"
)

// simClock advances simulated time by one tick interval per call to Step.
// Runs replay a walk as fast as possible, so wall-clock time would collapse
// every decision latency and RSSI trend onto the same instant.
type simClock struct {
	now  time.Time
	step time.Duration
}

func newSimClock(tickIntervalMS int) *simClock {
	return &simClock{
		now:  time.Now(),
		step: time.Duration(tickIntervalMS) * time.Millisecond,
	}
}

func (c *simClock) Now() time.Time { return c.now }

func (c *simClock) Step() { c.now = c.now.Add(c.step) }

// buildModel creates the propagation model from the radio section.
func buildModel(cfg *config.Config) *radio.Model {
	var noise radio.NoiseSource
	if cfg.Radio.ShadowSigmaDB > 0 {
		noise = radio.NewGaussianNoise(cfg.Seed)
	}
	m := radio.NewModel(cfg.Radio.ShadowSigmaDB, noise)
	if cfg.Radio.ProcessingDelayMs > 0 {
		m.ProcessingDelayMs = cfg.Radio.ProcessingDelayMs
	}
	if cfg.Radio.DistanceCoeff > 0 {
		m.DistanceCoeff = cfg.Radio.DistanceCoeff
	}
	return m
}

// buildEngine assembles a fresh engine for one strategy. Each call gets its
// own load tracker so replays of the same walk do not share load state.
func buildEngine(cfg *config.Config, strategyName string, store *telem.Store, logger *logx.Logger, clock *simClock) (*decision.Engine, error) {
	strat, err := cfg.BuildStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	var predictor *decision.Predictor
	if cfg.Predictive.Enabled {
		predictor = decision.NewPredictor(
			time.Duration(cfg.Predictive.WindowS)*time.Second,
			time.Duration(cfg.Predictive.HorizonS)*time.Second,
			cfg.Predictive.FloorRSSIdBm)
	}

	return decision.NewEngine(decision.Config{
		Station:   cfg.Station,
		Strategy:  strat,
		Model:     buildModel(cfg),
		APs:       cfg.AccessPoints(),
		Loads:     decision.NewLoadTracker(cfg.InitialLoads()),
		Store:     store,
		Predictor: predictor,
		Logger:    logger,
		Now:       clock.Now,
	})
}
