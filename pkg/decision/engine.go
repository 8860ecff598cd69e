// Package decision implements the handover controller: it drives a
// selection strategy over per-tick telemetry and commits association
// changes with exactly-once load accounting.
package decision

import (
	"fmt"
	"time"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/radio"
	"github.com/roamsim/roamsim/pkg/strategy"
	"github.com/roamsim/roamsim/pkg/telem"
)

// maxEventHistory bounds the engine's in-memory event list; the telemetry
// store keeps the longer record.
const maxEventHistory = 100

// Config holds the engine's collaborators and identity.
type Config struct {
	Station  string
	Strategy strategy.Strategy
	Model    *radio.Model
	APs      []pkg.AccessPoint

	// Loads is the shared per-AP load state. Optional; a private tracker
	// is created when nil, which is fine for single-station runs.
	Loads *LoadTracker

	// Store receives every tick sample and handover event. Optional.
	Store *telem.Store

	// Associator performs the external re-association. Optional; when
	// set, engine state is committed only after it accepts.
	Associator pkg.Associator

	// Predictor annotates handovers that a falling RSSI trend on the old
	// association had already foreshadowed. Optional, advisory only.
	Predictor *Predictor

	Logger *logx.Logger

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

// Engine holds one station's association state and runs the decision tick.
// Engines are not safe for concurrent use; each station gets its own, with
// only the LoadTracker shared between them.
type Engine struct {
	station    string
	strat      strategy.Strategy
	model      *radio.Model
	aps        []pkg.AccessPoint
	loads      *LoadTracker
	store      *telem.Store
	associator pkg.Associator
	predictor  *Predictor
	logger     *logx.Logger
	now        func() time.Time

	currentAP string
	events    []pkg.HandoverEvent
	ticks     int
}

// NewEngine creates a handover engine for one station.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Station == "" {
		return nil, fmt.Errorf("station name is required")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("propagation model is required")
	}
	if len(cfg.APs) == 0 {
		return nil, fmt.Errorf("at least one candidate AP is required")
	}
	if cfg.Loads == nil {
		cfg.Loads = NewLoadTracker(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New("info")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		station:    cfg.Station,
		strat:      cfg.Strategy,
		model:      cfg.Model,
		aps:        cfg.APs,
		loads:      cfg.Loads,
		store:      cfg.Store,
		associator: cfg.Associator,
		predictor:  cfg.Predictor,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// OnTick runs one decision cycle at the given station position. It returns
// the handover event when the association changed, nil otherwise. The
// event fires iff the chosen AP differs from the current association by
// identity; an empty selection (LLF fail-safe with no prior association)
// leaves the state untouched.
func (e *Engine) OnTick(pos pkg.Position) *pkg.HandoverEvent {
	start := e.now()
	e.ticks++

	// Read the shared loads once so the whole decision sees one view.
	rows := e.model.Snapshot(pos, e.aps, e.loads.Snapshot())
	dec := e.strat.Select(e.currentAP, rows)

	if e.predictor != nil {
		e.predictor.Observe(start, rows)
	}

	var event *pkg.HandoverEvent
	if dec.AP != "" && dec.AP != e.currentAP {
		event = e.commitHandover(start, pos, dec)
	}

	if e.store != nil {
		e.store.AddSample(telem.Sample{
			Timestamp:   start,
			Station:     e.station,
			Strategy:    e.strat.Name(),
			Position:    pos,
			Rows:        rows,
			ConnectedAP: e.currentAP,
		})
	}

	return event
}

// commitHandover applies a decided AP change: external association first,
// then load accounting and state, so engine state never runs ahead of what
// the collaborator accepted. The same policy applies to every strategy.
func (e *Engine) commitHandover(start time.Time, pos pkg.Position, dec strategy.Decision) *pkg.HandoverEvent {
	from := e.currentAP

	if e.associator != nil {
		if err := e.associator.Associate(e.station, from, dec.AP); err != nil {
			e.logger.Warn("association rejected, keeping current AP",
				"station", e.station, "from", from, "to", dec.AP, "error", err)
			return nil
		}
	}

	reason := dec.Reason
	if e.predictor != nil && from != "" && e.predictor.Falling(from) {
		reason = "signal_decay_predicted"
	}

	// Load moves exactly once per committed handover, and only for
	// load-aware strategies; the strategies themselves never mutate it.
	if e.strat.LoadAware() {
		e.loads.Move(from, dec.AP)
	}

	e.currentAP = dec.AP

	event := pkg.HandoverEvent{
		Timestamp:       start,
		Station:         e.station,
		Position:        pos,
		From:            from,
		To:              dec.AP,
		Reason:          reason,
		DecisionLatency: e.now().Sub(start),
	}

	e.events = append(e.events, event)
	if len(e.events) > maxEventHistory {
		e.events = e.events[len(e.events)-maxEventHistory:]
	}

	if e.store != nil {
		e.store.AddEvent(event)
	}

	e.logger.Info("handover committed",
		"station", e.station,
		"strategy", e.strat.Name(),
		"from", from,
		"to", dec.AP,
		"reason", reason,
		"rssi_dbm", dec.RSSIdBm,
		"x", pos.X,
		"y", pos.Y,
	)

	return &event
}

// CurrentAP returns the station's current association ("" if none).
func (e *Engine) CurrentAP() string {
	return e.currentAP
}

// Strategy returns the active strategy.
func (e *Engine) Strategy() strategy.Strategy {
	return e.strat
}

// Ticks returns the number of decision cycles run.
func (e *Engine) Ticks() int {
	return e.ticks
}

// EventHistory returns a copy of the recent handover events.
func (e *Engine) EventHistory() []pkg.HandoverEvent {
	events := make([]pkg.HandoverEvent, len(e.events))
	copy(events, e.events)
	return events
}

// HandoverCount returns the number of committed handovers, including the
// initial association.
func (e *Engine) HandoverCount() int {
	return len(e.events)
}
