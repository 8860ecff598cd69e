// Package telem provides bounded in-memory storage for tick samples and
// handover events, plus JSON/CSV export for analysis tooling.
package telem

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/roamsim/roamsim/pkg"
)

// Sample is one decision tick's telemetry for a station: the full per-AP
// snapshot plus the association the tick ended on.
type Sample struct {
	Timestamp   time.Time          `json:"timestamp"`
	Station     string             `json:"station"`
	Strategy    string             `json:"strategy"`
	Position    pkg.Position       `json:"position"`
	Rows        []pkg.TelemetryRow `json:"rows"`
	ConnectedAP string             `json:"connected_ap,omitempty"`
}

// Store manages in-memory telemetry data with bounded retention
type Store struct {
	mu            sync.RWMutex
	samples       map[string][]Sample // station -> samples
	events        []pkg.HandoverEvent
	maxSamples    int
	maxEvents     int
	retentionTime time.Duration
	maxRAMMB      int
}

// Config for the telemetry store
type Config struct {
	MaxSamplesPerStation int `yaml:"max_samples_per_station"`
	MaxEvents            int `yaml:"max_events"`
	RetentionHours       int `yaml:"retention_hours"`
	MaxRAMMB             int `yaml:"max_ram_mb"`
}

// NewStore creates a new telemetry store with the given configuration
func NewStore(config Config) *Store {
	if config.MaxSamplesPerStation <= 0 {
		config.MaxSamplesPerStation = 1000
	}
	if config.MaxEvents <= 0 {
		config.MaxEvents = 500
	}
	if config.RetentionHours <= 0 {
		config.RetentionHours = 24
	}
	if config.MaxRAMMB <= 0 {
		config.MaxRAMMB = 10
	}

	return &Store{
		samples:       make(map[string][]Sample),
		events:        make([]pkg.HandoverEvent, 0, config.MaxEvents),
		maxSamples:    config.MaxSamplesPerStation,
		maxEvents:     config.MaxEvents,
		retentionTime: time.Duration(config.RetentionHours) * time.Hour,
		maxRAMMB:      config.MaxRAMMB,
	}
}

// AddSample stores a new tick sample for a station
func (s *Store) AddSample(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	station := sample.Station
	if s.samples[station] == nil {
		s.samples[station] = make([]Sample, 0, s.maxSamples)
	}

	s.samples[station] = append(s.samples[station], sample)

	if len(s.samples[station]) > s.maxSamples {
		// Keep the most recent samples
		copy(s.samples[station], s.samples[station][len(s.samples[station])-s.maxSamples:])
		s.samples[station] = s.samples[station][:s.maxSamples]
	}

	s.cleanOldSamples(station)
	s.enforceRAMCapLocked()
}

// AddEvent appends a handover event
func (s *Store) AddEvent(event pkg.HandoverEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)

	if len(s.events) > s.maxEvents {
		copy(s.events, s.events[len(s.events)-s.maxEvents:])
		s.events = s.events[:s.maxEvents]
	}

	s.enforceRAMCapLocked()
}

// GetSamples returns recent samples for a station
func (s *Store) GetSamples(station string, limit int) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := s.samples[station]
	if samples == nil {
		return nil
	}

	if limit <= 0 || limit >= len(samples) {
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	start := len(samples) - limit
	result := make([]Sample, limit)
	copy(result, samples[start:])
	return result
}

// GetRecentSamples returns samples for a station within a time window
func (s *Store) GetRecentSamples(station string, since time.Duration) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := s.samples[station]
	if samples == nil {
		return nil
	}

	cutoff := time.Now().Add(-since)
	var result []Sample

	for _, sample := range samples {
		if sample.Timestamp.After(cutoff) {
			result = append(result, sample)
		}
	}

	return result
}

// Events returns recent handover events (all when limit <= 0)
func (s *Store) Events(limit int) []pkg.HandoverEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit >= len(s.events) {
		result := make([]pkg.HandoverEvent, len(s.events))
		copy(result, s.events)
		return result
	}

	start := len(s.events) - limit
	result := make([]pkg.HandoverEvent, limit)
	copy(result, s.events[start:])
	return result
}

// Stations returns all stations with stored samples
func (s *Store) Stations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stations := make([]string, 0, len(s.samples))
	for station := range s.samples {
		stations = append(stations, station)
	}
	return stations
}

// Cleanup removes old data based on retention policy
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for station := range s.samples {
		s.cleanOldSamples(station)
	}
	s.cleanOldEvents()
}

// cleanOldSamples removes samples older than retention time for a station
func (s *Store) cleanOldSamples(station string) {
	cutoff := time.Now().Add(-s.retentionTime)
	samples := s.samples[station]

	keepIndex := 0
	for i, sample := range samples {
		if sample.Timestamp.After(cutoff) {
			keepIndex = i
			break
		}
		keepIndex = i + 1
	}

	if keepIndex > 0 {
		copy(samples, samples[keepIndex:])
		s.samples[station] = samples[:len(samples)-keepIndex]
	}
}

// cleanOldEvents removes events older than retention time
func (s *Store) cleanOldEvents() {
	cutoff := time.Now().Add(-s.retentionTime)

	keepIndex := 0
	for i, event := range s.events {
		if event.Timestamp.After(cutoff) {
			keepIndex = i
			break
		}
		keepIndex = i + 1
	}

	if keepIndex > 0 {
		copy(s.events, s.events[keepIndex:])
		s.events = s.events[:len(s.events)-keepIndex]
	}
}

// GetStats returns storage statistics
func (s *Store) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stationStats := make(map[string]int)
	totalSamples := 0
	for station, samples := range s.samples {
		stationStats[station] = len(samples)
		totalSamples += len(samples)
	}

	return map[string]interface{}{
		"total_samples":   totalSamples,
		"total_events":    len(s.events),
		"station_samples": stationStats,
		"retention_hours": s.retentionTime.Hours(),
		"max_ram_mb":      s.maxRAMMB,
		"estimated_bytes": s.estimateBytesLocked(),
	}
}

// ExportJSON exports all data as JSON for debugging/analysis
func (s *Store) ExportJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	export := struct {
		Timestamp time.Time           `json:"timestamp"`
		Samples   map[string][]Sample `json:"samples"`
		Events    []pkg.HandoverEvent `json:"events"`
	}{
		Timestamp: time.Now(),
		Samples:   s.samples,
		Events:    s.events,
	}

	return json.Marshal(export)
}

// ExportCSV writes a station's time series as CSV: one row per tick with
// the position, each AP's RSSI and the connected AP. The AP column set is
// taken from the first sample's snapshot order.
func (s *Store) ExportCSV(w io.Writer, station string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := s.samples[station]
	if len(samples) == 0 {
		return fmt.Errorf("no samples stored for station %q", station)
	}

	cw := csv.NewWriter(w)

	header := []string{"timestamp", "pos_x", "pos_y"}
	apOrder := make([]string, 0, len(samples[0].Rows))
	for _, row := range samples[0].Rows {
		apOrder = append(apOrder, row.AP)
		header = append(header, "rssi_"+row.AP)
	}
	header = append(header, "connected_ap")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		record := []string{
			sample.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(sample.Position.X, 'f', 2, 64),
			strconv.FormatFloat(sample.Position.Y, 'f', 2, 64),
		}
		byAP := make(map[string]float64, len(sample.Rows))
		for _, row := range sample.Rows {
			byAP[row.AP] = row.RSSIdBm
		}
		for _, ap := range apOrder {
			record = append(record, strconv.FormatFloat(byAP[ap], 'f', 1, 64))
		}
		record = append(record, sample.ConnectedAP)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// --- RAM cap enforcement helpers ---

// estimateBytesLocked returns an approximate memory usage for telemetry
// content, using a conservative per-item size.
func (s *Store) estimateBytesLocked() int {
	const (
		bytesPerSample = 480 // snapshot rows dominate
		bytesPerEvent  = 160
	)
	totalSamples := 0
	for _, arr := range s.samples {
		totalSamples += len(arr)
	}
	return totalSamples*bytesPerSample + len(s.events)*bytesPerEvent
}

// enforceRAMCapLocked downsamples old samples/events when the estimated
// memory exceeds the configured cap. Must be called with s.mu locked.
func (s *Store) enforceRAMCapLocked() {
	if s.maxRAMMB <= 0 {
		return
	}
	capBytes := s.maxRAMMB * 1024 * 1024
	for i := 0; i < 5; i++ {
		if s.estimateBytesLocked() <= capBytes {
			return
		}
		for station, arr := range s.samples {
			if len(arr) <= 200 {
				continue
			}
			s.samples[station] = downsampleKeepRecent(arr, 2, 100)
		}
		if len(s.events) > 200 && s.estimateBytesLocked() > capBytes {
			keep := len(s.events) / 2
			copy(s.events, s.events[len(s.events)-keep:])
			s.events = s.events[:keep]
		}
	}
}

// downsampleKeepRecent keeps the last recentKeep items intact and
// downsamples the older portion by keeping every nth item, preserving order.
func downsampleKeepRecent[T any](in []T, n int, recentKeep int) []T {
	if n <= 1 || len(in) <= recentKeep {
		return in
	}
	if recentKeep < 0 {
		recentKeep = 0
	}
	cutoff := len(in) - recentKeep
	if cutoff < 0 {
		cutoff = 0
	}
	older := in[:cutoff]
	newer := in[cutoff:]
	kept := make([]T, 0, len(older)/n+len(newer))
	for i := 0; i < len(older); i++ {
		if i%n == 0 {
			kept = append(kept, older[i])
		}
	}
	return append(kept, newer...)
}
