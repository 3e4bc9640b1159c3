// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package health tracks per-backend success rate, consecutive failures, and
// latency, deriving the status the orchestrator routes on.
package health

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the derived availability of one backend.
type Status string

const (
	StatusHealthy     Status = "healthy"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
	StatusMaintenance Status = "maintenance"
)

// Status derivation thresholds.
const (
	unavailableConsecutiveFailures = 5
	degradedConsecutiveFailures    = 3
	degradedSuccessRate            = 0.5
	healthySuccessRate             = 0.9

	// Latency EMA weighting: new = 0.8*old + 0.2*sample.
	emaOldWeight = 0.8
	emaNewWeight = 0.2
)

// Config holds the monitor parameters.
type Config struct {
	// CheckInterval is the background sweep period.
	CheckInterval time.Duration
	// IdleTimeout marks a backend unavailable when it has seen no traffic
	// for this long.
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

type record struct {
	status              Status
	totalRequests       int64
	failedRequests      int64
	consecutiveFailures int
	lastSuccess         time.Time
	lastFailure         time.Time
	lastActivity        time.Time
	avgResponseTime     time.Duration
	hasLatency          bool
	lastError           string
}

// Snapshot is a read-only copy of one backend's health record.
type Snapshot struct {
	Backend             string        `json:"backend"`
	Status              Status        `json:"status"`
	TotalRequests       int64         `json:"total_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	SuccessRate         float64       `json:"success_rate"`
	LastSuccess         time.Time     `json:"last_success,omitempty"`
	LastFailure         time.Time     `json:"last_failure,omitempty"`
	AvgResponseTime     time.Duration `json:"avg_response_time"`
	LastError           string        `json:"last_error,omitempty"`
}

// Monitor tracks health per registered backend. Safe for concurrent use.
type Monitor struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.RWMutex
	records map[string]*record
	order   []string

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMonitor creates a monitor, applying defaults for zero-valued fields.
// Call Start to begin the background sweep.
func NewMonitor(cfg Config) *Monitor {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 60 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 600 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cfg:     cfg,
		logger:  logger,
		records: make(map[string]*record),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Register adds a backend. Registration order is preserved by GetAvailable
// and GetHealthy. Registering twice is a no-op.
func (m *Monitor) Register(backend string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[backend]; ok {
		return
	}
	m.records[backend] = &record{
		status:       StatusHealthy,
		lastActivity: time.Now(),
	}
	m.order = append(m.order, backend)
}

// Start launches the background idle sweep.
func (m *Monitor) Start() {
	go m.sweepLoop()
}

// Close stops the background sweep.
func (m *Monitor) Close() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		<-m.doneCh
	})
}

func (m *Monitor) sweepLoop() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep marks long-idle backends unavailable. The transition is advisory: a
// later RecordSuccess flips the backend straight back to healthy.
func (m *Monitor) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for name, r := range m.records {
		if r.status == StatusMaintenance {
			continue
		}
		if now.Sub(r.lastActivity) > m.cfg.IdleTimeout && r.status != StatusUnavailable {
			r.status = StatusUnavailable
			m.logger.Warn("backend idle, marking unavailable",
				zap.String("backend", name),
				zap.Duration("idle", now.Sub(r.lastActivity)))
		}
	}
}

// RecordSuccess records a successful call with its latency.
func (m *Monitor) RecordSuccess(backend string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.recordFor(backend)
	now := time.Now()
	r.lastSuccess = now
	r.lastActivity = now
	r.consecutiveFailures = 0
	r.totalRequests++
	r.lastError = ""

	if r.hasLatency {
		old := float64(r.avgResponseTime)
		r.avgResponseTime = time.Duration(emaOldWeight*old + emaNewWeight*float64(latency))
	} else {
		r.avgResponseTime = latency
		r.hasLatency = true
	}

	m.deriveStatus(backend, r)
}

// RecordFailure records a failed call.
func (m *Monitor) RecordFailure(backend string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.recordFor(backend)
	now := time.Now()
	r.lastFailure = now
	r.lastActivity = now
	r.consecutiveFailures++
	r.failedRequests++
	r.totalRequests++
	if err != nil {
		r.lastError = err.Error()
	}

	m.deriveStatus(backend, r)
}

func (m *Monitor) recordFor(backend string) *record {
	r, ok := m.records[backend]
	if !ok {
		r = &record{status: StatusHealthy, lastActivity: time.Now()}
		m.records[backend] = r
		m.order = append(m.order, backend)
	}
	return r
}

func successRate(r *record) float64 {
	if r.totalRequests == 0 {
		return 1.0
	}
	return float64(r.totalRequests-r.failedRequests) / float64(r.totalRequests)
}

// deriveStatus applies the transition rules after every update. Maintenance
// is operator-controlled and never derived.
func (m *Monitor) deriveStatus(backend string, r *record) {
	if r.status == StatusMaintenance {
		return
	}

	rate := successRate(r)
	prev := r.status
	switch {
	case r.consecutiveFailures >= unavailableConsecutiveFailures:
		r.status = StatusUnavailable
	case r.consecutiveFailures >= degradedConsecutiveFailures || rate < degradedSuccessRate:
		r.status = StatusDegraded
	case rate >= healthySuccessRate && r.consecutiveFailures == 0:
		r.status = StatusHealthy
	}

	if r.status != prev {
		m.logger.Info("backend status changed",
			zap.String("backend", backend),
			zap.String("from", string(prev)),
			zap.String("to", string(r.status)),
			zap.Float64("success_rate", rate),
			zap.Int("consecutive_failures", r.consecutiveFailures))
	}
}

// SetMaintenance places a backend in or out of maintenance. Leaving
// maintenance re-derives the status from the counters.
func (m *Monitor) SetMaintenance(backend string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.recordFor(backend)
	if enabled {
		r.status = StatusMaintenance
		return
	}
	r.status = StatusHealthy
	m.deriveStatus(backend, r)
}

// Status returns the current status for backend.
func (m *Monitor) Status(backend string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.records[backend]; ok {
		return r.status
	}
	return StatusHealthy
}

// GetAvailable returns the backends whose status is healthy or degraded, in
// registration order.
func (m *Monitor) GetAvailable() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, name := range m.order {
		switch m.records[name].status {
		case StatusHealthy, StatusDegraded:
			out = append(out, name)
		}
	}
	return out
}

// GetHealthy returns only healthy backends, in registration order.
func (m *Monitor) GetHealthy() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, name := range m.order {
		if m.records[name].status == StatusHealthy {
			out = append(out, name)
		}
	}
	return out
}

// Snapshot returns a copy of every backend's record, in registration order.
func (m *Monitor) Snapshot() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.order))
	for _, name := range m.order {
		r := m.records[name]
		out = append(out, Snapshot{
			Backend:             name,
			Status:              r.status,
			TotalRequests:       r.totalRequests,
			FailedRequests:      r.failedRequests,
			ConsecutiveFailures: r.consecutiveFailures,
			SuccessRate:         successRate(r),
			LastSuccess:         r.lastSuccess,
			LastFailure:         r.lastFailure,
			AvgResponseTime:     r.avgResponseTime,
			LastError:           r.lastError,
		})
	}
	return out
}
