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
// Package breaker implements a per-service circuit breaker that blocks calls
// to judge backends that keep failing.
package breaker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/classify"
)

// State represents the state of one circuit.
type State int

const (
	// StateClosed - normal operation, requests allowed.
	StateClosed State = iota
	// StateOpen - failing, requests blocked.
	StateOpen
	// StateHalfOpen - testing recovery, one probe allowed.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config holds the breaker parameters shared by every circuit.
type Config struct {
	// FailureThreshold is the failure count at which a circuit opens.
	FailureThreshold int
	// RecoveryTimeout is how long an open circuit rejects before probing.
	RecoveryTimeout time.Duration
	// SuccessThreshold is the number of consecutive half-open successes
	// needed to close. The default of 1 closes on the first success.
	SuccessThreshold int
	Logger           *zap.Logger
}

// circuit is the state machine for one service.
//
// Transitions:
//   - CLOSED -> OPEN: failure count reaches the threshold on a failure whose
//     category is system, timeout, or transient. Rate-limit failures do not
//     count toward opening; they decrement the count instead.
//   - OPEN -> HALF_OPEN: after RecoveryTimeout, checked lazily by Allow.
//   - HALF_OPEN -> CLOSED: after SuccessThreshold consecutive successes.
//   - HALF_OPEN -> OPEN: any failure.
type circuit struct {
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
	probeInFlight   bool
}

// Breaker manages one circuit per service name.
type Breaker struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	circuits map[string]*circuit
}

// New creates a breaker, applying defaults for zero-valued config fields.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		cfg:      cfg,
		logger:   logger,
		circuits: make(map[string]*circuit),
	}
}

// opensCircuit reports whether a failure of the given category counts toward
// opening the circuit.
func opensCircuit(cat classify.Category) bool {
	switch cat {
	case classify.CategorySystem, classify.CategoryTimeout, classify.CategoryTransient:
		return true
	default:
		return false
	}
}

func (b *Breaker) circuitFor(service string) *circuit {
	c, ok := b.circuits[service]
	if !ok {
		c = &circuit{state: StateClosed, lastStateChange: time.Now()}
		b.circuits[service] = c
	}
	return c
}

// Allow reports whether a request to service may proceed. In the open state
// it flips to half-open once the recovery timeout has elapsed; in half-open
// exactly one probe is permitted at a time.
func (b *Breaker) Allow(service string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(service)
	switch c.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(c.lastFailureTime) >= b.cfg.RecoveryTimeout {
			c.state = StateHalfOpen
			c.successCount = 0
			c.probeInFlight = true
			c.lastStateChange = time.Now()
			b.logger.Info("circuit half-open, probing",
				zap.String("service", service))
			return true
		}
		return false

	case StateHalfOpen:
		if c.probeInFlight {
			return false
		}
		c.probeInFlight = true
		return true

	default:
		return true
	}
}

// RecordSuccess records a successful call. In half-open it counts toward
// closing; in closed it decrements the failure count to reward sustained
// success.
func (b *Breaker) RecordSuccess(service string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(service)
	switch c.state {
	case StateHalfOpen:
		c.probeInFlight = false
		c.successCount++
		if c.successCount >= b.cfg.SuccessThreshold {
			c.state = StateClosed
			c.failureCount = 0
			c.successCount = 0
			c.lastStateChange = time.Now()
			b.logger.Info("circuit closed", zap.String("service", service))
		}

	case StateClosed:
		if c.failureCount > 0 {
			c.failureCount--
		}
	}
}

// RecordFailure records a failed call of the given category.
func (b *Breaker) RecordFailure(service string, cat classify.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(service)
	c.lastFailureTime = time.Now()

	if cat == classify.CategoryRateLimit {
		// Throttling is not a backend fault.
		if c.failureCount > 0 {
			c.failureCount--
		}
		if c.state == StateHalfOpen {
			c.probeInFlight = false
		}
		return
	}

	c.failureCount++
	c.successCount = 0

	switch c.state {
	case StateClosed:
		if c.failureCount >= b.cfg.FailureThreshold && opensCircuit(cat) {
			c.state = StateOpen
			c.lastStateChange = time.Now()
			b.logger.Warn("circuit opened",
				zap.String("service", service),
				zap.Int("failures", c.failureCount),
				zap.String("category", string(cat)))
		}

	case StateHalfOpen:
		c.probeInFlight = false
		c.state = StateOpen
		c.lastStateChange = time.Now()
		b.logger.Warn("circuit reopened after failed probe",
			zap.String("service", service),
			zap.String("category", string(cat)))
	}
}

// State returns the current state for service.
func (b *Breaker) State(service string) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.circuitFor(service).state
}

// Reset returns the service's circuit to closed.
func (b *Breaker) Reset(service string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(service)
	c.state = StateClosed
	c.failureCount = 0
	c.successCount = 0
	c.probeInFlight = false
	c.lastStateChange = time.Now()
}

// Stats contains a snapshot of one circuit.
type Stats struct {
	State           State         `json:"state"`
	FailureCount    int           `json:"failure_count"`
	SuccessCount    int           `json:"success_count"`
	LastFailureTime time.Time     `json:"last_failure_time"`
	LastStateChange time.Time     `json:"last_state_change"`
	SinceChange     time.Duration `json:"since_change"`
}

// GetStats returns a snapshot of the service's circuit.
func (b *Breaker) GetStats(service string) Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(service)
	return Stats{
		State:           c.state,
		FailureCount:    c.failureCount,
		SuccessCount:    c.successCount,
		LastFailureTime: c.lastFailureTime,
		LastStateChange: c.lastStateChange,
		SinceChange:     time.Since(c.lastStateChange),
	}
}
