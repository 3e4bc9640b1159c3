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
// Package timeout runs operations under wall-clock deadlines with
// cooperative cancellation and graceful unwinding.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TimeoutType identifies which deadline fired.
type TimeoutType string

const (
	TimeoutRequest TimeoutType = "request"
	TimeoutConnect TimeoutType = "connect"
	TimeoutRead    TimeoutType = "read"
)

// Config holds the deadlines for one backend.
type Config struct {
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	// CancellationGracePeriod is how long to wait for a timed-out operation
	// to acknowledge cancellation and unwind (default 2s).
	CancellationGracePeriod time.Duration
}

// Result is the outcome of one guarded execution.
type Result struct {
	Success      bool
	Value        interface{}
	Err          error
	TimeoutType  TimeoutType
	Duration     time.Duration
	WasCancelled bool
	// Partial is set when a timed-out operation surfaced partial content;
	// Value then holds that content.
	Partial bool
}

// PartialResponder is implemented by errors that carry the partial content
// produced before a timeout.
type PartialResponder interface {
	PartialResponse() string
}

// operation tracks one in-flight execution so CancelAll can reach it.
type operation struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager executes operations under deadlines and tracks them for shutdown.
type Manager struct {
	logger *zap.Logger

	mu       sync.Mutex
	nextID   uint64
	inflight map[uint64]*operation
	closed   bool
}

// NewManager creates a timeout manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:   logger,
		inflight: make(map[uint64]*operation),
	}
}

func (m *Manager) register(name string, cancel context.CancelFunc) (uint64, *operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, nil, errors.New("timeout manager closed")
	}
	m.nextID++
	id := m.nextID
	op := &operation{name: name, cancel: cancel, done: make(chan struct{})}
	m.inflight[id] = op
	return id, op, nil
}

func (m *Manager) unregister(id uint64) {
	m.mu.Lock()
	delete(m.inflight, id)
	m.mu.Unlock()
}

// Execute runs op under cfg.RequestTimeout. On expiry the operation's
// context is cancelled and Execute waits up to the grace period for it to
// unwind before marking the cancellation forceful.
func (m *Manager) Execute(ctx context.Context, name string, cfg Config, op func(context.Context) (interface{}, error)) *Result {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.CancellationGracePeriod <= 0 {
		cfg.CancellationGracePeriod = 2 * time.Second
	}

	opCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	id, tracked, err := m.register(name, cancel)
	if err != nil {
		return &Result{Err: err}
	}
	defer m.unregister(id)

	start := time.Now()
	type outcome struct {
		value interface{}
		err   error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		defer close(tracked.done)
		value, err := op(opCtx)
		resultCh <- outcome{value: value, err: err}
	}()

	select {
	case out := <-resultCh:
		duration := time.Since(start)
		if out.err != nil {
			return m.failureResult(out.err, duration)
		}
		return &Result{Success: true, Value: out.value, Duration: duration}

	case <-opCtx.Done():
		cancel()
		duration := time.Since(start)

		// Wait for the operation to acknowledge cancellation.
		graceful := true
		select {
		case <-tracked.done:
		case <-time.After(cfg.CancellationGracePeriod):
			graceful = false
			m.logger.Warn("operation did not unwind within grace period",
				zap.String("operation", name),
				zap.Duration("grace", cfg.CancellationGracePeriod))
		}

		// The operation may have produced a result (possibly partial) while
		// we were waiting.
		select {
		case out := <-resultCh:
			if out.err == nil {
				return &Result{Success: true, Value: out.value, Duration: duration}
			}
			res := m.failureResult(out.err, duration)
			res.WasCancelled = true
			if res.TimeoutType == "" {
				res.TimeoutType = TimeoutRequest
			}
			return res
		default:
		}

		return &Result{
			Err:          fmt.Errorf("operation %s timed out after %s", name, cfg.RequestTimeout),
			TimeoutType:  TimeoutRequest,
			Duration:     duration,
			WasCancelled: graceful,
		}
	}
}

// failureResult maps an operation error onto a Result, surfacing partial
// content when the error carries it.
func (m *Manager) failureResult(err error, duration time.Duration) *Result {
	var partial PartialResponder
	if errors.As(err, &partial) {
		return &Result{
			Success:     true,
			Value:       partial.PartialResponse(),
			Partial:     true,
			TimeoutType: TimeoutRequest,
			Duration:    duration,
		}
	}
	res := &Result{Err: err, Duration: duration}
	if errors.Is(err, context.DeadlineExceeded) {
		res.TimeoutType = TimeoutRequest
	}
	return res
}

// CancelAll cancels every in-flight operation and waits for each to unwind,
// up to grace per operation, in parallel.
func (m *Manager) CancelAll(grace time.Duration) {
	if grace <= 0 {
		grace = 2 * time.Second
	}

	m.mu.Lock()
	ops := make([]*operation, 0, len(m.inflight))
	for _, op := range m.inflight {
		ops = append(ops, op)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, op := range ops {
		wg.Add(1)
		go func(op *operation) {
			defer wg.Done()
			op.cancel()
			select {
			case <-op.done:
			case <-time.After(grace):
				m.logger.Warn("forced cancellation",
					zap.String("operation", op.name))
			}
		}(op)
	}
	wg.Wait()
}

// Close cancels all in-flight operations and rejects new ones.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.CancelAll(0)
	return nil
}

// InFlight returns the number of live operations.
func (m *Manager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}
