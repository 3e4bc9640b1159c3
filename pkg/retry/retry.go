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
// Package retry executes judge calls under category-aware retry policies
// with exponential backoff, full jitter, and circuit breaker integration.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/breaker"
	"github.com/teradata-labs/gavel/pkg/classify"
)

// ErrCircuitOpen is returned when the breaker rejects the call before the
// first attempt.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for %s", e.Service)
}

// Policy is the retry behavior for one error category.
type Policy struct {
	Enabled           bool
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
}

// Config holds the base retry parameters the per-category policies are
// derived from.
type Config struct {
	// MaxAttempts is the base attempt count (default 3). Rate-limit and
	// timeout policies derive their own counts from it.
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterEnabled     bool
	Logger            *zap.Logger
}

// Engine runs operations under the category policy table.
type Engine struct {
	cfg        Config
	policies   map[classify.Category]Policy
	maxIter    int
	classifier *classify.Classifier
	breaker    *breaker.Breaker
	logger     *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a retry engine. The classifier and breaker are shared with the
// orchestrator; pass the same instances.
func New(cfg Config, classifier *classify.Classifier, brk *breaker.Breaker) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2.0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = classify.NewClassifier()
	}

	policies := buildPolicies(cfg)
	maxIter := 1
	for _, p := range policies {
		if p.Enabled && p.MaxAttempts > maxIter {
			maxIter = p.MaxAttempts
		}
	}

	return &Engine{
		cfg:        cfg,
		policies:   policies,
		maxIter:    maxIter,
		classifier: classifier,
		breaker:    brk,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// buildPolicies derives the per-category table from the base config.
func buildPolicies(cfg Config) map[classify.Category]Policy {
	base := Policy{
		Enabled:           true,
		MaxAttempts:       cfg.MaxAttempts,
		BaseDelay:         cfg.BaseDelay,
		MaxDelay:          cfg.MaxDelay,
		BackoffMultiplier: cfg.BackoffMultiplier,
		Jitter:            cfg.JitterEnabled,
	}

	rateLimit := base
	rateLimit.MaxAttempts = maxInt(cfg.MaxAttempts+2, 5)
	rateLimit.BaseDelay = 2 * cfg.BaseDelay
	rateLimit.MaxDelay = minDuration(2*cfg.MaxDelay, 300*time.Second)

	timeout := base
	timeout.MaxAttempts = maxInt(cfg.MaxAttempts-1, 2)
	timeout.BaseDelay = cfg.BaseDelay / 2
	timeout.MaxDelay = minDuration(cfg.MaxDelay, 30*time.Second)

	unknown := base
	unknown.MaxAttempts = maxInt(cfg.MaxAttempts-1, 2)

	disabled := Policy{Enabled: false}

	return map[classify.Category]Policy{
		classify.CategoryTransient:      base,
		classify.CategoryNetwork:        base,
		classify.CategorySystem:         base,
		classify.CategoryRateLimit:      rateLimit,
		classify.CategoryTimeout:        timeout,
		classify.CategoryUnknown:        unknown,
		classify.CategoryAuthentication: disabled,
		classify.CategoryUser:           disabled,
		classify.CategoryPermanent:      disabled,
	}
}

// PolicyFor returns the policy used for a category.
func (e *Engine) PolicyFor(cat classify.Category) Policy {
	if p, ok := e.policies[cat]; ok {
		return p
	}
	return Policy{Enabled: false}
}

// Execute runs op until it succeeds, its error is not retryable, or the
// policy for the current error's category is exhausted. The breaker is
// consulted once before the first attempt and notified of every outcome.
func (e *Engine) Execute(ctx context.Context, service, operation string, op func(context.Context) (interface{}, error)) (interface{}, error) {
	if e.breaker != nil && !e.breaker.Allow(service) {
		return nil, &ErrCircuitOpen{Service: service}
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxIter; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if e.breaker != nil {
				e.breaker.RecordSuccess(service)
			}
			return result, nil
		}
		lastErr = err

		cls := e.classifier.Classify(err, "")
		if e.breaker != nil {
			e.breaker.RecordFailure(service, cls.Category)
		}

		policy := e.PolicyFor(cls.Category)
		if !policy.Enabled || !cls.Retryable {
			e.logger.Debug("not retrying",
				zap.String("service", service),
				zap.String("operation", operation),
				zap.String("category", string(cls.Category)),
				zap.Error(err))
			return nil, err
		}
		if attempt >= policy.MaxAttempts {
			e.logger.Debug("retries exhausted",
				zap.String("service", service),
				zap.String("operation", operation),
				zap.String("category", string(cls.Category)),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return nil, err
		}

		delay := e.backoff(policy, attempt)
		e.logger.Debug("retrying after backoff",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.String("category", string(cls.Category)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// backoff computes the sleep before attempt n+1: exponential growth capped
// at the policy maximum, then full jitter.
func (e *Engine) backoff(p Policy, attempt int) time.Duration {
	raw := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-1))
	if raw > float64(p.MaxDelay) {
		raw = float64(p.MaxDelay)
	}
	delay := time.Duration(raw)
	if p.Jitter && delay > 0 {
		e.rngMu.Lock()
		delay = time.Duration(e.rng.Int63n(int64(delay) + 1))
		e.rngMu.Unlock()
	}
	return delay
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
