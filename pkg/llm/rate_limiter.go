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
// Package llm constructs judge provider clients and shares their request
// rate limiting.
package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiterConfig configures the token bucket.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained request rate (default 50).
	RequestsPerMinute int
	// Burst is the bucket capacity (default 10).
	Burst  int
	Logger *zap.Logger
}

// RateLimiter is a token-bucket limiter shared by the HTTP clients so
// bursts are spaced out before they turn into 429s.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	waits      int64
	logger     *zap.Logger
}

// NewRateLimiter creates a limiter, applying defaults for zero-valued
// config fields.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		tokens:     float64(cfg.Burst),
		capacity:   float64(cfg.Burst),
		refillRate: float64(cfg.RequestsPerMinute) / 60.0,
		lastRefill: time.Now(),
		logger:     logger,
	}
}

// refill tops the bucket up. Caller holds the lock.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.capacity {
		r.tokens = r.capacity
	}
	r.lastRefill = now
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		needed := (1 - r.tokens) / r.refillRate
		r.waits++
		r.mu.Unlock()

		wait := time.Duration(needed * float64(time.Second))
		r.logger.Debug("rate limiter waiting", zap.Duration("wait", wait))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Waits returns how many times a caller had to wait for a token.
func (r *RateLimiter) Waits() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waits
}
