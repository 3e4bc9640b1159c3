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
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/gavel/pkg/breaker"
	"github.com/teradata-labs/gavel/pkg/classify"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:       3,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestAuthFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	e := New(fastConfig(), classify.NewClassifier(), nil)

	calls := 0
	_, err := e.Execute(context.Background(), "anthropic", "evaluate", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("401 Unauthorized")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestTransientFailureExhaustsAttempts(t *testing.T) {
	t.Parallel()

	e := New(fastConfig(), classify.NewClassifier(), nil)

	calls := 0
	_, err := e.Execute(context.Background(), "anthropic", "evaluate", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("model overloaded, try again")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestSucceedsMidway(t *testing.T) {
	t.Parallel()

	e := New(fastConfig(), classify.NewClassifier(), nil)

	calls := 0
	got, err := e.Execute(context.Background(), "openai", "compare", func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("503 Service Unavailable")
		}
		return "verdict", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "verdict", got)
	assert.Equal(t, 3, calls)
}

func TestRateLimitPolicyExtendsAttempts(t *testing.T) {
	t.Parallel()

	e := New(fastConfig(), classify.NewClassifier(), nil)

	calls := 0
	_, err := e.Execute(context.Background(), "anthropic", "evaluate", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("429 Too Many Requests")
	})
	require.Error(t, err)
	assert.Equal(t, 5, calls, "rate limit policy allows at least 5 attempts")
}

func TestTimeoutPolicyShortensAttempts(t *testing.T) {
	t.Parallel()

	e := New(fastConfig(), classify.NewClassifier(), nil)

	calls := 0
	_, err := e.Execute(context.Background(), "bedrock", "evaluate", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("Read timed out")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "timeout policy runs max(base-1, 2) attempts")
}

func TestOpenBreakerFailsWithoutCalling(t *testing.T) {
	t.Parallel()

	brk := breaker.New(breaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})
	brk.RecordFailure("anthropic", classify.CategorySystem)
	require.Equal(t, breaker.StateOpen, brk.State("anthropic"))

	e := New(fastConfig(), classify.NewClassifier(), brk)

	calls := 0
	_, err := e.Execute(context.Background(), "anthropic", "evaluate", func(context.Context) (interface{}, error) {
		calls++
		return nil, nil
	})
	require.Error(t, err)
	var open *ErrCircuitOpen
	assert.ErrorAs(t, err, &open)
	assert.Equal(t, 0, calls)
}

func TestBreakerSeesEveryOutcome(t *testing.T) {
	t.Parallel()

	brk := breaker.New(breaker.Config{FailureThreshold: 3, RecoveryTimeout: time.Minute})
	e := New(fastConfig(), classify.NewClassifier(), brk)

	_, err := e.Execute(context.Background(), "anthropic", "evaluate", func(context.Context) (interface{}, error) {
		return nil, errors.New("500 Internal Server Error")
	})
	require.Error(t, err)

	// Three failed attempts opened the circuit.
	assert.Equal(t, breaker.StateOpen, brk.State("anthropic"))
}

func TestContextCancellationStopsRetrying(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.BaseDelay = 200 * time.Millisecond
	cfg.MaxDelay = time.Second
	e := New(cfg, classify.NewClassifier(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := e.Execute(ctx, "anthropic", "evaluate", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("503 Service Unavailable")
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestBackoffBounds(t *testing.T) {
	t.Parallel()

	cfg := Config{
		MaxAttempts:       3,
		BaseDelay:         100 * time.Millisecond,
		MaxDelay:          400 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterEnabled:     true,
	}
	e := New(cfg, classify.NewClassifier(), nil)
	p := e.PolicyFor(classify.CategoryTransient)

	for attempt := 1; attempt <= 5; attempt++ {
		expected := float64(p.BaseDelay) * pow(p.BackoffMultiplier, attempt-1)
		if expected > float64(p.MaxDelay) {
			expected = float64(p.MaxDelay)
		}
		for i := 0; i < 50; i++ {
			d := e.backoff(p, attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, float64(d), expected)
		}
	}
}

func TestBackoffWithoutJitterIsDeterministic(t *testing.T) {
	t.Parallel()

	e := New(Config{
		MaxAttempts:       3,
		BaseDelay:         100 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
	}, classify.NewClassifier(), nil)
	p := e.PolicyFor(classify.CategorySystem)

	assert.Equal(t, 100*time.Millisecond, e.backoff(p, 1))
	assert.Equal(t, 200*time.Millisecond, e.backoff(p, 2))
	assert.Equal(t, 400*time.Millisecond, e.backoff(p, 3))
	assert.Equal(t, 800*time.Millisecond, e.backoff(p, 4))
	assert.Equal(t, time.Second, e.backoff(p, 5), "capped at max delay")
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
