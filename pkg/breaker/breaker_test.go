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
package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/gavel/pkg/classify"
)

func TestOpensAfterThresholdSystemFailures(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 3, RecoveryTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		b.RecordFailure("anthropic", classify.CategorySystem)
		assert.Equal(t, StateClosed, b.State("anthropic"))
		assert.True(t, b.Allow("anthropic"))
	}

	b.RecordFailure("anthropic", classify.CategorySystem)
	assert.Equal(t, StateOpen, b.State("anthropic"))
	assert.False(t, b.Allow("anthropic"))
}

func TestRateLimitDoesNotOpen(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 3, RecoveryTimeout: time.Minute})

	b.RecordFailure("openai", classify.CategorySystem)
	b.RecordFailure("openai", classify.CategorySystem)
	// Throttling decrements the count instead of incrementing it.
	b.RecordFailure("openai", classify.CategoryRateLimit)
	b.RecordFailure("openai", classify.CategorySystem)
	assert.Equal(t, StateClosed, b.State("openai"))

	b.RecordFailure("openai", classify.CategorySystem)
	assert.Equal(t, StateOpen, b.State("openai"))
}

func TestNonOpeningCategoryNeverOpens(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 2, RecoveryTimeout: time.Minute})

	for i := 0; i < 5; i++ {
		b.RecordFailure("bedrock", classify.CategoryNetwork)
	}
	assert.Equal(t, StateClosed, b.State("bedrock"))
	assert.True(t, b.Allow("bedrock"))
}

func TestRecoveryProbeAndClose(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 30 * time.Millisecond})

	b.RecordFailure("anthropic", classify.CategoryTimeout)
	require.Equal(t, StateOpen, b.State("anthropic"))
	require.False(t, b.Allow("anthropic"))

	time.Sleep(50 * time.Millisecond)

	// Exactly one probe is permitted.
	assert.True(t, b.Allow("anthropic"))
	assert.Equal(t, StateHalfOpen, b.State("anthropic"))
	assert.False(t, b.Allow("anthropic"))

	b.RecordSuccess("anthropic")
	assert.Equal(t, StateClosed, b.State("anthropic"))
	assert.True(t, b.Allow("anthropic"))
}

func TestFailedProbeReopens(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 30 * time.Millisecond})

	b.RecordFailure("anthropic", classify.CategorySystem)
	time.Sleep(50 * time.Millisecond)
	require.True(t, b.Allow("anthropic"))

	b.RecordFailure("anthropic", classify.CategorySystem)
	assert.Equal(t, StateOpen, b.State("anthropic"))
	assert.False(t, b.Allow("anthropic"))
}

func TestSuccessThresholdCountsConsecutiveProbes(t *testing.T) {
	t.Parallel()

	b := New(Config{
		FailureThreshold: 1,
		RecoveryTimeout:  30 * time.Millisecond,
		SuccessThreshold: 2,
	})

	b.RecordFailure("bedrock", classify.CategoryTransient)
	time.Sleep(50 * time.Millisecond)

	require.True(t, b.Allow("bedrock"))
	b.RecordSuccess("bedrock")
	assert.Equal(t, StateHalfOpen, b.State("bedrock"))

	require.True(t, b.Allow("bedrock"))
	b.RecordSuccess("bedrock")
	assert.Equal(t, StateClosed, b.State("bedrock"))
}

func TestClosedSuccessDecrementsFailureCount(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 3, RecoveryTimeout: time.Minute})

	b.RecordFailure("openai", classify.CategorySystem)
	b.RecordFailure("openai", classify.CategorySystem)
	b.RecordSuccess("openai")
	b.RecordSuccess("openai")

	b.RecordFailure("openai", classify.CategorySystem)
	b.RecordFailure("openai", classify.CategorySystem)
	assert.Equal(t, StateClosed, b.State("openai"))

	stats := b.GetStats("openai")
	assert.Equal(t, 2, stats.FailureCount)
}

func TestServicesAreIndependent(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	b.RecordFailure("anthropic", classify.CategorySystem)
	assert.Equal(t, StateOpen, b.State("anthropic"))
	assert.Equal(t, StateClosed, b.State("openai"))
	assert.True(t, b.Allow("openai"))
}

func TestReset(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Minute})

	b.RecordFailure("anthropic", classify.CategorySystem)
	require.Equal(t, StateOpen, b.State("anthropic"))

	b.Reset("anthropic")
	assert.Equal(t, StateClosed, b.State("anthropic"))
	assert.True(t, b.Allow("anthropic"))
}
