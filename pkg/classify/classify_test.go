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
package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCategories(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	tests := []struct {
		name     string
		err      error
		category Category
	}{
		{"unauthorized", errors.New("401 Unauthorized"), CategoryAuthentication},
		{"rate limited", errors.New("429 Too Many Requests"), CategoryRateLimit},
		{"server error", errors.New("500 Internal Server Error"), CategorySystem},
		{"read timeout", errors.New("Read timed out"), CategoryTimeout},
		{"connection refused", errors.New("Connection refused"), CategoryNetwork},
		{"invalid input", errors.New("Invalid input"), CategoryUser},
		{"service unavailable", errors.New("Service temporarily unavailable"), CategorySystem},
		{"overloaded", errors.New("model overloaded, please retry"), CategoryTransient},
		{"gibberish", errors.New("zorp"), CategoryUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cls := c.Classify(tt.err, "")
			assert.Equal(t, tt.category, cls.Category)
		})
	}
}

func TestClassifyTypedErrors(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()
		cls := c.Classify(fmt.Errorf("call failed: %w", context.DeadlineExceeded), "")
		assert.Equal(t, CategoryTimeout, cls.Category)
	})

	t.Run("http error status wins over message", func(t *testing.T) {
		t.Parallel()
		err := &HTTPError{StatusCode: 429, Message: "slow down"}
		cls := c.Classify(fmt.Errorf("anthropic: %w", err), "")
		assert.Equal(t, CategoryRateLimit, cls.Category)
		assert.True(t, cls.Retryable)
	})

	t.Run("embedded 4xx is user", func(t *testing.T) {
		t.Parallel()
		cls := c.Classify(errors.New("API error (status 422): nope"), "")
		assert.Equal(t, CategoryUser, cls.Category)
	})
}

func TestClassifyDerivedFields(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	tests := []struct {
		name      string
		err       error
		severity  Severity
		retryable bool
	}{
		{"auth is critical and final", errors.New("invalid api key"), SeverityCritical, false},
		{"system is high and retryable", errors.New("502 Bad Gateway"), SeverityHigh, true},
		{"rate limit is medium", errors.New("rate limit exceeded"), SeverityMedium, true},
		{"network is low", errors.New("connection reset by peer"), SeverityLow, true},
		{"user is low and final", errors.New("bad request"), SeverityLow, false},
		{"unknown is retryable", errors.New("zorp"), SeverityMedium, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cls := c.Classify(tt.err, "corr-1")
			assert.Equal(t, tt.severity, cls.Severity)
			assert.Equal(t, tt.retryable, cls.Retryable)
			assert.NotEmpty(t, cls.UserMessage)
			assert.NotEmpty(t, cls.SuggestedAction)
			assert.Equal(t, "corr-1", cls.CorrelationID)
		})
	}
}

func TestHandlerCountsAndRetryDecision(t *testing.T) {
	t.Parallel()

	h := NewHandler(NewClassifier(), HandlerConfig{})

	retry, msg := h.Handle(errors.New("429 Too Many Requests"), "anthropic", "c1")
	assert.True(t, retry)
	assert.Empty(t, msg)

	retry, msg = h.Handle(errors.New("401 Unauthorized"), "anthropic", "c2")
	assert.False(t, retry)
	assert.NotEmpty(t, msg)

	_, _ = h.Handle(errors.New("429 Too Many Requests"), "openai", "c3")

	counts := h.Counts()
	require.Equal(t, int64(2), counts[CategoryRateLimit])
	require.Equal(t, int64(1), counts[CategoryAuthentication])
}
