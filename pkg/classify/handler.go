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
	"sync"

	"go.uber.org/zap"
)

// HandlerConfig configures the error handler.
type HandlerConfig struct {
	// AlertsEnabled controls whether critical-severity errors emit an alert
	// log line.
	AlertsEnabled bool
	Logger        *zap.Logger
}

// Handler wraps a Classifier with per-category counters and alerting. One
// handler is shared across all backends.
type Handler struct {
	classifier *Classifier
	logger     *zap.Logger
	alerts     bool

	mu     sync.Mutex
	counts map[Category]int64
}

// NewHandler creates a handler around the given classifier.
func NewHandler(classifier *Classifier, cfg HandlerConfig) *Handler {
	if classifier == nil {
		classifier = NewClassifier()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		classifier: classifier,
		logger:     logger,
		alerts:     cfg.AlertsEnabled,
		counts:     make(map[Category]int64),
	}
}

// Classifier returns the underlying classifier.
func (h *Handler) Classifier() *Classifier {
	return h.classifier
}

// Handle classifies err, records it, and returns whether the caller should
// retry plus the user-visible message ("" when the error is not user-facing).
func (h *Handler) Handle(err error, service, correlationID string) (bool, string) {
	cls := h.classifier.Classify(err, correlationID)

	h.mu.Lock()
	h.counts[cls.Category]++
	h.mu.Unlock()

	if cls.Severity == SeverityCritical && h.alerts {
		h.logger.Error("critical judge error",
			zap.String("service", service),
			zap.String("category", string(cls.Category)),
			zap.String("correlation_id", correlationID),
			zap.String("details", cls.TechnicalDetails),
		)
	}

	userMsg := ""
	if !cls.Retryable {
		userMsg = cls.UserMessage
	}
	return cls.Retryable, userMsg
}

// Counts returns a copy of the per-category error counters.
func (h *Handler) Counts() map[Category]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[Category]int64, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}
