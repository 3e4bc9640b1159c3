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
// Package fallback orders judge providers by priority and live health, runs
// each call under breaker, retry, and timeout guards, and degrades through
// cache and simplified responses when every provider fails.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/breaker"
	"github.com/teradata-labs/gavel/pkg/cache"
	"github.com/teradata-labs/gavel/pkg/classify"
	"github.com/teradata-labs/gavel/pkg/health"
	"github.com/teradata-labs/gavel/pkg/retry"
	"github.com/teradata-labs/gavel/pkg/timeout"
	"github.com/teradata-labs/gavel/pkg/types"
)

// Mode is the operating mode surfaced in every response.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeDegraded    Mode = "degraded"
	ModeFallback    Mode = "fallback"
	ModeMaintenance Mode = "maintenance"
)

// Operation selects the simplified-response shape on total failure.
type Operation string

const (
	OperationEvaluate      Operation = "evaluate"
	OperationCompare       Operation = "compare"
	OperationMultiCriteria Operation = "multi_criteria"
)

// ErrAllProvidersFailed reports that every provider in the computed order
// failed. The final response wraps it rather than raising it.
var ErrAllProvidersFailed = errors.New("all judge providers failed")

// DefaultPriority is the configured provider order when none is supplied.
var DefaultPriority = []string{"anthropic", "openai", "bedrock"}

// Response is the orchestrator's uniform result envelope.
type Response struct {
	Content      interface{}            `json:"content"`
	Mode         Mode                   `json:"mode"`
	ProviderUsed string                 `json:"provider_used,omitempty"`
	IsCached     bool                   `json:"is_cached"`
	IsSimplified bool                   `json:"is_simplified"`
	Confidence   float64                `json:"confidence"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Request carries the per-call routing inputs.
type Request struct {
	// Operation selects the simplified response shape.
	Operation Operation
	// CacheKey enables the cache write on success and the cache lookup on
	// total failure. Empty disables caching for this call.
	CacheKey string
	// PreferredProvider, when available, is tried first.
	PreferredProvider string
}

// Config holds the orchestrator parameters.
type Config struct {
	// Priority is the configured provider order (default anthropic,
	// openai, bedrock).
	Priority []string
	// Timeouts maps provider name to its timeout config; missing providers
	// inherit DefaultTimeout.
	Timeouts map[string]timeout.Config
	// DefaultTimeout applies to providers without a specific config.
	DefaultTimeout timeout.Config
	// CachingEnabled controls both the success write path and the
	// total-failure lookup.
	CachingEnabled bool
	// SimplifiedEnabled controls the neutral last-resort verdicts.
	SimplifiedEnabled bool
	// RetryAfter is the advisory returned with maintenance responses
	// (default 300s).
	RetryAfter time.Duration
	Logger     *zap.Logger
}

// Orchestrator owns the resilience pipeline shared by all requests: one
// breaker and health record per provider plus the shared cache, classifier,
// retry engine, and timeout manager.
type Orchestrator struct {
	cfg        Config
	logger     *zap.Logger
	breaker    *breaker.Breaker
	health     *health.Monitor
	retry      *retry.Engine
	timeouts   *timeout.Manager
	cache      *cache.Cache
	classifier *classify.Classifier
	handler    *classify.Handler

	mu              sync.RWMutex
	maintenanceMode bool
	maintenanceNote string
}

// Deps are the shared components the orchestrator coordinates. All fields
// are required except Handler.
type Deps struct {
	Breaker    *breaker.Breaker
	Health     *health.Monitor
	Retry      *retry.Engine
	Timeouts   *timeout.Manager
	Cache      *cache.Cache
	Classifier *classify.Classifier
	Handler    *classify.Handler
}

// New creates an orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	if len(cfg.Priority) == 0 {
		cfg.Priority = DefaultPriority
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = 300 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		breaker:    deps.Breaker,
		health:     deps.Health,
		retry:      deps.Retry,
		timeouts:   deps.Timeouts,
		cache:      deps.Cache,
		classifier: deps.Classifier,
		handler:    deps.Handler,
	}
}

// providerOrder computes the order for one call: the available set first
// (all configured providers if none are available), preferred in front.
func (o *Orchestrator) providerOrder(preferred string) []string {
	available := o.health.GetAvailable()
	if len(available) == 0 {
		available = o.cfg.Priority
	}

	inAvailable := make(map[string]bool, len(available))
	for _, p := range available {
		inAvailable[p] = true
	}

	var order []string
	if preferred != "" && inAvailable[preferred] {
		order = append(order, preferred)
	}
	for _, p := range o.cfg.Priority {
		if inAvailable[p] && p != preferred {
			order = append(order, p)
		}
	}
	// Available providers outside the configured priority go last.
	for _, p := range available {
		if !contains(order, p) {
			order = append(order, p)
		}
	}
	return order
}

// timeoutFor returns the provider's timeout config.
func (o *Orchestrator) timeoutFor(provider string) timeout.Config {
	if cfg, ok := o.cfg.Timeouts[provider]; ok {
		return cfg
	}
	return o.cfg.DefaultTimeout
}

// ExecuteWithFallback runs op against each provider in priority order until
// one succeeds. Total failure degrades to the cache, then to a simplified
// verdict, then to a maintenance response. The returned error is non-nil
// only for programming errors; operational failure is reported in the
// Response itself.
func (o *Orchestrator) ExecuteWithFallback(ctx context.Context, req Request, op func(ctx context.Context, provider string) (interface{}, error)) (*Response, error) {
	order := o.providerOrder(req.PreferredProvider)
	correlationID := uuid.NewString()

	var lastErr error
	for i, provider := range order {
		provider := provider
		tcfg := o.timeoutFor(provider)

		value, err := o.retry.Execute(ctx, provider, string(req.Operation), func(attemptCtx context.Context) (interface{}, error) {
			res := o.timeouts.Execute(attemptCtx, string(req.Operation), tcfg, func(callCtx context.Context) (interface{}, error) {
				return op(callCtx, provider)
			})
			if res.Success {
				o.health.RecordSuccess(provider, res.Duration)
				return res.Value, nil
			}
			o.health.RecordFailure(provider, res.Err)
			return nil, res.Err
		})

		if err == nil {
			if o.cfg.CachingEnabled && req.CacheKey != "" && o.cache != nil {
				o.cache.Put(req.CacheKey, value)
			}
			return &Response{
				Content:      value,
				Mode:         o.determineMode(),
				ProviderUsed: provider,
				Confidence:   1.0,
				Metadata: map[string]interface{}{
					"attempts":       i + 1,
					"correlation_id": correlationID,
				},
			}, nil
		}

		lastErr = err
		if o.handler != nil {
			o.handler.Handle(err, provider, correlationID)
		}
		o.logger.Warn("provider failed, advancing",
			zap.String("provider", provider),
			zap.String("operation", string(req.Operation)),
			zap.Error(err))
	}

	return o.degrade(req, order, lastErr, correlationID), nil
}

// degrade implements the total-failure ladder: cache, simplified verdict,
// maintenance error envelope.
func (o *Orchestrator) degrade(req Request, order []string, lastErr error, correlationID string) *Response {
	if o.cfg.CachingEnabled && req.CacheKey != "" && o.cache != nil {
		if cached := o.cache.Get(req.CacheKey); cached != nil {
			o.logger.Info("serving cached verdict after total provider failure",
				zap.String("operation", string(req.Operation)))
			return &Response{
				Content:    cached,
				Mode:       ModeFallback,
				IsCached:   true,
				Confidence: 0.7,
				Metadata: map[string]interface{}{
					"providers_tried": order,
					"correlation_id":  correlationID,
				},
			}
		}
	}

	if o.cfg.SimplifiedEnabled {
		content, confidence := simplifiedVerdict(req.Operation)
		o.logger.Warn("serving simplified verdict after total provider failure",
			zap.String("operation", string(req.Operation)))
		return &Response{
			Content:      content,
			Mode:         ModeFallback,
			IsSimplified: true,
			Confidence:   confidence,
			Metadata: map[string]interface{}{
				"providers_tried": order,
				"correlation_id":  correlationID,
			},
		}
	}

	err := lastErr
	if err == nil {
		err = ErrAllProvidersFailed
	}
	return &Response{
		Mode:       ModeMaintenance,
		Confidence: 0.0,
		Metadata: map[string]interface{}{
			"error":           fmt.Errorf("%w: %v", ErrAllProvidersFailed, err).Error(),
			"status":          "service_unavailable",
			"retry_after":     int(o.cfg.RetryAfter.Seconds()),
			"providers_tried": order,
			"correlation_id":  correlationID,
		},
	}
}

// simplifiedVerdict builds the neutral last-resort content per operation.
func simplifiedVerdict(op Operation) (interface{}, float64) {
	switch op {
	case OperationCompare:
		return &types.ComparisonVerdict{
			Winner:     types.WinnerTie,
			Reasoning:  "Service temporarily unavailable, cannot perform detailed comparison",
			Confidence: 0.3,
		}, 0.3
	default:
		return &types.EvaluationVerdict{
			Score:      3,
			Reasoning:  "Service temporarily unavailable, returning neutral score",
			Confidence: 0.5,
		}, 0.5
	}
}

// determineMode derives the operating mode from maintenance state and
// current backend health.
func (o *Orchestrator) determineMode() Mode {
	o.mu.RLock()
	maintenance := o.maintenanceMode
	o.mu.RUnlock()
	if maintenance {
		return ModeMaintenance
	}

	healthy := o.health.GetHealthy()
	available := o.health.GetAvailable()
	switch {
	case len(healthy) == len(o.cfg.Priority) && len(o.cfg.Priority) > 0:
		return ModeFull
	case len(available) > 0:
		return ModeDegraded
	default:
		return ModeFallback
	}
}

// SetMaintenanceMode forces every response's mode to maintenance until
// cleared.
func (o *Orchestrator) SetMaintenanceMode(enabled bool, reason string) {
	o.mu.Lock()
	o.maintenanceMode = enabled
	o.maintenanceNote = reason
	o.mu.Unlock()

	o.logger.Info("maintenance mode changed",
		zap.Bool("enabled", enabled),
		zap.String("reason", reason))
}

// MaintenanceMode returns the operator-set maintenance flag and note.
func (o *Orchestrator) MaintenanceMode() (bool, string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.maintenanceMode, o.maintenanceNote
}

// Mode returns the current derived operating mode.
func (o *Orchestrator) Mode() Mode {
	return o.determineMode()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
