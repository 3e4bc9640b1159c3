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
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/gavel/pkg/breaker"
	"github.com/teradata-labs/gavel/pkg/cache"
	"github.com/teradata-labs/gavel/pkg/classify"
	"github.com/teradata-labs/gavel/pkg/criteria"
	"github.com/teradata-labs/gavel/pkg/fallback"
	"github.com/teradata-labs/gavel/pkg/health"
	"github.com/teradata-labs/gavel/pkg/history"
	"github.com/teradata-labs/gavel/pkg/retry"
	"github.com/teradata-labs/gavel/pkg/timeout"
	"github.com/teradata-labs/gavel/pkg/types"
)

// ErrPromptMismatch rejects comparisons of responses to different prompts.
// The message matches the classifier's user-error patterns, so no retries
// or failover are spent on it.
var ErrPromptMismatch = errors.New("invalid input: responses answer different prompts")

// Config assembles the full judge service.
type Config struct {
	// Providers is the backend priority order (default anthropic, openai,
	// bedrock).
	Providers []string
	// Provider holds the per-client settings for BuildBackends.
	Provider ProviderConfig

	Retry   retry.Config
	Breaker breaker.Config
	Health  health.Config
	Cache   cache.Config

	// Timeouts maps provider name to its timeout config; others use
	// DefaultTimeout (default 30s request timeout).
	Timeouts       map[string]timeout.Config
	DefaultTimeout timeout.Config

	CachingEnabled    bool
	SimplifiedEnabled bool
	// RetryAfter is the advisory attached to maintenance responses.
	RetryAfter time.Duration

	// HistoryPath enables SQLite verdict persistence when non-empty.
	HistoryPath string

	Logger *zap.Logger
}

// Service is the resilient judge facade: backends behind the fallback
// orchestrator, verdict caching, and optional history persistence.
type Service struct {
	cfg      Config
	logger   *zap.Logger
	backends map[string]Backend
	order    []string

	orch     *fallback.Orchestrator
	breaker  *breaker.Breaker
	health   *health.Monitor
	cache    *cache.Cache
	timeouts *timeout.Manager
	handler  *classify.Handler
	history  *history.Store
}

// NewService builds provider clients for cfg.Providers and wires the full
// resilience pipeline around them.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if len(cfg.Providers) == 0 {
		cfg.Providers = fallback.DefaultPriority
	}
	cfg.Provider.Logger = cfg.Logger

	backends, err := BuildBackends(ctx, cfg.Providers, cfg.Provider)
	if err != nil {
		return nil, err
	}
	return NewServiceWithBackends(cfg, backends)
}

// NewServiceWithBackends wires the service around pre-built backends.
// Backend order is the priority order.
func NewServiceWithBackends(cfg Config, backends []Backend) (*Service, error) {
	if len(backends) == 0 {
		return nil, errors.New("at least one backend is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimeout.RequestTimeout == 0 {
		cfg.DefaultTimeout = timeout.Config{RequestTimeout: 30 * time.Second}
	}

	byName := make(map[string]Backend, len(backends))
	order := make([]string, 0, len(backends))
	for _, b := range backends {
		if _, dup := byName[b.Name()]; dup {
			return nil, fmt.Errorf("duplicate backend %q", b.Name())
		}
		byName[b.Name()] = b
		order = append(order, b.Name())
	}

	classifier := classify.NewClassifier()
	handler := classify.NewHandler(classifier, classify.HandlerConfig{
		AlertsEnabled: true,
		Logger:        logger,
	})

	cfg.Breaker.Logger = logger
	brk := breaker.New(cfg.Breaker)

	cfg.Health.Logger = logger
	hmon := health.NewMonitor(cfg.Health)
	for _, name := range order {
		hmon.Register(name)
	}
	hmon.Start()

	cfg.Retry.Logger = logger
	retryEng := retry.New(cfg.Retry, classifier, brk)

	tm := timeout.NewManager(logger)
	store := cache.New(cfg.Cache)

	orch := fallback.New(fallback.Config{
		Priority:          order,
		Timeouts:          cfg.Timeouts,
		DefaultTimeout:    cfg.DefaultTimeout,
		CachingEnabled:    cfg.CachingEnabled,
		SimplifiedEnabled: cfg.SimplifiedEnabled,
		RetryAfter:        cfg.RetryAfter,
		Logger:            logger,
	}, fallback.Deps{
		Breaker:    brk,
		Health:     hmon,
		Retry:      retryEng,
		Timeouts:   tm,
		Cache:      store,
		Classifier: classifier,
		Handler:    handler,
	})

	s := &Service{
		cfg:      cfg,
		logger:   logger,
		backends: byName,
		order:    order,
		orch:     orch,
		breaker:  brk,
		health:   hmon,
		cache:    store,
		timeouts: tm,
		handler:  handler,
	}

	if cfg.HistoryPath != "" {
		hist, err := history.Open(cfg.HistoryPath, logger)
		if err != nil {
			hmon.Close()
			_ = tm.Close()
			return nil, err
		}
		s.history = hist
	}
	return s, nil
}

// EvaluateRequest scores one response. Criteria resolution: explicit
// Criteria wins, then the named profile, then the default profile. A
// non-empty Criterion instead selects the legacy single-criterion mode.
type EvaluateRequest struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`

	Criteria        *criteria.EvaluationCriteria `json:"criteria,omitempty"`
	CriteriaProfile string                       `json:"criteria_profile,omitempty"`
	Criterion       string                       `json:"criterion,omitempty"`

	PreferredProvider string `json:"preferred_provider,omitempty"`
}

// EvaluateResult carries the verdict plus the degradation envelope. Exactly
// one of Verdict and MultiCriteria is set on the normal paths; neither is
// set for a maintenance response.
type EvaluateResult struct {
	ID            string                        `json:"id"`
	Verdict       *types.EvaluationVerdict      `json:"verdict,omitempty"`
	MultiCriteria *criteria.MultiCriteriaResult `json:"multi_criteria,omitempty"`

	Mode         fallback.Mode          `json:"mode"`
	ProviderUsed string                 `json:"provider_used,omitempty"`
	IsCached     bool                   `json:"is_cached"`
	IsSimplified bool                   `json:"is_simplified"`
	Confidence   float64                `json:"confidence"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// CompareRequest judges two responses to the same prompt. PromptB, when
// set, must equal Prompt.
type CompareRequest struct {
	Prompt    string `json:"prompt"`
	PromptB   string `json:"prompt_b,omitempty"`
	ResponseA string `json:"response_a"`
	ResponseB string `json:"response_b"`

	PreferredProvider string `json:"preferred_provider,omitempty"`
}

// CompareResult carries the comparison verdict plus the degradation
// envelope.
type CompareResult struct {
	ID      string                   `json:"id"`
	Verdict *types.ComparisonVerdict `json:"verdict,omitempty"`

	Mode         fallback.Mode          `json:"mode"`
	ProviderUsed string                 `json:"provider_used,omitempty"`
	IsCached     bool                   `json:"is_cached"`
	IsSimplified bool                   `json:"is_simplified"`
	Confidence   float64                `json:"confidence"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EvaluateResponse scores one response against the resolved criteria,
// failing over across backends and degrading per the orchestrator ladder.
func (s *Service) EvaluateResponse(ctx context.Context, req *EvaluateRequest) (*EvaluateResult, error) {
	if req.Criterion != "" {
		return s.evaluateLegacy(ctx, req)
	}

	crit, err := s.resolveCriteria(req)
	if err != nil {
		return nil, err
	}

	key := cache.Key(req.Prompt, []string{req.Response}, crit.Fingerprint(),
		s.keyModel(req.PreferredProvider), string(fallback.OperationMultiCriteria))

	resp, err := s.orch.ExecuteWithFallback(ctx, fallback.Request{
		Operation:         fallback.OperationMultiCriteria,
		CacheKey:          key,
		PreferredProvider: req.PreferredProvider,
	}, func(callCtx context.Context, provider string) (interface{}, error) {
		backend, ok := s.backends[provider]
		if !ok {
			return nil, fmt.Errorf("no backend registered for provider %q", provider)
		}
		return backend.EvaluateMultiCriteria(callCtx, req.Prompt, req.Response, crit)
	})
	if err != nil {
		return nil, err
	}

	result := &EvaluateResult{
		ID:           uuid.NewString(),
		Mode:         resp.Mode,
		ProviderUsed: resp.ProviderUsed,
		IsCached:     resp.IsCached,
		IsSimplified: resp.IsSimplified,
		Confidence:   resp.Confidence,
		Metadata:     resp.Metadata,
	}
	switch content := resp.Content.(type) {
	case *criteria.MultiCriteriaResult:
		result.MultiCriteria = content
		result.ID = content.ID
	case *types.EvaluationVerdict:
		// Simplified fallback verdicts are evaluation-shaped.
		result.Verdict = content
	}

	s.persist(ctx, history.KindEvaluation, result.ID, resp, result)
	return result, nil
}

// evaluateLegacy runs the single-criterion evaluation operation.
func (s *Service) evaluateLegacy(ctx context.Context, req *EvaluateRequest) (*EvaluateResult, error) {
	key := cache.Key(req.Prompt, []string{req.Response}, req.Criterion,
		s.keyModel(req.PreferredProvider), string(fallback.OperationEvaluate))

	resp, err := s.orch.ExecuteWithFallback(ctx, fallback.Request{
		Operation:         fallback.OperationEvaluate,
		CacheKey:          key,
		PreferredProvider: req.PreferredProvider,
	}, func(callCtx context.Context, provider string) (interface{}, error) {
		backend, ok := s.backends[provider]
		if !ok {
			return nil, fmt.Errorf("no backend registered for provider %q", provider)
		}
		return backend.Evaluate(callCtx, req.Prompt, req.Response, req.Criterion)
	})
	if err != nil {
		return nil, err
	}

	result := &EvaluateResult{
		ID:           uuid.NewString(),
		Mode:         resp.Mode,
		ProviderUsed: resp.ProviderUsed,
		IsCached:     resp.IsCached,
		IsSimplified: resp.IsSimplified,
		Confidence:   resp.Confidence,
		Metadata:     resp.Metadata,
	}
	if verdict, ok := resp.Content.(*types.EvaluationVerdict); ok {
		result.Verdict = verdict
	}

	s.persist(ctx, history.KindEvaluation, result.ID, resp, result)
	return result, nil
}

// CompareResponses judges two responses to the same prompt. Responses to
// different prompts are rejected before dispatch, so no retries run and no
// health or breaker state moves.
func (s *Service) CompareResponses(ctx context.Context, req *CompareRequest) (*CompareResult, error) {
	if req.PromptB != "" && req.PromptB != req.Prompt {
		return nil, ErrPromptMismatch
	}

	key := cache.Key(req.Prompt, []string{req.ResponseA, req.ResponseB}, "",
		s.keyModel(req.PreferredProvider), string(fallback.OperationCompare))

	resp, err := s.orch.ExecuteWithFallback(ctx, fallback.Request{
		Operation:         fallback.OperationCompare,
		CacheKey:          key,
		PreferredProvider: req.PreferredProvider,
	}, func(callCtx context.Context, provider string) (interface{}, error) {
		backend, ok := s.backends[provider]
		if !ok {
			return nil, fmt.Errorf("no backend registered for provider %q", provider)
		}
		return backend.Compare(callCtx, req.Prompt, req.ResponseA, req.ResponseB)
	})
	if err != nil {
		return nil, err
	}

	result := &CompareResult{
		ID:           uuid.NewString(),
		Mode:         resp.Mode,
		ProviderUsed: resp.ProviderUsed,
		IsCached:     resp.IsCached,
		IsSimplified: resp.IsSimplified,
		Confidence:   resp.Confidence,
		Metadata:     resp.Metadata,
	}
	if verdict, ok := resp.Content.(*types.ComparisonVerdict); ok {
		result.Verdict = verdict
	}

	s.persist(ctx, history.KindComparison, result.ID, resp, result)
	return result, nil
}

// SystemStatus is the operator-facing snapshot of the whole pipeline.
type SystemStatus struct {
	Mode              fallback.Mode               `json:"mode"`
	Maintenance       bool                        `json:"maintenance"`
	MaintenanceReason string                      `json:"maintenance_reason,omitempty"`
	Providers         []string                    `json:"providers"`
	Backends          []health.Snapshot           `json:"backends"`
	Circuits          map[string]breaker.Stats    `json:"circuits"`
	Cache             cache.Stats                 `json:"cache"`
	ErrorCounts       map[classify.Category]int64 `json:"error_counts,omitempty"`
	Timestamp         time.Time                   `json:"timestamp"`
}

// GetSystemStatus reports the current mode, per-backend health, circuit
// state, and cache occupancy.
func (s *Service) GetSystemStatus() *SystemStatus {
	maintenance, reason := s.orch.MaintenanceMode()

	circuits := make(map[string]breaker.Stats, len(s.order))
	for _, name := range s.order {
		circuits[name] = s.breaker.GetStats(name)
	}

	return &SystemStatus{
		Mode:              s.orch.Mode(),
		Maintenance:       maintenance,
		MaintenanceReason: reason,
		Providers:         append([]string(nil), s.order...),
		Backends:          s.health.Snapshot(),
		Circuits:          circuits,
		Cache:             s.cache.GetStats(),
		ErrorCounts:       s.handler.Counts(),
		Timestamp:         time.Now(),
	}
}

// SetMaintenanceMode toggles service-wide maintenance mode.
func (s *Service) SetMaintenanceMode(enabled bool, reason string) {
	s.orch.SetMaintenanceMode(enabled, reason)
}

// History returns the verdict store, or nil when persistence is disabled.
func (s *Service) History() *history.Store {
	return s.history
}

// Close releases the timeout manager, health monitor, and history store.
func (s *Service) Close() error {
	s.timeouts.CancelAll(2 * time.Second)
	err := s.timeouts.Close()
	s.health.Close()
	if s.history != nil {
		if herr := s.history.Close(); err == nil {
			err = herr
		}
	}
	return err
}

// resolveCriteria picks explicit criteria, then the named profile, then the
// default profile.
func (s *Service) resolveCriteria(req *EvaluateRequest) (*criteria.EvaluationCriteria, error) {
	if req.Criteria != nil {
		return req.Criteria, nil
	}
	name := req.CriteriaProfile
	if name == "" {
		name = criteria.ProfileDefault
	}
	return criteria.Profile(name)
}

// keyModel is the judge-model component of cache keys: the preferred
// backend's model when one is requested, otherwise the primary's.
func (s *Service) keyModel(preferred string) string {
	if preferred != "" {
		if b, ok := s.backends[preferred]; ok {
			return b.Model()
		}
	}
	return s.backends[s.order[0]].Model()
}

// persist best-effort saves the verdict; failures are logged, never raised.
func (s *Service) persist(ctx context.Context, kind history.Kind, id string, resp *fallback.Response, payload interface{}) {
	if s.history == nil || resp.Content == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal verdict for history", zap.Error(err))
		return
	}
	rec := &history.Record{
		ID:       id,
		Kind:     kind,
		Provider: resp.ProviderUsed,
		Mode:     string(resp.Mode),
		Payload:  data,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.Warn("save verdict to history", zap.Error(err), zap.String("id", id))
	}
}
