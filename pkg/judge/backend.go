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
// Package judge exposes the evaluation service: a uniform Backend
// capability over the judge providers plus the resilient Service facade
// callers use.
package judge

import (
	"context"
	"time"

	"github.com/teradata-labs/gavel/pkg/criteria"
	"github.com/teradata-labs/gavel/pkg/engine"
	"github.com/teradata-labs/gavel/pkg/types"
)

// Backend is the capability every judge backend exposes. The orchestrator
// never branches on the concrete type behind it.
type Backend interface {
	// Evaluate scores one response against a named criterion.
	Evaluate(ctx context.Context, prompt, response, criteriaLabel string) (*types.EvaluationVerdict, error)

	// Compare judges two responses to the same prompt.
	Compare(ctx context.Context, prompt, responseA, responseB string) (*types.ComparisonVerdict, error)

	// EvaluateMultiCriteria scores one response against a criteria profile.
	EvaluateMultiCriteria(ctx context.Context, prompt, response string, crit *criteria.EvaluationCriteria) (*criteria.MultiCriteriaResult, error)

	// Name returns the backend name.
	Name() string

	// Model returns the judge model identifier.
	Model() string
}

// providerBackend adapts an LLM provider client into a Backend by pairing
// it with the prompt/parsing engine. Parse failures are not errors; the
// engine's neutral fallback verdicts flow through as successes.
type providerBackend struct {
	provider types.LLMProvider
	engine   *engine.Engine
}

// NewBackend wraps an LLM provider client as a Backend.
func NewBackend(provider types.LLMProvider, eng *engine.Engine) Backend {
	if eng == nil {
		eng = engine.New(nil)
	}
	return &providerBackend{provider: provider, engine: eng}
}

func (b *providerBackend) Evaluate(ctx context.Context, prompt, response, criteriaLabel string) (*types.EvaluationVerdict, error) {
	resp, err := b.provider.Chat(ctx, []types.Message{
		{Role: "user", Content: b.engine.BuildEvaluationPrompt(prompt, response, criteriaLabel)},
	})
	if err != nil {
		return nil, err
	}
	verdict, _ := b.engine.ParseEvaluation(resp.Content)
	return verdict, nil
}

func (b *providerBackend) Compare(ctx context.Context, prompt, responseA, responseB string) (*types.ComparisonVerdict, error) {
	resp, err := b.provider.Chat(ctx, []types.Message{
		{Role: "user", Content: b.engine.BuildComparisonPrompt(prompt, responseA, responseB)},
	})
	if err != nil {
		return nil, err
	}
	verdict, _ := b.engine.ParseComparison(resp.Content)
	return verdict, nil
}

func (b *providerBackend) EvaluateMultiCriteria(ctx context.Context, prompt, response string, crit *criteria.EvaluationCriteria) (*criteria.MultiCriteriaResult, error) {
	started := time.Now()
	resp, err := b.provider.Chat(ctx, []types.Message{
		{Role: "user", Content: b.engine.BuildMultiCriteriaPrompt(prompt, response, crit)},
	})
	if err != nil {
		return nil, err
	}
	return b.engine.ParseMultiCriteria(resp.Content, crit, b.provider.Model(), started), nil
}

func (b *providerBackend) Name() string  { return b.provider.Name() }
func (b *providerBackend) Model() string { return b.provider.Model() }

var _ Backend = (*providerBackend)(nil)
