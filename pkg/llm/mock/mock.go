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
// Package mock provides a deterministic judge provider for tests and
// offline use. Verdicts are seeded by a hash of the request.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/teradata-labs/gavel/pkg/types"
)

// criteriaListRe matches the trailer the prompt builder appends for
// multi-criteria requests.
var criteriaListRe = regexp.MustCompile(`criterion_scores must contain one entry for each of: (.+)`)

// Provider is a deterministic types.LLMProvider. The same messages always
// produce the same verdict.
type Provider struct {
	model string
	// Err, when set, is returned by every Chat call. Tests use it to
	// simulate failing backends.
	Err error
}

// New creates a mock provider.
func New() *Provider {
	return &Provider{model: "mock-judge-1"}
}

// Chat fabricates a judge verdict matching the request's expected shape.
func (p *Provider) Chat(_ context.Context, messages []types.Message) (*types.LLMResponse, error) {
	if p.Err != nil {
		return nil, p.Err
	}

	var prompt strings.Builder
	for _, m := range messages {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	text := prompt.String()
	seed := hash(text)

	var content string
	switch {
	case strings.Contains(text, "criterion_scores"):
		content = p.multiCriteriaVerdict(text, seed)
	case strings.Contains(text, `"winner"`):
		content = p.comparisonVerdict(seed)
	default:
		content = p.evaluationVerdict(seed)
	}

	return &types.LLMResponse{
		Content:    content,
		Model:      p.model,
		StopReason: "end_turn",
		Usage: types.Usage{
			InputTokens:  len(text) / 4,
			OutputTokens: len(content) / 4,
			TotalTokens:  (len(text) + len(content)) / 4,
		},
	}, nil
}

func (p *Provider) multiCriteriaVerdict(text string, seed uint64) string {
	names := []string{"quality"}
	if m := criteriaListRe.FindStringSubmatch(text); m != nil {
		names = strings.Split(m[1], ", ")
	}

	type scoreEntry struct {
		CriterionName string  `json:"criterion_name"`
		Score         int     `json:"score"`
		Reasoning     string  `json:"reasoning"`
		Confidence    float64 `json:"confidence"`
	}
	entries := make([]scoreEntry, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		entries = append(entries, scoreEntry{
			CriterionName: name,
			Score:         scoreFor(seed, i),
			Reasoning:     fmt.Sprintf("Deterministic mock assessment of %s", name),
			Confidence:    confidenceFor(seed, i),
		})
	}

	payload := map[string]interface{}{
		"criterion_scores":  entries,
		"overall_reasoning": "Deterministic mock verdict",
		"strengths":         []string{"consistent"},
		"weaknesses":        []string{"synthetic"},
		"suggestions":       []string{"use a real judge for production"},
	}
	out, _ := json.Marshal(payload)
	return string(out)
}

func (p *Provider) evaluationVerdict(seed uint64) string {
	out, _ := json.Marshal(map[string]interface{}{
		"score":      scoreFor(seed, 0),
		"reasoning":  "Deterministic mock assessment",
		"confidence": confidenceFor(seed, 0),
	})
	return string(out)
}

func (p *Provider) comparisonVerdict(seed uint64) string {
	winners := []string{types.WinnerA, types.WinnerB, types.WinnerTie}
	out, _ := json.Marshal(map[string]interface{}{
		"winner":     winners[seed%3],
		"reasoning":  "Deterministic mock comparison",
		"confidence": confidenceFor(seed, 0),
	})
	return string(out)
}

func hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// scoreFor maps the seed onto 2..5 so mock verdicts look plausible.
func scoreFor(seed uint64, i int) int {
	return 2 + int((seed>>(uint(i%8)*4))%4)
}

// confidenceFor maps the seed onto 0.6..0.95.
func confidenceFor(seed uint64, i int) float64 {
	return 0.6 + float64((seed>>(uint(i%8)*3))%8)*0.05
}

// Name returns the provider name.
func (p *Provider) Name() string { return "mock" }

// Model returns the model identifier.
func (p *Provider) Model() string { return p.model }

var _ types.LLMProvider = (*Provider)(nil)
