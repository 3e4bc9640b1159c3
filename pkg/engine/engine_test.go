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
package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/gavel/pkg/criteria"
	"github.com/teradata-labs/gavel/pkg/types"
)

func basicCriteria(t *testing.T) *criteria.EvaluationCriteria {
	t.Helper()
	c, err := criteria.Profile(criteria.ProfileBasic)
	require.NoError(t, err)
	return c
}

const validJudgeOutput = `{
	"criterion_scores": [
		{"criterion_name": "accuracy", "score": 4, "reasoning": "Correct", "confidence": 0.9},
		{"criterion_name": "clarity", "score": 4, "reasoning": "Readable", "confidence": 0.8},
		{"criterion_name": "helpfulness", "score": 3, "reasoning": "Brief", "confidence": 0.7}
	],
	"overall_reasoning": "Good response overall",
	"strengths": ["clear"],
	"weaknesses": ["short"],
	"suggestions": ["expand"]
}`

func TestBuildMultiCriteriaPrompt(t *testing.T) {
	t.Parallel()

	e := New(nil)
	crit := basicCriteria(t)
	prompt := e.BuildMultiCriteriaPrompt("What is AI?", "AI is a field of computer science.", crit)

	assert.Contains(t, prompt, "What is AI?")
	assert.Contains(t, prompt, "AI is a field of computer science.")
	for _, name := range crit.Names() {
		assert.Contains(t, prompt, name)
	}
	assert.Contains(t, prompt, "weight 33%", "weights rendered as percentages")
	assert.Contains(t, prompt, "criterion_scores")
	assert.Contains(t, prompt, "ONLY a JSON object")
}

func TestParseMultiCriteriaHappyPath(t *testing.T) {
	t.Parallel()

	e := New(nil)
	crit := basicCriteria(t)
	res := e.ParseMultiCriteria(validJudgeOutput, crit, "judge-model", time.Now())

	require.Len(t, res.Scores, 3)
	assert.True(t, res.IsComplete())
	assert.InDelta(t, 3.667, res.Aggregated.OverallScore, 0.001)
	assert.InDelta(t, 3.667, res.Aggregated.Mean, 0.001)
	assert.InDelta(t, 4.0, res.Aggregated.Median, 1e-9)
	assert.Equal(t, 3, res.Aggregated.Min)
	assert.Equal(t, 4, res.Aggregated.Max)
	assert.InDelta(t, 0.8, res.Aggregated.Confidence, 0.001)
	assert.Equal(t, "Good response overall", res.OverallReasoning)
	assert.Equal(t, []string{"clear"}, res.Strengths)
	assert.NotContains(t, res.Metadata, "parsingError")
}

func TestParseMultiCriteriaExtractionStrategies(t *testing.T) {
	t.Parallel()

	e := New(nil)
	crit := basicCriteria(t)

	wrapped := []struct {
		name string
		raw  string
	}{
		{"leading prose", "Here is my evaluation:\n" + validJudgeOutput + "\nHope that helps!"},
		{"fenced block", "```json\n" + validJudgeOutput + "\n```"},
		{"bare fence", "```\n" + validJudgeOutput + "\n```"},
		{"marker", "Result:\n" + validJudgeOutput},
		{"response marker", "Response: " + validJudgeOutput},
	}

	for _, tt := range wrapped {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := e.ParseMultiCriteria(tt.raw, crit, "m", time.Now())
			require.Len(t, res.Scores, 3)
			assert.NotContains(t, res.Metadata, "parsingError")
		})
	}
}

func TestParseMultiCriteriaBracesInsideStrings(t *testing.T) {
	t.Parallel()

	e := New(nil)
	crit := basicCriteria(t)
	raw := `{"criterion_scores": [{"criterion_name": "accuracy", "score": 4, "reasoning": "Uses {braces} and \"quotes\" correctly", "confidence": 0.9}]}`

	res := e.ParseMultiCriteria(raw, crit, "m", time.Now())
	require.Len(t, res.Scores, 1)
	assert.Contains(t, res.Scores[0].Reasoning, "{braces}")
}

func TestParseMultiCriteriaFallback(t *testing.T) {
	t.Parallel()

	e := New(nil)
	crit := basicCriteria(t)
	res := e.ParseMultiCriteria("This response is excellent quality", crit, "judge-model", time.Now())

	require.Len(t, res.Scores, 3)
	for _, s := range res.Scores {
		assert.Equal(t, 3, s.Score)
		assert.InDelta(t, 0.1, s.Confidence, 1e-9)
		assert.Contains(t, s.Reasoning, "parsing issues")
	}
	assert.Equal(t, true, res.Metadata["parsingError"])
	assert.True(t, res.IsComplete())
}

func TestParseMultiCriteriaToleratesJudgeQuirks(t *testing.T) {
	t.Parallel()

	e := New(nil)
	crit := basicCriteria(t)

	raw := `{
		"criterion_scores": [
			{"criterion_name": "accuracy", "score": 4.4, "reasoning": "rounded down", "confidence": 0.9},
			{"criterion_name": "clarity", "score": 7, "reasoning": "clamped", "confidence": 1.4},
			{"criterion_name": "novelty", "score": 4, "reasoning": "unknown criterion", "confidence": 0.6},
			{"criterion_name": "helpfulness", "score": 3, "reasoning": ""}
		]
	}`

	res := e.ParseMultiCriteria(raw, crit, "m", time.Now())
	require.Len(t, res.Scores, 3, "entry with empty reasoning is dropped")

	byName := map[string]*criteria.CriterionScore{}
	for _, s := range res.Scores {
		byName[s.CriterionName] = s
	}
	assert.Equal(t, 4, byName["accuracy"].Score, "4.4 rounds to 4")
	assert.Equal(t, 5, byName["clarity"].Score, "7 clamps to scale max")
	assert.InDelta(t, 1.0, byName["clarity"].Confidence, 1e-9, "confidence clamps to 1")
	require.Contains(t, byName, "novelty")
	assert.InDelta(t, 1.0/3.0, byName["novelty"].Weight, 1e-9, "unknown criterion gets equal weight")

	missing, ok := res.Metadata["missingCriteria"].([]string)
	require.True(t, ok)
	assert.Contains(t, missing, "helpfulness")
}

func TestParseEvaluation(t *testing.T) {
	t.Parallel()

	e := New(nil)

	v, ok := e.ParseEvaluation(`The verdict: {"score": 4, "reasoning": "solid", "confidence": 0.85}`)
	require.True(t, ok)
	assert.Equal(t, 4, v.Score)
	assert.Equal(t, "solid", v.Reasoning)
	assert.InDelta(t, 0.85, v.Confidence, 1e-9)

	v, ok = e.ParseEvaluation("no json here")
	assert.False(t, ok)
	assert.Equal(t, 3, v.Score)
	assert.InDelta(t, 0.1, v.Confidence, 1e-9)
}

func TestParseComparison(t *testing.T) {
	t.Parallel()

	e := New(nil)

	tests := []struct {
		name   string
		raw    string
		winner string
		parsed bool
	}{
		{"winner A", `{"winner": "A", "reasoning": "better", "confidence": 0.9}`, types.WinnerA, true},
		{"lowercase b", `{"winner": "b", "reasoning": "better", "confidence": 0.9}`, types.WinnerB, true},
		{"response a", `{"winner": "Response A", "reasoning": "better", "confidence": 0.9}`, types.WinnerA, true},
		{"tie", `{"winner": "tie", "reasoning": "equal", "confidence": 0.6}`, types.WinnerTie, true},
		{"garbage", "both are fine I guess", types.WinnerTie, false},
		{"invalid winner", `{"winner": "C", "reasoning": "?", "confidence": 0.6}`, types.WinnerTie, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, ok := e.ParseComparison(tt.raw)
			assert.Equal(t, tt.parsed, ok)
			assert.Equal(t, tt.winner, v.Winner)
			assert.NoError(t, v.Validate())
		})
	}
}

func TestExtractJSONLineBuffered(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"Sure, scoring now.",
		`{"criterion_scores": [`,
		`  {"criterion_name": "accuracy", "score": 4, "reasoning": "ok", "confidence": 0.9}`,
		"]}",
		"Done.",
	}, "\n")

	obj, ok := extractJSON(raw)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(obj, "{"))
}
