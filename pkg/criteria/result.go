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
package criteria

import (
	"time"

	"github.com/google/uuid"
)

// MultiCriteriaResult is a full multi-criteria verdict. The aggregate is
// recomputed whenever the score set changes.
type MultiCriteriaResult struct {
	ID               string                 `json:"id"`
	Scores           []*CriterionScore      `json:"scores"`
	Aggregated       AggregatedScore        `json:"aggregated"`
	CriteriaUsed     *EvaluationCriteria    `json:"criteria_used,omitempty"`
	JudgeModel       string                 `json:"judge_model,omitempty"`
	EvaluatedAt      time.Time              `json:"evaluated_at"`
	Duration         time.Duration          `json:"duration"`
	OverallReasoning string                 `json:"overall_reasoning,omitempty"`
	Strengths        []string               `json:"strengths,omitempty"`
	Weaknesses       []string               `json:"weaknesses,omitempty"`
	Suggestions      []string               `json:"suggestions,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// NewResult creates an empty result bound to the criteria it will be scored
// against.
func NewResult(used *EvaluationCriteria, judgeModel string) *MultiCriteriaResult {
	return &MultiCriteriaResult{
		ID:           uuid.NewString(),
		CriteriaUsed: used,
		JudgeModel:   judgeModel,
		EvaluatedAt:  time.Now(),
		Metadata:     make(map[string]interface{}),
	}
}

// AddScore appends a score and recomputes the aggregate.
func (r *MultiCriteriaResult) AddScore(s *CriterionScore) {
	r.Scores = append(r.Scores, s)
	r.Aggregated = Aggregate(r.Scores)
}

// SetScores replaces the score set and recomputes the aggregate.
func (r *MultiCriteriaResult) SetScores(scores []*CriterionScore) {
	r.Scores = scores
	r.Aggregated = Aggregate(r.Scores)
}

// IsComplete reports whether every requested criterion has a score.
func (r *MultiCriteriaResult) IsComplete() bool {
	return len(r.MissingCriteria()) == 0
}

// MissingCriteria returns the requested criterion names that have no score.
// Completeness violations are non-fatal; callers decide what to do.
func (r *MultiCriteriaResult) MissingCriteria() []string {
	if r.CriteriaUsed == nil {
		return nil
	}
	scored := make(map[string]struct{}, len(r.Scores))
	for _, s := range r.Scores {
		scored[s.CriterionName] = struct{}{}
	}
	var missing []string
	for _, d := range r.CriteriaUsed.Criteria {
		if _, ok := scored[d.Name]; !ok {
			missing = append(missing, d.Name)
		}
	}
	return missing
}
