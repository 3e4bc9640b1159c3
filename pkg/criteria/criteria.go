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
// Package criteria defines evaluation criteria, per-criterion scores, and
// their weighted aggregation.
package criteria

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Default score scale.
const (
	DefaultScaleMin = 1
	DefaultScaleMax = 5
)

// CriterionDefinition describes one dimension a response is scored along.
// Immutable after construction.
type CriterionDefinition struct {
	Name             string                 `json:"name"`
	Description      string                 `json:"description,omitempty"`
	Weight           float64                `json:"weight"`
	ScaleMin         int                    `json:"scale_min"`
	ScaleMax         int                    `json:"scale_max"`
	Examples         map[int]string         `json:"examples,omitempty"`
	EvaluationPrompt string                 `json:"evaluation_prompt,omitempty"`
	DomainSpecific   bool                   `json:"domain_specific,omitempty"`
	RequiresContext  bool                   `json:"requires_context,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

func (d *CriterionDefinition) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("criterion name must not be empty")
	}
	if d.Weight <= 0 {
		return fmt.Errorf("criterion %s: weight must be positive, got %g", d.Name, d.Weight)
	}
	if d.ScaleMin >= d.ScaleMax {
		return fmt.Errorf("criterion %s: scale min %d must be below max %d", d.Name, d.ScaleMin, d.ScaleMax)
	}
	return nil
}

// EvaluationCriteria is an ordered collection of criterion definitions
// forming one evaluation profile.
type EvaluationCriteria struct {
	Name             string                `json:"name,omitempty"`
	Description      string                `json:"description,omitempty"`
	Criteria         []CriterionDefinition `json:"criteria"`
	NormalizeWeights bool                  `json:"normalize_weights"`
}

// New builds an EvaluationCriteria, validating every definition, applying
// the default scale, and normalizing weights to sum to 1 when requested.
func New(name, description string, defs []CriterionDefinition, normalizeWeights bool) (*EvaluationCriteria, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("at least one criterion is required")
	}

	criteria := make([]CriterionDefinition, len(defs))
	copy(criteria, defs)

	seen := make(map[string]struct{}, len(criteria))
	total := 0.0
	for i := range criteria {
		if criteria[i].ScaleMin == 0 && criteria[i].ScaleMax == 0 {
			criteria[i].ScaleMin = DefaultScaleMin
			criteria[i].ScaleMax = DefaultScaleMax
		}
		if err := criteria[i].validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[criteria[i].Name]; dup {
			return nil, fmt.Errorf("duplicate criterion name %q", criteria[i].Name)
		}
		seen[criteria[i].Name] = struct{}{}
		total += criteria[i].Weight
	}

	if normalizeWeights {
		for i := range criteria {
			criteria[i].Weight /= total
		}
	}

	return &EvaluationCriteria{
		Name:             name,
		Description:      description,
		Criteria:         criteria,
		NormalizeWeights: normalizeWeights,
	}, nil
}

// EqualWeights builds a profile where every named criterion carries weight
// 1/N on the default scale.
func EqualWeights(name string, criterionNames ...string) (*EvaluationCriteria, error) {
	defs := make([]CriterionDefinition, 0, len(criterionNames))
	for _, n := range criterionNames {
		defs = append(defs, CriterionDefinition{Name: n, Weight: 1})
	}
	return New(name, "", defs, true)
}

// Find returns the definition with the given name, or nil.
func (c *EvaluationCriteria) Find(name string) *CriterionDefinition {
	for i := range c.Criteria {
		if c.Criteria[i].Name == name {
			return &c.Criteria[i]
		}
	}
	return nil
}

// Names returns the criterion names in order.
func (c *EvaluationCriteria) Names() []string {
	out := make([]string, len(c.Criteria))
	for i, d := range c.Criteria {
		out[i] = d.Name
	}
	return out
}

// TotalWeight returns the sum of all weights. After construction with
// normalization this is 1.0 within 1e-6.
func (c *EvaluationCriteria) TotalWeight() float64 {
	total := 0.0
	for _, d := range c.Criteria {
		total += d.Weight
	}
	return total
}

// Fingerprint returns a deterministic digest of the profile, used in cache
// keys. Two profiles with the same criteria, weights, and scales share a
// fingerprint.
func (c *EvaluationCriteria) Fingerprint() string {
	var b strings.Builder
	for _, d := range c.Criteria {
		fmt.Fprintf(&b, "%s|%.9f|%d|%d;", d.Name, d.Weight, d.ScaleMin, d.ScaleMax)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// CriterionScore is one judged score. Scale and weight are copied from the
// definition at construction so the score stands alone.
type CriterionScore struct {
	CriterionName string  `json:"criterion_name"`
	Score         int     `json:"score"`
	Reasoning     string  `json:"reasoning"`
	Confidence    float64 `json:"confidence"`
	Weight        float64 `json:"weight"`
	MinScore      int     `json:"min_score"`
	MaxScore      int     `json:"max_score"`
}

// NewScore builds a validated CriterionScore for def. The score must lie on
// the definition's scale and confidence in [0, 1].
func NewScore(def *CriterionDefinition, score int, reasoning string, confidence float64) (*CriterionScore, error) {
	if score < def.ScaleMin || score > def.ScaleMax {
		return nil, fmt.Errorf("criterion %s: score %d outside scale [%d, %d]", def.Name, score, def.ScaleMin, def.ScaleMax)
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("criterion %s: confidence %g outside [0, 1]", def.Name, confidence)
	}
	if strings.TrimSpace(reasoning) == "" {
		return nil, fmt.Errorf("criterion %s: reasoning must not be empty", def.Name)
	}
	return &CriterionScore{
		CriterionName: def.Name,
		Score:         score,
		Reasoning:     reasoning,
		Confidence:    confidence,
		Weight:        def.Weight,
		MinScore:      def.ScaleMin,
		MaxScore:      def.ScaleMax,
	}, nil
}

// Normalized returns the score mapped onto [0, 1].
func (s *CriterionScore) Normalized() float64 {
	if s.MaxScore == s.MinScore {
		return 0
	}
	return float64(s.Score-s.MinScore) / float64(s.MaxScore-s.MinScore)
}

// Weighted returns score times weight.
func (s *CriterionScore) Weighted() float64 {
	return float64(s.Score) * s.Weight
}

// Percentage returns the normalized score as a percentage.
func (s *CriterionScore) Percentage() float64 {
	return s.Normalized() * 100
}

// AggregatedScore summarizes a set of criterion scores.
type AggregatedScore struct {
	OverallScore  float64 `json:"overall_score"`
	WeightedScore float64 `json:"weighted_score"`
	Confidence    float64 `json:"confidence"`
	Mean          float64 `json:"mean"`
	Median        float64 `json:"median"`
	Stdev         float64 `json:"stdev"`
	Min           int     `json:"min"`
	Max           int     `json:"max"`
	TotalWeight   float64 `json:"total_weight"`
	CriteriaCount int     `json:"criteria_count"`
}

// Aggregate computes the weighted mean, weight-weighted confidence, and
// score statistics for a set of criterion scores.
func Aggregate(scores []*CriterionScore) AggregatedScore {
	if len(scores) == 0 {
		return AggregatedScore{}
	}

	totalWeight := 0.0
	weightedSum := 0.0
	weightedConf := 0.0
	sum := 0.0
	confSum := 0.0
	minScore, maxScore := scores[0].Score, scores[0].Score
	values := make([]int, len(scores))

	for i, s := range scores {
		totalWeight += s.Weight
		weightedSum += float64(s.Score) * s.Weight
		weightedConf += s.Confidence * s.Weight
		sum += float64(s.Score)
		confSum += s.Confidence
		values[i] = s.Score
		if s.Score < minScore {
			minScore = s.Score
		}
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}

	n := float64(len(scores))
	mean := sum / n

	var overall, confidence float64
	if totalWeight > 0 {
		overall = weightedSum / totalWeight
		confidence = weightedConf / totalWeight
	} else {
		overall = mean
		confidence = confSum / n
	}

	stdev := 0.0
	if len(scores) >= 2 {
		variance := 0.0
		for _, v := range values {
			d := float64(v) - mean
			variance += d * d
		}
		stdev = math.Sqrt(variance / n)
	}

	return AggregatedScore{
		OverallScore:  overall,
		WeightedScore: overall,
		Confidence:    confidence,
		Mean:          mean,
		Median:        median(values),
		Stdev:         stdev,
		Min:           minScore,
		Max:           maxScore,
		TotalWeight:   totalWeight,
		CriteriaCount: len(scores),
	}
}

// median of integer scores; values are copied and sorted.
func median(values []int) float64 {
	sorted := make([]int, len(values))
	copy(sorted, values)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
