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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesAndNormalizes(t *testing.T) {
	t.Parallel()

	c, err := New("test", "", []CriterionDefinition{
		{Name: "accuracy", Weight: 2},
		{Name: "clarity", Weight: 1},
		{Name: "depth", Weight: 1},
	}, true)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, c.TotalWeight(), 1e-6)
	assert.InDelta(t, 0.5, c.Criteria[0].Weight, 1e-9)
	assert.Equal(t, DefaultScaleMin, c.Criteria[0].ScaleMin)
	assert.Equal(t, DefaultScaleMax, c.Criteria[0].ScaleMax)
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		defs []CriterionDefinition
	}{
		{"empty", nil},
		{"zero weight", []CriterionDefinition{{Name: "a", Weight: 0}}},
		{"negative weight", []CriterionDefinition{{Name: "a", Weight: -1}}},
		{"blank name", []CriterionDefinition{{Name: "  ", Weight: 1}}},
		{"duplicate names", []CriterionDefinition{{Name: "a", Weight: 1}, {Name: "a", Weight: 1}}},
		{"inverted scale", []CriterionDefinition{{Name: "a", Weight: 1, ScaleMin: 5, ScaleMax: 1}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New("x", "", tt.defs, true)
			assert.Error(t, err)
		})
	}
}

func TestScoreDerivedValues(t *testing.T) {
	t.Parallel()

	def := CriterionDefinition{Name: "accuracy", Weight: 0.5, ScaleMin: 1, ScaleMax: 5}
	s, err := NewScore(&def, 4, "solid", 0.9)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, s.Normalized(), 1e-9)
	assert.InDelta(t, 2.0, s.Weighted(), 1e-9)
	assert.InDelta(t, 75.0, s.Percentage(), 1e-9)
}

func TestScoreValidation(t *testing.T) {
	t.Parallel()

	def := CriterionDefinition{Name: "accuracy", Weight: 1, ScaleMin: 1, ScaleMax: 5}

	_, err := NewScore(&def, 6, "r", 0.5)
	assert.Error(t, err, "score above scale")
	_, err = NewScore(&def, 0, "r", 0.5)
	assert.Error(t, err, "score below scale")
	_, err = NewScore(&def, 3, "r", 1.5)
	assert.Error(t, err, "confidence above 1")
	_, err = NewScore(&def, 3, "", 0.5)
	assert.Error(t, err, "empty reasoning")
}

func TestAggregateReferenceValues(t *testing.T) {
	t.Parallel()

	third := 1.0 / 3.0
	scores := []*CriterionScore{
		{CriterionName: "accuracy", Score: 4, Confidence: 0.9, Weight: third, MinScore: 1, MaxScore: 5},
		{CriterionName: "clarity", Score: 4, Confidence: 0.8, Weight: third, MinScore: 1, MaxScore: 5},
		{CriterionName: "helpfulness", Score: 3, Confidence: 0.7, Weight: third, MinScore: 1, MaxScore: 5},
	}

	agg := Aggregate(scores)
	assert.InDelta(t, 3.667, agg.OverallScore, 0.001)
	assert.InDelta(t, 3.667, agg.Mean, 0.001)
	assert.InDelta(t, 4.0, agg.Median, 1e-9)
	assert.Equal(t, 3, agg.Min)
	assert.Equal(t, 4, agg.Max)
	assert.InDelta(t, 0.8, agg.Confidence, 0.001)
	assert.Equal(t, 3, agg.CriteriaCount)
	assert.InDelta(t, 1.0, agg.TotalWeight, 1e-6)
}

func TestAggregateWeightsDominantCriterion(t *testing.T) {
	t.Parallel()

	scores := []*CriterionScore{
		{CriterionName: "a", Score: 5, Confidence: 1.0, Weight: 0.9, MinScore: 1, MaxScore: 5},
		{CriterionName: "b", Score: 1, Confidence: 0.0, Weight: 0.1, MinScore: 1, MaxScore: 5},
	}

	agg := Aggregate(scores)
	assert.InDelta(t, 4.6, agg.OverallScore, 1e-9)
	assert.InDelta(t, 0.9, agg.Confidence, 1e-9)
	assert.InDelta(t, 3.0, agg.Mean, 1e-9)
	assert.InDelta(t, 3.0, agg.Median, 1e-9)
	assert.InDelta(t, 2.0, agg.Stdev, 1e-9)
}

func TestAggregateZeroWeightFallsBackToMean(t *testing.T) {
	t.Parallel()

	scores := []*CriterionScore{
		{CriterionName: "a", Score: 2, Confidence: 0.4},
		{CriterionName: "b", Score: 4, Confidence: 0.6},
	}

	agg := Aggregate(scores)
	assert.InDelta(t, 3.0, agg.OverallScore, 1e-9)
	assert.InDelta(t, 0.5, agg.Confidence, 1e-9)
}

func TestAggregateSingleScoreHasZeroStdev(t *testing.T) {
	t.Parallel()

	agg := Aggregate([]*CriterionScore{{CriterionName: "a", Score: 3, Weight: 1, Confidence: 0.5}})
	assert.Zero(t, agg.Stdev)
	assert.Equal(t, 3, agg.Min)
	assert.Equal(t, 3, agg.Max)
}

func TestResultCompletenessAndRecompute(t *testing.T) {
	t.Parallel()

	c, err := Profile(ProfileBasic)
	require.NoError(t, err)

	r := NewResult(c, "judge-model")
	assert.False(t, r.IsComplete())
	assert.Equal(t, []string{"accuracy", "clarity", "helpfulness"}, r.MissingCriteria())

	s1, err := NewScore(c.Find("accuracy"), 4, "ok", 0.9)
	require.NoError(t, err)
	r.AddScore(s1)
	assert.Equal(t, []string{"clarity", "helpfulness"}, r.MissingCriteria())
	assert.InDelta(t, 4.0, r.Aggregated.OverallScore, 1e-9)

	s2, err := NewScore(c.Find("clarity"), 4, "ok", 0.8)
	require.NoError(t, err)
	s3, err := NewScore(c.Find("helpfulness"), 3, "ok", 0.7)
	require.NoError(t, err)
	r.AddScore(s2)
	r.AddScore(s3)
	assert.True(t, r.IsComplete())
	assert.NotEmpty(t, r.ID)
}

func TestResultRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := Profile(ProfileBasic)
	require.NoError(t, err)

	r := NewResult(c, "judge-model")
	for i, name := range c.Names() {
		s, err := NewScore(c.Find(name), 3+i%2, "ok", 0.8)
		require.NoError(t, err)
		r.AddScore(s)
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var back MultiCriteriaResult
	require.NoError(t, json.Unmarshal(data, &back))

	require.Len(t, back.Scores, len(r.Scores))
	for i := range r.Scores {
		assert.Equal(t, r.Scores[i].CriterionName, back.Scores[i].CriterionName)
		assert.Equal(t, r.Scores[i].Score, back.Scores[i].Score)
		assert.InDelta(t, r.Scores[i].Confidence, back.Scores[i].Confidence, 1e-9)
		assert.InDelta(t, r.Scores[i].Weight, back.Scores[i].Weight, 1e-9)
	}
	assert.InDelta(t, r.Aggregated.OverallScore, back.Aggregated.OverallScore, 1e-9)
	assert.InDelta(t, r.Aggregated.Stdev, back.Aggregated.Stdev, 1e-9)
}

func TestBuiltinProfiles(t *testing.T) {
	t.Parallel()

	for _, name := range ProfileNames() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, err := Profile(name)
			require.NoError(t, err)
			assert.NotEmpty(t, p.Criteria)
			assert.InDelta(t, 1.0, p.TotalWeight(), 1e-6)
		})
	}

	_, err := Profile("nope")
	assert.Error(t, err)
}

func TestFingerprintStability(t *testing.T) {
	t.Parallel()

	a, err := Profile(ProfileBasic)
	require.NoError(t, err)
	b, err := Profile(ProfileBasic)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	tech, err := Profile(ProfileTechnical)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), tech.Fingerprint())
}
