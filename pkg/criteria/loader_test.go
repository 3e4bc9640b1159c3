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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfile = `{
	"name": "support",
	"description": "Support answer quality",
	"criteria": [
		{"name": "accuracy", "weight": 0.6, "examples": {"5": "Perfectly correct", "1": "Mostly wrong"}},
		{"name": "empathy", "weight": 0.4, "scale_min": 1, "scale_max": 10, "evaluation_prompt": "Consider tone."}
	]
}`

func TestParseValidProfile(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(validProfile))
	require.NoError(t, err)

	assert.Equal(t, "support", c.Name)
	require.Len(t, c.Criteria, 2)
	assert.InDelta(t, 0.6, c.Criteria[0].Weight, 1e-9)
	assert.Equal(t, "Perfectly correct", c.Criteria[0].Examples[5])
	assert.Equal(t, 10, c.Criteria[1].ScaleMax)
	assert.Equal(t, "Consider tone.", c.Criteria[1].EvaluationPrompt)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing criteria", `{"name": "x"}`},
		{"empty criteria", `{"criteria": []}`},
		{"criterion without name", `{"criteria": [{"weight": 1}]}`},
		{"zero weight", `{"criteria": [{"name": "a", "weight": 0}]}`},
		{"bad example key", `{"criteria": [{"name": "a", "examples": {"high": "x"}}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseDefaultsWeightAndScale(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`{"criteria": [{"name": "a"}, {"name": "b"}]}`))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, c.Criteria[0].Weight, 1e-9, "missing weights default to equal shares")
	assert.Equal(t, DefaultScaleMin, c.Criteria[0].ScaleMin)
	assert.Equal(t, DefaultScaleMax, c.Criteria[0].ScaleMax)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(validProfile), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "support", c.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWatcherReloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"criteria": [{"name": "a"}]}`), 0o644))

	var mu sync.Mutex
	var latest *EvaluationCriteria
	w, err := Watch(path, nil, func(c *EvaluationCriteria) {
		mu.Lock()
		latest = c
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	mu.Lock()
	require.NotNil(t, latest)
	require.Len(t, latest.Criteria, 1)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte(`{"criteria": [{"name": "a"}, {"name": "b"}]}`), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest.Criteria) == 2
	}, 3*time.Second, 10*time.Millisecond)

	// An invalid rewrite keeps the previous profile.
	require.NoError(t, os.WriteFile(path, []byte(`{"criteria": []}`), 0o644))
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	assert.Len(t, latest.Criteria, 2)
	mu.Unlock()
}
