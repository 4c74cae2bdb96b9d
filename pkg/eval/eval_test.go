package eval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/strategy"
)

func TestAnswerScore(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		expected []string
		want     float64
	}{
		{"all matched", "The answer is 13.125 dollars", []string{"13.125"}, 1},
		{"case insensitive", "GO is great", []string{"go"}, 1},
		{"half matched", "only alpha here", []string{"alpha", "beta"}, 0.5},
		{"none matched", "nothing relevant", []string{"alpha", "beta"}, 0},
		{"no expectations", "anything", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AnswerScore(tt.answer, tt.expected), 1e-9)
		})
	}
}

func TestLatencyScore(t *testing.T) {
	assert.Equal(t, 1.0, LatencyScore(500*time.Millisecond))
	assert.Equal(t, 0.8, LatencyScore(1500*time.Millisecond))
	assert.Equal(t, 0.6, LatencyScore(4*time.Second))
	assert.Equal(t, 0.4, LatencyScore(10*time.Second))
}

func TestGrade(t *testing.T) {
	s := Grade(mode.Act, mode.Act, "Result: 13.125", []string{"13.125"}, 500*time.Millisecond)
	assert.Equal(t, 1.0, s.Routing)
	assert.Equal(t, 1.0, s.Answer)
	assert.InDelta(t, 1.0, s.Overall, 1e-9) // 0.3 + 0.5 + 0.2
	assert.True(t, s.Passed)

	s = Grade(mode.Respond, mode.Act, "Result: 13.125", []string{"13.125"}, 500*time.Millisecond)
	assert.Equal(t, 0.0, s.Routing)
	assert.InDelta(t, 0.2, s.Overall, 1e-9)
	assert.False(t, s.Passed)

	s = Grade(mode.Act, mode.Act, "no match", []string{"alpha", "beta", "gamma"}, 500*time.Millisecond)
	assert.False(t, s.Passed) // answer below 0.5
}

func TestLoadSuite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: smoke
tasks:
  - id: tip
    query: "What is 15% of 87.50?"
    expected_mode: ACT
    expected_contains: ["13.125"]
  - id: factual
    query: "What is Go?"
    expected_mode: RESPOND
`), 0o644))

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", suite.Name)
	require.Len(t, suite.Tasks, 2)
	assert.Equal(t, mode.Act, suite.Tasks[0].ExpectedMode)
	assert.Equal(t, []string{"13.125"}, suite.Tasks[0].ExpectedContains)
}

func TestLoadSuiteRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: empty\ntasks: []\n"), 0o644))
	_, err := LoadSuite(empty)
	assert.Error(t, err)

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("tasks:\n  - query: hi\n"), 0o644))
	_, err = LoadSuite(missing)
	assert.Error(t, err)
}

func TestRunnerRun(t *testing.T) {
	suite := &Suite{
		Name: "smoke",
		Tasks: []Task{
			{ID: "a", Query: "tip", ExpectedMode: mode.Act, ExpectedContains: []string{"13.125"}},
			{ID: "b", Query: "fail", ExpectedMode: mode.Respond},
		},
	}

	infer := func(_ context.Context, query string) (*strategy.Envelope, error) {
		if query == "fail" {
			return nil, fmt.Errorf("oracle down")
		}
		return &strategy.Envelope{Mode: mode.Act, Answer: "Result: 13.125"}, nil
	}

	report := NewRunner(infer, zap.NewNop()).Run(context.Background(), suite)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Passed)
	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Score.Passed)
	assert.Equal(t, "oracle down", report.Results[1].Error)
	assert.False(t, report.Results[1].Score.Passed)
	assert.Greater(t, report.Average, 0.0)
}
