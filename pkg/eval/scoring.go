// Package eval scores the pipeline against a task suite.
package eval

import (
	"strings"
	"time"

	"github.com/sameehj/quadrant/pkg/mode"
)

// Score is the graded outcome of one task.
type Score struct {
	Routing float64 `json:"routing"`
	Answer  float64 `json:"answer"`
	Latency float64 `json:"latency"`
	Overall float64 `json:"overall"`
	Passed  bool    `json:"passed"`
}

// RoutingScore is 1 when the pipeline chose the expected mode, 0 otherwise.
func RoutingScore(got, want mode.Mode) float64 {
	if got == want {
		return 1
	}
	return 0
}

// AnswerScore is the fraction of expected fragments found in the answer,
// case-insensitively. No expectations means any answer is a full score.
func AnswerScore(answer string, expected []string) float64 {
	if len(expected) == 0 {
		return 1
	}
	lower := strings.ToLower(answer)
	matched := 0
	for _, frag := range expected {
		if strings.Contains(lower, strings.ToLower(frag)) {
			matched++
		}
	}
	return float64(matched) / float64(len(expected))
}

// LatencyScore grades response time in tiers rather than on a curve: under a
// second is excellent and anything past five seconds is uniformly slow.
func LatencyScore(latency time.Duration) float64 {
	ms := latency.Milliseconds()
	switch {
	case ms < 1000:
		return 1.0
	case ms < 3000:
		return 0.8
	case ms < 5000:
		return 0.6
	default:
		return 0.4
	}
}

// Grade combines the three dimensions. Wrong routing caps the overall score
// hard: a correct answer that arrived through the wrong handler is mostly
// luck.
func Grade(gotMode, wantMode mode.Mode, answer string, expected []string, latency time.Duration) Score {
	s := Score{
		Routing: RoutingScore(gotMode, wantMode),
		Answer:  AnswerScore(answer, expected),
		Latency: LatencyScore(latency),
	}
	if s.Routing == 0 {
		s.Overall = 0.2 * s.Answer
	} else {
		s.Overall = 0.3 + 0.5*s.Answer + 0.2*s.Latency
	}
	s.Passed = s.Routing == 1 && s.Answer >= 0.5
	return s
}
