package eval

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/strategy"
)

// Task is one graded query.
type Task struct {
	ID               string    `yaml:"id"`
	Query            string    `yaml:"query"`
	ExpectedMode     mode.Mode `yaml:"expected_mode"`
	ExpectedContains []string  `yaml:"expected_contains"`
}

// Suite is a named collection of tasks loaded from YAML.
type Suite struct {
	Name  string `yaml:"name"`
	Tasks []Task `yaml:"tasks"`
}

// LoadSuite reads a task suite from a YAML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", path, err)
	}
	if len(s.Tasks) == 0 {
		return nil, fmt.Errorf("suite %s has no tasks", path)
	}
	for i, t := range s.Tasks {
		if t.ID == "" || t.Query == "" {
			return nil, fmt.Errorf("suite %s: task %d missing id or query", path, i)
		}
	}
	return &s, nil
}

// InferFunc runs one query through the pipeline. Abstracted so the runner
// can drive either an in-process dispatcher or a remote /infer endpoint.
type InferFunc func(ctx context.Context, query string) (*strategy.Envelope, error)

// TaskResult pairs a task with its graded outcome.
type TaskResult struct {
	TaskID    string    `json:"task_id"`
	Query     string    `json:"query"`
	GotMode   mode.Mode `json:"got_mode"`
	WantMode  mode.Mode `json:"want_mode"`
	Answer    string    `json:"answer"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	Score     Score     `json:"score"`
}

// Report summarizes one full run.
type Report struct {
	Suite   string       `json:"suite"`
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Average float64      `json:"average"`
	Results []TaskResult `json:"results"`
}

// Runner grades every task in a suite sequentially.
type Runner struct {
	infer  InferFunc
	logger *zap.Logger
}

func NewRunner(infer InferFunc, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{infer: infer, logger: logger}
}

// Run executes the suite. A task whose inference fails scores zero but does
// not abort the run.
func (r *Runner) Run(ctx context.Context, suite *Suite) *Report {
	report := &Report{Suite: suite.Name, Total: len(suite.Tasks)}

	for _, task := range suite.Tasks {
		result := r.runTask(ctx, task)
		if result.Score.Passed {
			report.Passed++
		}
		report.Average += result.Score.Overall
		report.Results = append(report.Results, result)

		r.logger.Info("task graded",
			zap.String("task", task.ID),
			zap.Bool("passed", result.Score.Passed),
			zap.Float64("overall", result.Score.Overall))
	}

	if report.Total > 0 {
		report.Average /= float64(report.Total)
	}
	return report
}

func (r *Runner) runTask(ctx context.Context, task Task) TaskResult {
	start := time.Now()
	env, err := r.infer(ctx, task.Query)
	latency := time.Since(start)

	result := TaskResult{
		TaskID:    task.ID,
		Query:     task.Query,
		WantMode:  task.ExpectedMode,
		LatencyMS: latency.Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.GotMode = env.Mode
	result.Answer = env.Answer
	result.Score = Grade(env.Mode, task.ExpectedMode, env.Answer, task.ExpectedContains, latency)
	return result
}
