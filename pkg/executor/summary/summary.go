// Package summary writes a YAML record of a finished run.
package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/n1browse/pkg/agent"
)

// Run status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunSummary contains a complete summary of one run
type RunSummary struct {
	Task       string        `yaml:"task"`
	StartURL   string        `yaml:"start_url"`
	Model      string        `yaml:"model"`
	Status     string        `yaml:"status"`
	StopReason string        `yaml:"stop_reason,omitempty"`
	Answer     string        `yaml:"answer,omitempty"`
	Error      string        `yaml:"error,omitempty"`
	StartTime  time.Time     `yaml:"start_time"`
	EndTime    time.Time     `yaml:"end_time"`
	Duration   time.Duration `yaml:"duration"`
	Metrics    RunMetrics    `yaml:"metrics"`
	Actions    []Action      `yaml:"actions,omitempty"`
}

// RunMetrics contains run counters
type RunMetrics struct {
	MaxSteps      int `yaml:"max_steps"`
	Steps         int `yaml:"steps"`
	ToolCalls     int `yaml:"tool_calls"`
	ImagesTrimmed int `yaml:"images_trimmed"`
}

// Action is one dispatched tool call.
type Action struct {
	Step    int    `yaml:"step"`
	Name    string `yaml:"name"`
	Summary string `yaml:"summary,omitempty"`
}

// FromResult builds a summary. result may be nil when the run failed
// before starting; runErr is the error Run returned, if any.
func FromResult(params agent.RunParams, model string, result *agent.Result, runErr error) *RunSummary {
	s := &RunSummary{
		Task:     params.Task,
		StartURL: params.StartURL,
		Model:    model,
		Status:   StatusCompleted,
		Metrics:  RunMetrics{MaxSteps: params.MaxSteps},
	}

	if result != nil {
		s.StopReason = string(result.StopReason)
		s.Answer = result.Answer
		s.StartTime = result.StartedAt
		s.EndTime = result.FinishedAt
		s.Duration = result.FinishedAt.Sub(result.StartedAt)
		s.Metrics.Steps = result.Steps
		s.Metrics.ToolCalls = result.ToolCalls()
		s.Metrics.ImagesTrimmed = result.ImagesTrimmed
		for _, a := range result.Actions {
			s.Actions = append(s.Actions, Action{Step: a.Step, Name: a.Name, Summary: a.Summary})
		}
		if result.FinalizeErr != nil {
			s.Error = result.FinalizeErr.Error()
		}
	}

	if runErr != nil {
		s.Status = StatusFailed
		s.Error = runErr.Error()
	}
	return s
}

// Write saves the summary as YAML at path, creating parent directories.
func Write(path string, s *RunSummary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run summary: %w", writeErr)
	}
	return nil
}

// Read loads a summary written by Write.
func Read(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}
	var s RunSummary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return &s, nil
}
