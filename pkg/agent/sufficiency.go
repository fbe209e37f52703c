package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/logging"
)

// Verdict is the judge's decision on a draft answer.
type Verdict struct {
	Sufficient  bool
	Confidence  float64
	FinalAnswer string
	Missing     string
}

// SufficiencyChecker asks a judge model whether a draft answer is good
// enough to stop browsing. It never fails a run: every problem reads as
// "keep going".
type SufficiencyChecker struct {
	provider  llm.Provider
	enabled   bool
	threshold float64
	log       *logging.Logger
}

// NewSufficiencyChecker creates a checker. A disabled checker never calls
// the model.
func NewSufficiencyChecker(provider llm.Provider, enabled bool, threshold float64, log *logging.Logger) *SufficiencyChecker {
	if log == nil {
		log = logging.NewNop()
	}
	return &SufficiencyChecker{provider: provider, enabled: enabled, threshold: threshold, log: log}
}

// Check returns an accepted verdict, or nil when the agent should continue.
func (s *SufficiencyChecker) Check(ctx context.Context, task, draft string) *Verdict {
	if !s.enabled || strings.TrimSpace(draft) == "" {
		return nil
	}

	text, err := s.provider.CompleteText(ctx, SufficiencySystemPrompt, sufficiencyUserPrompt(task, draft))
	if err != nil {
		s.log.Warnf("Sufficiency check failed: %v", err)
		return nil
	}

	obj, ok := parseJSONObject(text)
	if !ok {
		s.log.Debugf("Sufficiency check returned no JSON object: %q", text)
		return nil
	}

	v := &Verdict{
		Sufficient:  asBool(obj["is_sufficient"]),
		Confidence:  asFloat(obj["confidence"]),
		FinalAnswer: strings.TrimSpace(asString(obj["final_answer"])),
		Missing:     strings.TrimSpace(asString(obj["missing"])),
	}

	switch {
	case !v.Sufficient:
		s.log.Debugf("Draft not sufficient; missing: %s", v.Missing)
		return nil
	case v.Confidence < s.threshold:
		s.log.Debugf("Draft confidence %.2f below threshold %.2f; missing: %s", v.Confidence, s.threshold, v.Missing)
		return nil
	case v.FinalAnswer == "":
		s.log.Debugf("Judge accepted draft without a final answer")
		return nil
	}
	s.log.Infof("Draft accepted with confidence %.2f", v.Confidence)
	return v
}

// parseJSONObject decodes text as a JSON object, falling back to the span
// from the first '{' to the last '}'.
func parseJSONObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	obj = nil
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case float64:
		return b != 0
	}
	return false
}

// asFloat reads a confidence value; anything non-numeric counts as zero.
func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0
		}
		return parsed
	case bool:
		if f {
			return 1
		}
	}
	return 0
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
