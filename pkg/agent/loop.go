package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/tools/browser"
	"github.com/entrhq/n1browse/pkg/types"
)

// StopReason says how a run ended.
type StopReason string

const (
	StopNatural        StopReason = "natural_stop"    // the model answered without requesting an action
	StopEarly          StopReason = "early_stop"      // the judge accepted a draft answer
	StopForcedFinalize StopReason = "forced_finalize" // the step budget ran out
)

// RunParams describes one task.
type RunParams struct {
	Task     string
	StartURL string
	MaxSteps int
}

// ActionRecord is one dispatched tool call.
type ActionRecord struct {
	Step    int
	Name    string
	Summary string
}

// Result is the outcome of a completed run.
type Result struct {
	Task       string
	StartURL   string
	MaxSteps   int
	StopReason StopReason

	// Answer is empty when the run ended without one
	Answer string

	// Steps counts model-invoking iterations, not including the finalize call
	Steps   int
	Actions []ActionRecord

	// ImagesTrimmed counts screenshots replaced to fit the request budget
	ImagesTrimmed int

	// FinalizeErr is set when forced finalization failed
	FinalizeErr error

	StartedAt  time.Time
	FinishedAt time.Time
}

// ToolCalls returns the number of dispatched actions.
func (r *Result) ToolCalls() int {
	return len(r.Actions)
}

// run holds the state of a single Run call.
type run struct {
	*Agent
	params   RunParams
	page     browser.Page
	viewport browser.Viewport
	stepper  *StepClient
	checker  *SufficiencyChecker
	messages []*types.Message
	result   *Result
}

// Run executes one task to completion. The browser is released on every
// return path. A returned error means the run aborted; a forced finalize
// that fails to produce an answer is reported through the Result instead.
func (a *Agent) Run(ctx context.Context, params RunParams) (*Result, error) {
	params.Task = strings.TrimSpace(params.Task)
	if params.Task == "" {
		return nil, fmt.Errorf("%w: task is required", ErrInvalidRunParams)
	}
	if params.MaxSteps < 1 {
		return nil, fmt.Errorf("%w: max steps must be at least 1, got %d", ErrInvalidRunParams, params.MaxSteps)
	}

	a.reporter.Banner()
	a.reporter.ConfigSummary(params.Task, params.StartURL, params.MaxSteps, a.cfg.Model())

	handle, err := a.connector.Connect(ctx)
	if err != nil {
		return nil, &DriverError{Op: "connect", Err: err}
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			a.log.Warnf("Failed to release browser: %v", cerr)
		}
	}()

	r := &run{
		Agent:    a,
		params:   params,
		page:     handle.Page(),
		viewport: browser.Viewport{Width: a.cfg.ViewportWidth(), Height: a.cfg.ViewportHeight()},
		stepper:  a.newStepClient(),
		checker:  a.newChecker(),
		result: &Result{
			Task:      params.Task,
			StartURL:  params.StartURL,
			MaxSteps:  params.MaxSteps,
			StartedAt: time.Now(),
		},
	}
	a.log.Infof("Run started: task=%q url=%s max_steps=%d model=%s", params.Task, params.StartURL, params.MaxSteps, a.cfg.Model())

	err = r.execute(ctx)
	r.result.ImagesTrimmed = r.stepper.Trimmed()
	r.result.FinishedAt = time.Now()
	if err != nil {
		a.log.Errorf("Run aborted after %d step(s): %v", r.result.Steps, err)
		return r.result, err
	}
	a.log.Infof("Run finished: reason=%s steps=%d actions=%d trimmed=%d",
		r.result.StopReason, r.result.Steps, r.result.ToolCalls(), r.result.ImagesTrimmed)
	return r.result, nil
}

func (r *run) execute(ctx context.Context) error {
	if err := r.page.SetViewport(r.viewport); err != nil {
		return &DriverError{Op: "set viewport", Err: err}
	}
	if err := r.page.Goto(ctx, r.params.StartURL); err != nil {
		return &DriverError{Op: "open start page", Err: err}
	}
	shot, err := r.screenshot(ctx)
	if err != nil {
		return err
	}

	r.messages = []*types.Message{
		types.NewSystemMessage(SystemPrompt),
		types.NewUserImageMessage(taskMessage(r.params.MaxSteps, r.params.Task), shot),
	}

	for step := 1; step <= r.params.MaxSteps; step++ {
		done, err := r.iterate(ctx, step)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	r.forceFinalize(ctx)
	return nil
}

// iterate runs one model step and, unless the run stops, dispatches every
// requested action.
func (r *run) iterate(ctx context.Context, step int) (bool, error) {
	maxSteps := r.params.MaxSteps
	remaining := maxSteps - step

	var resp *llm.Response
	err := r.reporter.Spin(fmt.Sprintf("Step %d/%d Thinking...", step, maxSteps), func() error {
		var err error
		resp, err = r.stepper.Step(ctx, r.messages)
		return err
	})
	if err != nil {
		return false, err
	}
	r.result.Steps = step

	msg, err := llm.FirstChoice(resp, fmt.Sprintf("Agent step %d response", step))
	if err != nil {
		return false, err
	}
	llm.EnsureToolCallIDs(msg)
	text := msg.Content.Text()
	r.reporter.Step(step, maxSteps, text)
	r.log.Debugf("Step %d/%d: %d tool call(s), ~%d text tokens", step, maxSteps, len(msg.ToolCalls), r.tokenizer.CountTokens(text))

	if len(msg.ToolCalls) == 0 {
		if text != "" {
			r.reporter.FinalAnswer(text)
		}
		r.reporter.Done()
		r.finish(StopNatural, text)
		return true, nil
	}

	if verdict := r.checker.Check(ctx, r.params.Task, text); verdict != nil {
		r.log.Infof("Early stop at step %d with %d pending tool call(s) discarded", step, len(msg.ToolCalls))
		r.reporter.EarlyStop()
		r.reporter.FinalAnswer(verdict.FinalAnswer)
		r.reporter.Done()
		r.finish(StopEarly, verdict.FinalAnswer)
		return true, nil
	}

	r.messages = append(r.messages, types.NewAssistantMessage(text, msg.ToolCalls...))

	for _, tc := range msg.ToolCalls {
		if err := r.dispatch(ctx, step, remaining, tc); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (r *run) dispatch(ctx context.Context, step, remaining int, tc types.ToolCall) error {
	args, err := tc.Args()
	if err != nil {
		return fmt.Errorf("%w: %v", browser.ErrInvalidArguments, err)
	}

	summary := browser.SummarizeArgs(tc.Name, args)
	r.reporter.ToolAction(tc.Name, summary)
	r.log.Debugf("Dispatching %s %s", tc.Name, summary)

	if err := browser.Execute(ctx, r.page, tc.Name, args, r.viewport); err != nil {
		if errors.Is(err, browser.ErrUnsupportedAction) || errors.Is(err, browser.ErrInvalidArguments) {
			return err
		}
		return &DriverError{Op: tc.Name, Err: err}
	}
	r.result.Actions = append(r.result.Actions, ActionRecord{Step: step, Name: tc.Name, Summary: summary})

	shot, err := r.screenshot(ctx)
	if err != nil {
		return err
	}
	r.messages = append(r.messages, types.NewToolMessage(tc.ID, observation(remaining, r.page.URL()), shot))
	return nil
}

// forceFinalize asks for an answer once the budget is spent. Failures are
// reported, not returned.
func (r *run) forceFinalize(ctx context.Context) {
	synthesis := make([]*types.Message, 0, len(r.messages)+1)
	synthesis = append(synthesis, r.messages...)
	synthesis = append(synthesis, types.NewUserMessage(finalizeInstruction(r.params.Task)))

	var resp *llm.Response
	err := r.reporter.Spin("Synthesizing final answer...", func() error {
		var err error
		resp, err = r.stepper.Step(ctx, synthesis)
		return err
	})

	var answer string
	if err == nil {
		var msg *llm.ChoiceMessage
		msg, err = llm.FirstChoice(resp, "Force-finalize response")
		if err == nil {
			answer = msg.Content.Text()
		}
	}

	switch {
	case err != nil:
		r.result.FinalizeErr = err
		r.reporter.Error(fmt.Sprintf("Failed to synthesize final answer: %v", err))
	case answer == "":
		r.reporter.Error("Agent exhausted all steps and could not produce a final answer.")
	default:
		r.reporter.FinalAnswer(answer)
	}
	r.reporter.Done()
	r.finish(StopForcedFinalize, answer)
}

func (r *run) finish(reason StopReason, answer string) {
	r.result.StopReason = reason
	r.result.Answer = answer
}

// screenshot re-applies the viewport and captures the page.
func (r *run) screenshot(ctx context.Context) (types.Image, error) {
	if err := r.page.SetViewport(r.viewport); err != nil {
		return types.Image{}, &DriverError{Op: "set viewport", Err: err}
	}
	data, err := r.page.Screenshot(ctx, browser.ScreenshotOptions{
		Format:  r.cfg.ScreenshotFormat(),
		Quality: r.cfg.JPEGQuality(),
		Timeout: r.cfg.ScreenshotTimeout(),
	})
	if err != nil {
		return types.Image{}, &DriverError{Op: "screenshot", Err: err}
	}
	return types.Image{
		MIMEType: r.cfg.ImageMIME(),
		Base64:   base64.StdEncoding.EncodeToString(data),
	}, nil
}
