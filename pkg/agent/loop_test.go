package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/n1browse/pkg/config"
	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/tools/browser"
	"github.com/entrhq/n1browse/pkg/tools/browser/browsertest"
	"github.com/entrhq/n1browse/pkg/types"
)

const startURL = "https://start.example"

func params(maxSteps int) RunParams {
	return RunParams{Task: "find the capital of France", StartURL: startURL, MaxSteps: maxSteps}
}

// actionCalls drops the bookkeeping primitives the loop issues on its own.
func actionCalls(page *browsertest.Page) []browsertest.Call {
	var out []browsertest.Call
	for _, c := range page.Calls() {
		s := string(c)
		if strings.HasPrefix(s, "viewport") || strings.HasPrefix(s, "screenshot") || s == "goto "+startURL {
			continue
		}
		out = append(out, c)
	}
	return out
}

func TestRunNaturalStop(t *testing.T) {
	p := &scriptedProvider{steps: []stepReply{reply("  Paris  ")}}
	page := &browsertest.Page{}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, page, rep).Run(context.Background(), params(3))
	require.NoError(t, err)

	assert.Equal(t, StopNatural, result.StopReason)
	assert.Equal(t, "Paris", result.Answer)
	assert.Equal(t, 1, result.Steps)
	assert.Zero(t, result.ToolCalls())
	assert.Equal(t, 1, p.completeCalls)
	assert.Zero(t, p.textCalls, "judge is only consulted when tools are requested")
	assert.True(t, page.Closed)

	assert.Equal(t, []string{"Paris"}, rep.answers)
	assert.Equal(t, 1, rep.done)
	assert.Equal(t, []string{"Step 1/3 Thinking..."}, rep.spins)

	require.Len(t, p.sent, 1)
	seed := p.sent[0]
	require.Len(t, seed, 2)
	assert.Equal(t, types.RoleSystem, seed[0].Role)
	assert.Equal(t, SystemPrompt, seed[0].Content)
	assert.Equal(t, types.RoleUser, seed[1].Role)
	assert.Equal(t, "[Steps remaining: 3]\nfind the capital of France", seed[1].Text())
	assert.Equal(t, 1, seed[1].ImageCount())
	assert.Equal(t, "image/jpeg", seed[1].Parts[1].Image.MIMEType)
}

func TestRunNaturalStopBlankAnswer(t *testing.T) {
	p := &scriptedProvider{steps: []stepReply{reply("   ")}}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, &browsertest.Page{}, rep).Run(context.Background(), params(3))
	require.NoError(t, err)

	assert.Equal(t, StopNatural, result.StopReason)
	assert.Empty(t, result.Answer)
	assert.Empty(t, rep.answers)
	assert.Equal(t, 1, rep.done)
}

func TestRunEarlyStopDiscardsPendingCalls(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("The capital is Paris.", call("c1", "left_click", `{"coordinates":[500,500]}`)),
		},
		verdicts: []textReply{
			{text: `{"is_sufficient": true, "confidence": 0.92, "final_answer": "Paris", "missing": ""}`},
		},
	}
	page := &browsertest.Page{}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, page, rep).Run(context.Background(), params(5))
	require.NoError(t, err)

	assert.Equal(t, StopEarly, result.StopReason)
	assert.Equal(t, "Paris", result.Answer)
	assert.Equal(t, 1, rep.early)
	assert.Equal(t, []string{"Paris"}, rep.answers)
	assert.Empty(t, actionCalls(page), "pending tool calls must not run after an early stop")
	assert.Empty(t, rep.actions)
	assert.Equal(t, 1, p.completeCalls)

	require.Len(t, p.judged, 1)
	assert.Contains(t, p.judged[0], "TASK:\nfind the capital of France")
	assert.Contains(t, p.judged[0], "DRAFT_ANSWER:\nThe capital is Paris.")
}

func TestRunDispatchesAndObserves(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("Clicking the search box.", call("c1", "left_click", `{"coordinates":[500,500]}`)),
			reply("Paris"),
		},
		verdicts: []textReply{{text: `{"is_sufficient": false, "confidence": 0.2, "missing": "everything"}`}},
	}
	page := &browsertest.Page{}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, page, rep).Run(context.Background(), params(3))
	require.NoError(t, err)

	assert.Equal(t, StopNatural, result.StopReason)
	assert.Equal(t, 2, result.Steps)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, ActionRecord{Step: 1, Name: "left_click", Summary: "(500, 500)"}, result.Actions[0])
	assert.Equal(t, []browsertest.Call{"click 640,400 left x1"}, actionCalls(page))
	assert.Equal(t, []string{"left_click (500, 500)"}, rep.actions)

	require.Len(t, p.sent, 2)
	convo := p.sent[1]
	require.Len(t, convo, 4)

	assistant := convo[2]
	assert.Equal(t, types.RoleAssistant, assistant.Role)
	assert.Equal(t, "Clicking the search box.", assistant.Content)
	require.Len(t, assistant.ToolCalls, 1)

	tool := convo[3]
	assert.Equal(t, types.RoleTool, tool.Role)
	assert.Equal(t, "c1", tool.ToolCallID)
	require.Len(t, tool.Parts, 2)
	assert.Equal(t, types.PartTypeText, tool.Parts[0].Type)
	assert.Equal(t, "[Steps remaining: 2]\nCurrent URL: "+startURL, tool.Parts[0].Text)
	assert.True(t, tool.Parts[1].IsImage())
}

func TestRunReappliesViewportBeforeEveryScreenshot(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("", call("c1", "wait", `{}`), call("c2", "scroll", `{"direction":"down","amount":3}`)),
			reply("done"),
		},
	}
	page := &browsertest.Page{}

	_, err := newTestAgent(testConfig(nil), p, page, nil).Run(context.Background(), params(3))
	require.NoError(t, err)

	assert.Equal(t, 3, page.Count("screenshot"))
	assert.Equal(t, page.Count("screenshot")+1, page.Count("viewport"))
	for _, vp := range page.Viewports {
		assert.Equal(t, browser.Viewport{Width: 1280, Height: 800}, vp)
	}
	assert.Equal(t, []browsertest.Call{"wait 800ms", "wheel 0,240"}, actionCalls(page))
}

func TestRunForcedFinalize(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("", call("c1", "wait", `{}`)),
			reply("", call("c2", "wait", `{}`)),
			reply("Paris, based on what I saw."),
		},
	}
	page := &browsertest.Page{}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, page, rep).Run(context.Background(), params(2))
	require.NoError(t, err)

	assert.Equal(t, StopForcedFinalize, result.StopReason)
	assert.Equal(t, "Paris, based on what I saw.", result.Answer)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 2, result.ToolCalls())
	assert.Equal(t, 3, p.completeCalls, "exactly one call beyond the step budget")
	assert.NoError(t, result.FinalizeErr)

	assert.Equal(t, []string{"Step 1/2 Thinking...", "Step 2/2 Thinking...", "Synthesizing final answer..."}, rep.spins)
	assert.Equal(t, []string{"Paris, based on what I saw."}, rep.answers)
	assert.Equal(t, 1, rep.done)

	last := p.sent[2]
	final := last[len(last)-1]
	assert.Equal(t, types.RoleUser, final.Role)
	assert.True(t, strings.HasPrefix(final.Content, "You have reached the maximum number of browsing steps."))
	assert.True(t, strings.HasSuffix(final.Content, "\n\nfind the capital of France"))

	// the tool message from the final step reports zero remaining
	obs := last[len(last)-2]
	assert.Equal(t, "[Steps remaining: 0]\nCurrent URL: "+startURL, obs.Text())
}

func TestRunForcedFinalizeBlankAnswer(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("", call("c1", "wait", `{}`)),
			reply(""),
		},
	}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, &browsertest.Page{}, rep).Run(context.Background(), params(1))
	require.NoError(t, err)

	assert.Equal(t, StopForcedFinalize, result.StopReason)
	assert.Empty(t, result.Answer)
	assert.Equal(t, []string{"Agent exhausted all steps and could not produce a final answer."}, rep.errs)
	assert.Equal(t, 1, rep.done)
}

func TestRunForcedFinalizeFailure(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("", call("c1", "wait", `{}`)),
			{err: errors.New("upstream unavailable")},
		},
	}
	page := &browsertest.Page{}
	rep := &recordingReporter{}

	result, err := newTestAgent(testConfig(nil), p, page, rep).Run(context.Background(), params(1))
	require.NoError(t, err)

	assert.Equal(t, StopForcedFinalize, result.StopReason)
	assert.Empty(t, result.Answer)
	assert.EqualError(t, result.FinalizeErr, "upstream unavailable")
	assert.Equal(t, []string{"Failed to synthesize final answer: upstream unavailable"}, rep.errs)
	assert.True(t, page.Closed)
}

func TestRunUnsupportedAction(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{reply("", call("c1", "teleport", `{"coordinates":[1,2]}`))},
	}
	page := &browsertest.Page{}

	result, err := newTestAgent(testConfig(nil), p, page, nil).Run(context.Background(), params(3))
	require.Error(t, err)

	assert.ErrorIs(t, err, browser.ErrUnsupportedAction)
	var unsupported *browser.UnsupportedActionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "teleport", unsupported.Name)
	assert.Empty(t, actionCalls(page))
	assert.Empty(t, result.Actions)
	assert.True(t, page.Closed, "browser is released on error")
}

func TestRunMalformedArguments(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{reply("", call("c1", "left_click", `{not json`))},
	}
	page := &browsertest.Page{}

	_, err := newTestAgent(testConfig(nil), p, page, nil).Run(context.Background(), params(3))
	assert.ErrorIs(t, err, browser.ErrInvalidArguments)
	assert.Empty(t, actionCalls(page))
}

func TestRunDriverFailures(t *testing.T) {
	boom := errors.New("target closed")

	t.Run("connect", func(t *testing.T) {
		a := NewAgent(testConfig(nil), &scriptedProvider{}, &browsertest.Connector{Err: boom})
		_, err := a.Run(context.Background(), params(3))

		var driverErr *DriverError
		require.ErrorAs(t, err, &driverErr)
		assert.Equal(t, "connect", driverErr.Op)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("screenshot", func(t *testing.T) {
		page := &browsertest.Page{FailOn: map[string]error{"screenshot": boom}}
		p := &scriptedProvider{}
		_, err := newTestAgent(testConfig(nil), p, page, nil).Run(context.Background(), params(3))

		var driverErr *DriverError
		require.ErrorAs(t, err, &driverErr)
		assert.Equal(t, "screenshot", driverErr.Op)
		assert.Zero(t, p.completeCalls)
		assert.True(t, page.Closed)
	})

	t.Run("action", func(t *testing.T) {
		page := &browsertest.Page{FailOn: map[string]error{"click": boom}}
		p := &scriptedProvider{
			steps: []stepReply{reply("", call("c1", "left_click", `{"coordinates":[10,10]}`))},
		}
		_, err := newTestAgent(testConfig(nil), p, page, nil).Run(context.Background(), params(3))

		var driverErr *DriverError
		require.ErrorAs(t, err, &driverErr)
		assert.Equal(t, "left_click", driverErr.Op)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRunProtocolError(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{{resp: &llm.Response{Detail: "quota exhausted"}}},
	}

	_, err := newTestAgent(testConfig(nil), p, &browsertest.Page{}, nil).Run(context.Background(), params(3))

	var protoErr *llm.ModelProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "Agent step 1 response", protoErr.Context)
	assert.Equal(t, "quota exhausted", protoErr.Detail)
}

func TestRunAssignsMissingToolCallIDs(t *testing.T) {
	p := &scriptedProvider{
		steps: []stepReply{
			reply("", call("", "go_back", `{}`)),
			reply("done"),
		},
	}

	_, err := newTestAgent(testConfig(nil), p, &browsertest.Page{}, nil).Run(context.Background(), params(3))
	require.NoError(t, err)

	convo := p.sent[1]
	id := convo[2].ToolCalls[0].ID
	assert.True(t, strings.HasPrefix(id, "call_"))
	assert.Equal(t, id, convo[3].ToolCallID)
}

func TestRunSufficiencyDisabled(t *testing.T) {
	cfg := testConfig(func(s *config.Settings) { s.EnableSufficiencyCheck = false })
	p := &scriptedProvider{
		steps: []stepReply{
			reply("Probably Paris.", call("c1", "wait", `{}`)),
			reply("Paris"),
		},
	}

	result, err := newTestAgent(cfg, p, &browsertest.Page{}, nil).Run(context.Background(), params(3))
	require.NoError(t, err)

	assert.Equal(t, StopNatural, result.StopReason)
	assert.Zero(t, p.textCalls)
}

func TestRunInvalidParams(t *testing.T) {
	conn := &browsertest.Connector{Err: errors.New("must not connect")}
	a := NewAgent(testConfig(nil), &scriptedProvider{}, conn)

	_, err := a.Run(context.Background(), RunParams{Task: "x", MaxSteps: 0})
	assert.ErrorIs(t, err, ErrInvalidRunParams)

	_, err = a.Run(context.Background(), RunParams{Task: "  ", MaxSteps: 3})
	assert.ErrorIs(t, err, ErrInvalidRunParams)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page := &browsertest.Page{}

	_, err := newTestAgent(testConfig(nil), &scriptedProvider{}, page, nil).Run(ctx, params(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, page.Closed)
}
