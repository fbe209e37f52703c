// Package agent runs the browse loop: it asks the model for one action at a
// time, performs it on the page, and stops when the model answers, when a
// draft answer is judged sufficient, or when the step budget runs out.
package agent

import (
	agentcontext "github.com/entrhq/n1browse/pkg/agent/context"
	"github.com/entrhq/n1browse/pkg/config"
	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/llm/tokenizer"
	"github.com/entrhq/n1browse/pkg/logging"
	"github.com/entrhq/n1browse/pkg/tools/browser"
)

// Agent drives one page through one model conversation per Run.
type Agent struct {
	cfg       config.AgentConfig
	provider  llm.Provider
	connector browser.Connector
	reporter  Reporter
	tokenizer *tokenizer.Tokenizer
	log       *logging.Logger
}

// AgentOption is a function that configures an Agent
type AgentOption func(*Agent)

// WithReporter sets where progress is shown. Defaults to NopReporter.
func WithReporter(r Reporter) AgentOption {
	return func(a *Agent) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.log = l
		}
	}
}

// WithTokenizer sets the tokenizer used for per-step text estimates.
func WithTokenizer(t *tokenizer.Tokenizer) AgentOption {
	return func(a *Agent) {
		if t != nil {
			a.tokenizer = t
		}
	}
}

// NewAgent creates an agent that talks to provider and opens its page
// through connector.
func NewAgent(cfg config.AgentConfig, provider llm.Provider, connector browser.Connector, opts ...AgentOption) *Agent {
	a := &Agent{
		cfg:       cfg,
		provider:  provider,
		connector: connector,
		reporter:  NopReporter{},
		tokenizer: &tokenizer.Tokenizer{},
		log:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// newStepClient wires the size manager into a step client for one run.
func (a *Agent) newStepClient() *StepClient {
	trimmer := agentcontext.NewTrimmer(a.cfg.KeepRecentScreenshots(), a.tokenizer, a.log)
	return NewStepClient(a.provider, trimmer, a.cfg.MaxRequestBytes(), a.cfg.RetryRequestBytes(), a.reporter, a.log)
}

func (a *Agent) newChecker() *SufficiencyChecker {
	return NewSufficiencyChecker(a.provider, a.cfg.SufficiencyCheckEnabled(), a.cfg.StopConfidenceThreshold(), a.log)
}
