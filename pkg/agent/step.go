package agent

import (
	"context"
	"fmt"

	agentcontext "github.com/entrhq/n1browse/pkg/agent/context"
	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/logging"
	"github.com/entrhq/n1browse/pkg/types"
)

// StepClient sends the conversation to the model, trimming old screenshots
// to the request budget first. A size rejection from the endpoint gets
// exactly one more attempt under a tighter budget.
type StepClient struct {
	provider   llm.Provider
	trimmer    *agentcontext.Trimmer
	maxBytes   int
	retryBytes int
	reporter   Reporter
	log        *logging.Logger

	trimmed int
}

// NewStepClient creates a step client. retryBytes is the budget used for
// the second attempt after a size rejection.
func NewStepClient(provider llm.Provider, trimmer *agentcontext.Trimmer, maxBytes, retryBytes int, reporter Reporter, log *logging.Logger) *StepClient {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &StepClient{
		provider:   provider,
		trimmer:    trimmer,
		maxBytes:   maxBytes,
		retryBytes: retryBytes,
		reporter:   reporter,
		log:        log,
	}
}

// Trimmed returns the number of images replaced across all calls so far.
func (c *StepClient) Trimmed() int {
	return c.trimmed
}

// Step trims messages in place and requests the next model turn.
func (c *StepClient) Step(ctx context.Context, messages []*types.Message) (*llm.Response, error) {
	resp, err := c.attempt(ctx, messages, c.maxBytes, false)
	if err == nil || !llm.IsSizeExceeded(err) {
		return resp, err
	}

	c.log.Warnf("Request rejected for size, retrying with budget %d: %v", c.retryBytes, err)
	resp, err = c.attempt(ctx, messages, c.retryBytes, true)
	if err != nil && llm.IsSizeExceeded(err) {
		return nil, fmt.Errorf("%w after retry: %w", llm.ErrTransportSizeExceeded, err)
	}
	return resp, err
}

func (c *StepClient) attempt(ctx context.Context, messages []*types.Message, budget int, retry bool) (*llm.Response, error) {
	report := c.trimmer.Fit(messages, budget)
	if report.Removed > 0 {
		c.trimmed += report.Removed
		c.reporter.TrimNotice(report.Removed, report.SizeMB(), retry)
	}
	return c.provider.Complete(ctx, messages)
}
