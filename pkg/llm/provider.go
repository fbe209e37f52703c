// Package llm provides the model-exchange abstraction the agent talks to.
//
// Example usage:
//
//	provider, err := openai.NewProvider(apiKey,
//	    openai.WithBaseURL("https://api.yutori.com/v1"),
//	    openai.WithModel("n1-latest"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage("You are a web browsing agent."),
//	    types.NewUserImageMessage("[Steps remaining: 30]\nFind the weather", shot),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := llm.FirstChoice(resp, "Agent step 1 response")
package llm

import (
	"context"

	"github.com/entrhq/n1browse/pkg/types"
)

// Provider defines the interface for model integrations.
//
// Providers handle API communication and decode responses into the typed
// Response union. They do not trim, retry, or interpret tool calls; the
// agent layer owns those decisions.
type Provider interface {
	// Complete sends the multimodal conversation and returns the decoded
	// response. Transport failures, including size rejections, are returned
	// as errors whose text preserves the endpoint's message.
	Complete(ctx context.Context, messages []*types.Message) (*Response, error)

	// CompleteText runs a text-only exchange with one system and one user
	// turn and returns the first choice's text.
	CompleteText(ctx context.Context, system, user string) (string, error)

	// GetModel returns the model name being used.
	GetModel() string
}
