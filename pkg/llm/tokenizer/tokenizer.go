// Package tokenizer estimates the token cost of conversation text.
//
// Image parts are not counted; their cost is governed by the request byte
// budget instead.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/n1browse/pkg/types"
)

// DefaultEncoding is used for every model. n1 does not publish its own
// vocabulary, so counts are estimates.
const DefaultEncoding = "cl100k_base"

// perMessageOverhead approximates the role and separator tokens each turn adds.
const perMessageOverhead = 4

// Tokenizer counts tokens with tiktoken, or with a chars/4 heuristic when
// no encoding is loaded. The zero value uses the heuristic.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the default encoding. The encoding data may be downloaded on
// first use; on failure the error is returned alongside a heuristic
// tokenizer that is still safe to use.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return &Tokenizer{}, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Exact reports whether counts come from a real encoding.
func (t *Tokenizer) Exact() bool {
	return t != nil && t.enc != nil
}

// CountTokens returns the token count of text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if !t.Exact() {
		return (len(text) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens sums the text tokens of every message, including
// tool-call names and arguments.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		total += perMessageOverhead
		total += t.CountTokens(msg.Text())
		for _, tc := range msg.ToolCalls {
			total += t.CountTokens(tc.Name) + t.CountTokens(tc.Arguments)
		}
	}
	return total
}
