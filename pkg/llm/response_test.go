package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCompletion(t *testing.T) {
	body := `{
		"id": "chatcmpl-1",
		"model": "n1-latest",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "  Clicking the search box.  ",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "left_click", "arguments": "{\"coordinates\": [500, 300]}"}
				}]
			}
		}]
	}`

	resp, err := DecodeResponse([]byte(body))
	require.NoError(t, err)

	msg, err := FirstChoice(resp, "Agent step 1 response")
	require.NoError(t, err)
	assert.Equal(t, "Clicking the search box.", msg.Content.Text())
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "left_click", msg.ToolCalls[0].Name)

	args, err := msg.ToolCalls[0].Args()
	require.NoError(t, err)
	assert.Equal(t, []any{500.0, 300.0}, args["coordinates"])
}

func TestContentNormalization(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `{"choices":[{"message":{"content":" hi "}}]}`, "hi"},
		{"null", `{"choices":[{"message":{"content":null}}]}`, ""},
		{"missing", `{"choices":[{"message":{}}]}`, ""},
		{
			"parts",
			`{"choices":[{"message":{"content":[{"type":"text","text":" a "},{"type":"image_url","image_url":{"url":"x"}},{"type":"text","text":"   "},{"type":"text","text":"b"}]}}]}`,
			"a\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse([]byte(tt.raw))
			require.NoError(t, err)
			msg, err := FirstChoice(resp, "test")
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Content.Text())
		})
	}
}

func TestExtractErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"detail string", `{"detail": " quota exceeded "}`, "quota exceeded"},
		{"detail non-string ignored", `{"detail": [{"loc": "x"}], "message": "fallback"}`, "fallback"},
		{"error object message", `{"error": {"message": "bad model", "detail": "other"}}`, "bad model"},
		{"error object detail", `{"error": {"detail": "rate limited"}}`, "rate limited"},
		{"error string", `{"error": "upstream timeout"}`, "upstream timeout"},
		{"top-level message", `{"message": "maintenance"}`, "maintenance"},
		{"nothing", `{"object": "list"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ExtractErrorDetail(resp))
		})
	}

	assert.Empty(t, ExtractErrorDetail(nil))
}

func TestFirstChoiceErrors(t *testing.T) {
	_, err := FirstChoice(nil, "Agent step 2 response")
	var protoErr *ModelProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "Agent step 2 response returned no response.", err.Error())

	resp, err := DecodeResponse([]byte(`{"detail": "Invalid API key"}`))
	require.NoError(t, err)
	_, err = FirstChoice(resp, "Agent step 1 response")
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "Invalid API key", protoErr.Detail)
	assert.Contains(t, err.Error(), "did not include completion choices")
	assert.Contains(t, err.Error(), "API detail: Invalid API key")

	resp, err = DecodeResponse([]byte(`{"choices": [{"index": 0}]}`))
	require.NoError(t, err)
	_, err = FirstChoice(resp, "x")
	assert.ErrorContains(t, err, "choice without a message")
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := DecodeResponse([]byte("<html>502</html>"))
	var protoErr *ModelProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestIsSizeExceeded(t *testing.T) {
	assert.True(t, IsSizeExceeded(errors.New(`POST "/chat/completions": 413 {"detail":"Content Length Exceeded"}`)))
	assert.True(t, IsSizeExceeded(fmt.Errorf("wrapped: %w", ErrTransportSizeExceeded)))
	assert.False(t, IsSizeExceeded(errors.New("401 unauthorized")))
	assert.False(t, IsSizeExceeded(nil))
}

func TestEnsureToolCallIDs(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"choices":[{"message":{"tool_calls":[
		{"type":"function","function":{"name":"wait","arguments":"{}"}},
		{"id":"keep","type":"function","function":{"name":"wait","arguments":"{}"}}
	]}}]}`))
	require.NoError(t, err)
	msg, err := FirstChoice(resp, "x")
	require.NoError(t, err)

	EnsureToolCallIDs(msg)
	assert.NotEmpty(t, msg.ToolCalls[0].ID)
	assert.Equal(t, "keep", msg.ToolCalls[1].ID)
}
