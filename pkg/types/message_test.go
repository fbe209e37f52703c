package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{
			name: "system message uses string content",
			msg:  NewSystemMessage("be brief"),
			want: `{"role":"system","content":"be brief"}`,
		},
		{
			name: "user image message uses content parts",
			msg:  NewUserImageMessage("[Steps remaining: 3]\nfind it", Image{MIMEType: "image/png", Base64: "QUJD"}),
			want: `{"role":"user","content":[{"type":"text","text":"[Steps remaining: 3]\nfind it"},{"type":"image_url","image_url":{"url":"data:image/png;base64,QUJD"}}]}`,
		},
		{
			name: "assistant message carries tool calls",
			msg:  NewAssistantMessage("clicking", ToolCall{ID: "call_1", Name: "left_click", Arguments: `{"coordinates":[1,2]}`}),
			want: `{"role":"assistant","content":"clicking","tool_calls":[{"id":"call_1","type":"function","function":{"name":"left_click","arguments":"{\"coordinates\":[1,2]}"}}]}`,
		},
		{
			name: "tool message answers a call",
			msg:  NewToolMessage("call_1", "Current URL: about:blank", Image{MIMEType: "image/jpeg", Base64: "Zm9v"}),
			want: `{"role":"tool","content":[{"type":"text","text":"Current URL: about:blank"},{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,Zm9v"}}],"tool_call_id":"call_1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestToolCallUnmarshalJSON(t *testing.T) {
	var tc ToolCall
	err := json.Unmarshal([]byte(`{"id":"abc","type":"function","function":{"name":"scroll","arguments":"{\"direction\":\"down\",\"amount\":2}"}}`), &tc)
	require.NoError(t, err)

	assert.Equal(t, "abc", tc.ID)
	assert.Equal(t, "scroll", tc.Name)

	args, err := tc.Args()
	require.NoError(t, err)
	assert.Equal(t, "down", args["direction"])
	assert.Equal(t, float64(2), args["amount"])
}

func TestToolCallArgs(t *testing.T) {
	t.Run("empty arguments decode to empty map", func(t *testing.T) {
		args, err := ToolCall{Name: "wait"}.Args()
		require.NoError(t, err)
		assert.Empty(t, args)
	})

	t.Run("malformed arguments fail", func(t *testing.T) {
		_, err := ToolCall{Name: "type", Arguments: "{not json"}.Args()
		assert.ErrorContains(t, err, `tool "type"`)
	})
}

func TestMessageText(t *testing.T) {
	msg := NewToolMessage("id", "first", Image{MIMEType: "image/png", Base64: "x"})
	msg.Parts = append(msg.Parts, TextPart("second"))

	assert.Equal(t, "first\nsecond", msg.Text())
	assert.Equal(t, 1, msg.ImageCount())
	assert.Equal(t, "plain", NewUserMessage("plain").Text())
}
