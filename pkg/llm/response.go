package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/entrhq/n1browse/pkg/types"
)

// ErrTransportSizeExceeded marks a request the endpoint rejected for size.
var ErrTransportSizeExceeded = errors.New("content length exceeded")

// IsSizeExceeded reports whether err is a transport size rejection.
// Endpoints signal it only through message text, so the check is a
// case-insensitive substring match.
func IsSizeExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransportSizeExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "content length exceeded")
}

// Response is the decoded body of a chat-completions call. A well-formed
// completion fills Choices; error payloads fill one or more of Detail,
// Error and Message instead.
type Response struct {
	ID      string
	Model   string
	Choices []Choice

	// Detail is a top-level "detail" string (FastAPI-style errors).
	Detail string

	// Error is a top-level "error" field, either an object or a bare string.
	Error *APIError

	// Message is a top-level "message" string.
	Message string
}

// APIError is the "error" member of an error payload.
type APIError struct {
	Message string
	Detail  string

	// Text is set when the endpoint sent "error" as a bare string.
	Text string
}

// Choice is one candidate completion.
type Choice struct {
	Index        int            `json:"index"`
	Message      *ChoiceMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

// ChoiceMessage is the assistant turn inside a choice.
type ChoiceMessage struct {
	Role      string           `json:"role"`
	Content   Content          `json:"content"`
	ToolCalls []types.ToolCall `json:"tool_calls"`
}

// Content is message text normalized from either a string or a list of
// typed parts (text parts joined by newlines, others ignored). Surrounding
// whitespace is trimmed.
type Content string

// UnmarshalJSON accepts a string, a part list, or null.
func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Content(strings.TrimSpace(s))
		return nil
	}

	var parts []map[string]any
	if err := json.Unmarshal(data, &parts); err == nil {
		var chunks []string
		for _, part := range parts {
			if part["type"] != "text" {
				continue
			}
			if text, ok := part["text"].(string); ok && strings.TrimSpace(text) != "" {
				chunks = append(chunks, strings.TrimSpace(text))
			}
		}
		*c = Content(strings.TrimSpace(strings.Join(chunks, "\n")))
		return nil
	}

	if strings.TrimSpace(string(data)) == "null" {
		*c = ""
		return nil
	}

	// Unknown shapes keep their raw text.
	*c = Content(strings.TrimSpace(string(data)))
	return nil
}

// Text returns the normalized text.
func (c Content) Text() string {
	return strings.TrimSpace(string(c))
}

type wireResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Choices []Choice        `json:"choices"`
	Detail  json.RawMessage `json:"detail"`
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
}

// UnmarshalJSON decodes a completion or an error payload.
func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	r.ID = w.ID
	r.Model = w.Model
	r.Choices = w.Choices
	r.Detail = rawString(w.Detail)
	r.Message = rawString(w.Message)
	r.Error = nil

	if len(w.Error) > 0 && string(w.Error) != "null" {
		var obj struct {
			Message json.RawMessage `json:"message"`
			Detail  json.RawMessage `json:"detail"`
		}
		if err := json.Unmarshal(w.Error, &obj); err == nil {
			r.Error = &APIError{Message: rawString(obj.Message), Detail: rawString(obj.Detail)}
		} else if text := rawString(w.Error); text != "" {
			r.Error = &APIError{Text: text}
		}
	}
	return nil
}

// rawString returns the trimmed value of a JSON string, or "" for any other type.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// DecodeResponse parses a response body.
func DecodeResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ModelProtocolError{
			Context: "Model response",
			Reason:  fmt.Sprintf("was not valid JSON: %v", err),
		}
	}
	return &resp, nil
}

// ExtractErrorDetail returns the most specific diagnostic text an error
// payload carries: detail, then error.message, error.detail or a bare error
// string, then message. It returns "" when there is none.
func ExtractErrorDetail(resp *Response) string {
	if resp == nil {
		return ""
	}
	if resp.Detail != "" {
		return resp.Detail
	}
	if resp.Error != nil {
		switch {
		case resp.Error.Message != "":
			return resp.Error.Message
		case resp.Error.Detail != "":
			return resp.Error.Detail
		case resp.Error.Text != "":
			return resp.Error.Text
		}
	}
	return resp.Message
}

// ModelProtocolError reports a response without the expected completion structure.
type ModelProtocolError struct {
	// Context names the exchange, e.g. "Agent step 3 response"
	Context string

	// Reason describes what was missing
	Reason string

	// Detail is the diagnostic extracted from the payload, if any
	Detail string
}

func (e *ModelProtocolError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Context, e.Reason)
	if e.Detail != "" {
		msg += " API detail: " + e.Detail
	}
	return msg
}

// FirstChoice returns the message of the first choice, or a
// *ModelProtocolError naming context when the response has none.
func FirstChoice(resp *Response, context string) (*ChoiceMessage, error) {
	if resp == nil {
		return nil, &ModelProtocolError{Context: context, Reason: "returned no response."}
	}
	if len(resp.Choices) == 0 {
		return nil, &ModelProtocolError{
			Context: context,
			Reason: "did not include completion choices. " +
				"The API likely returned an error payload instead of a chat completion.",
			Detail: ExtractErrorDetail(resp),
		}
	}
	msg := resp.Choices[0].Message
	if msg == nil {
		return nil, &ModelProtocolError{Context: context, Reason: "returned a choice without a message."}
	}
	return msg, nil
}

// EnsureToolCallIDs assigns an id to every tool call the model left
// unnamed, so each tool message can answer its call.
func EnsureToolCallIDs(msg *ChoiceMessage) {
	if msg == nil {
		return
	}
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = "call_" + strings.ReplaceAll(uuid.New().String(), "-", "")
		}
	}
}
