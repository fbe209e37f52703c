package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MessageRole identifies the author of a conversation turn.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem is the fixed instruction turn that opens every conversation.
	RoleUser      MessageRole = "user"      // RoleUser carries the task and follow-up instructions.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries model text and requested tool calls.
	RoleTool      MessageRole = "tool"      // RoleTool answers one tool call with the post-action observation.
)

// PartType identifies the kind of a content part.
type PartType string

const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image_url"
)

// Image is an encoded bitmap embedded in a message.
type Image struct {
	// MIMEType is image/jpeg or image/png.
	MIMEType string

	// Base64 is the standard base64 encoding of the raw bitmap bytes.
	Base64 string
}

// DataURL renders the image as a data URI.
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64
}

// ContentPart is one typed element of a multipart message.
type ContentPart struct {
	Type  PartType
	Text  string
	Image *Image
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart creates an image content part.
func ImagePart(mimeType, b64 string) ContentPart {
	return ContentPart{Type: PartTypeImage, Image: &Image{MIMEType: mimeType, Base64: b64}}
}

// IsImage reports whether the part still carries an image.
func (p ContentPart) IsImage() bool {
	return p.Type == PartTypeImage && p.Image != nil
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wirePart struct {
	Type     PartType      `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

// MarshalJSON encodes the part in the chat-completions content-part shape.
func (p ContentPart) MarshalJSON() ([]byte, error) {
	if p.IsImage() {
		return json.Marshal(wirePart{Type: PartTypeImage, ImageURL: &wireImageURL{URL: p.Image.DataURL()}})
	}
	return json.Marshal(wirePart{Type: PartTypeText, Text: p.Text})
}

// ToolCall is a structured action request emitted by the model.
type ToolCall struct {
	ID   string
	Name string

	// Arguments is the JSON-encoded argument object as sent by the model.
	Arguments string
}

// Args decodes the argument object. An empty argument string yields an empty map.
func (tc ToolCall) Args() (map[string]any, error) {
	args := make(map[string]any)
	if strings.TrimSpace(tc.Arguments) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments for tool %q: %w", tc.Name, err)
	}
	return args, nil
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

// MarshalJSON encodes the call in the chat-completions tool-call shape.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireToolCall{
		ID:       tc.ID,
		Type:     "function",
		Function: wireFunction{Name: tc.Name, Arguments: tc.Arguments},
	})
}

// UnmarshalJSON decodes a chat-completions tool call.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var w wireToolCall
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tc.ID = w.ID
	tc.Name = w.Function.Name
	tc.Arguments = w.Function.Arguments
	return nil
}

// Message is one turn in the conversation. Order in a conversation is significant.
//
// Plain-text turns set Content. Multimodal turns set Parts instead; when Parts is
// non-nil it takes precedence over Content on the wire.
type Message struct {
	Role       MessageRole
	Content    string
	Parts      []ContentPart
	ToolCalls  []ToolCall
	ToolCallID string
}

type wireMessage struct {
	Role       MessageRole `json:"role"`
	Content    any         `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// MarshalJSON encodes the message in the chat-completions message shape.
func (m *Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		Role:       m.Role,
		Content:    m.Content,
		ToolCalls:  m.ToolCalls,
		ToolCallID: m.ToolCallID,
	}
	if m.Parts != nil {
		w.Content = m.Parts
	}
	return json.Marshal(w)
}

// ImageCount returns the number of parts that still carry an image.
func (m *Message) ImageCount() int {
	n := 0
	for _, p := range m.Parts {
		if p.IsImage() {
			n++
		}
	}
	return n
}

// Text returns the message text: Content for plain turns, or the text parts joined by newlines.
func (m *Message) Text() string {
	if m.Parts == nil {
		return m.Content
	}
	var chunks []string
	for _, p := range m.Parts {
		if p.Type == PartTypeText && p.Text != "" {
			chunks = append(chunks, p.Text)
		}
	}
	return strings.Join(chunks, "\n")
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a plain-text user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewUserImageMessage creates a user message carrying text followed by one image.
func NewUserImageMessage(text string, image Image) *Message {
	return &Message{
		Role:  RoleUser,
		Parts: []ContentPart{TextPart(text), ImagePart(image.MIMEType, image.Base64)},
	}
}

// NewAssistantMessage creates an assistant message with optional tool calls.
func NewAssistantMessage(content string, toolCalls ...ToolCall) *Message {
	return &Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// NewToolMessage creates the observation that answers a tool call: text first, screenshot second.
func NewToolMessage(toolCallID, text string, image Image) *Message {
	return &Message{
		Role:       RoleTool,
		ToolCallID: toolCallID,
		Parts:      []ContentPart{TextPart(text), ImagePart(image.MIMEType, image.Base64)},
	}
}
