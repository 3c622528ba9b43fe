package messagesapi

import "encoding/json"

// Role is the speaker of a message: "user" or "assistant".
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason is the terminal reason a message stopped generating.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonToolUse      StopReason = "tool_use"
)

// Usage carries token accounting for a message.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// MessageCreateParams is the decoded body of POST /v1/messages.
type MessageCreateParams struct {
	Model       string           `json:"model" validate:"required"`
	Messages    []MessageParam   `json:"messages" validate:"required,min=1,dive"`
	System      json.RawMessage  `json:"system,omitempty"`
	MaxTokens   int64            `json:"max_tokens" validate:"required,gt=0"`
	Tools       []ToolParam      `json:"tools,omitempty" validate:"dive"`
	ToolChoice  *ToolChoiceParam `json:"tool_choice,omitempty"`
	TopP        *float64         `json:"top_p,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	Stream      bool             `json:"stream,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	StopSeqs    []string         `json:"stop_sequences,omitempty"`
}

// MessageParam is one turn of input conversation history. Content may decode
// either as a bare string or as an array of ContentBlockParam; DecodeContent
// normalizes the two shapes.
type MessageParam struct {
	Role    Role            `json:"role" validate:"required,oneof=user assistant"`
	Content json.RawMessage `json:"content" validate:"required"`
}

// DecodeContent normalizes m.Content into either a plain string (isBlocks
// false) or a slice of content blocks (isBlocks true).
func (m MessageParam) DecodeContent() (text string, blocks []ContentBlockParam, isBlocks bool, err error) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s, nil, false, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(m.Content, &raw); err != nil {
		return "", nil, false, err
	}

	blocks = make([]ContentBlockParam, 0, len(raw))
	for _, r := range raw {
		var b ContentBlockParam
		if err := json.Unmarshal(r, &b); err != nil {
			return "", nil, false, err
		}
		blocks = append(blocks, b)
	}
	return "", blocks, true, nil
}

// ContentBlockType discriminates ContentBlockParam and ContentBlock variants.
type ContentBlockType string

const (
	ContentBlockTypeText       ContentBlockType = "text"
	ContentBlockTypeImage      ContentBlockType = "image"
	ContentBlockTypeToolUse    ContentBlockType = "tool_use"
	ContentBlockTypeToolResult ContentBlockType = "tool_result"
)

// ContentBlockParam is a tagged union of every content block shape a client
// may send in a message's content array.
type ContentBlockParam struct {
	Type ContentBlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// ImageSource is the source of an image content block.
type ImageSource struct {
	Type      string `json:"type"` // "base64" or "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// ToolResultText returns the tool_result content as a plain string,
// JSON-serializing non-string payloads per the request translator's contract.
func (b ContentBlockParam) ToolResultText() (string, error) {
	if len(b.Content) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(b.Content, &s); err == nil {
		return s, nil
	}
	return string(b.Content), nil
}

// ToolParam is a client-supplied tool definition.
type ToolParam struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolChoiceParam selects how the model should use tools.
type ToolChoiceParam struct {
	Type string `json:"type"` // "auto", "any", "tool", "none"
	Name string `json:"name,omitempty"`
}

// ContentBlock is a block of an assistant Message returned to the client.
type ContentBlock struct {
	Type ContentBlockType `json:"type"`
	Text string           `json:"text,omitempty"`

	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Message is the non-streaming response body for POST /v1/messages.
type Message struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"` // always "message"
	Role         Role           `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   StopReason     `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// CountTokensParams is the body of POST /v1/messages/count_tokens.
type CountTokensParams struct {
	Model    string          `json:"model"`
	System   json.RawMessage `json:"system,omitempty"`
	Messages []MessageParam  `json:"messages"`
}

// CountTokensResult is the response of POST /v1/messages/count_tokens.
type CountTokensResult struct {
	InputTokens int `json:"input_tokens"`
}
