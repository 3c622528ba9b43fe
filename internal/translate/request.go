package translate

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/relaykit/messages-gateway/internal/correlate"
	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// UnsupportedImage is returned when an image content block's source is
// neither "base64" nor "url".
type UnsupportedImage struct {
	Kind string
}

func (e *UnsupportedImage) Error() string {
	return fmt.Sprintf("unsupported image source kind %q", e.Kind)
}

const maxOutputTokensFloor = 16384

// BuildUpstreamRequest is the request translator (C2): it turns a decoded
// downstream MessageCreateParams into an UpstreamRequest, minting and
// recording any tool call_id bindings this turn's tool_use/tool_result
// blocks need along the way.
func BuildUpstreamRequest(params messagesapi.MessageCreateParams, model string, conv *correlate.Conversation) (upstream.UpstreamRequest, error) {
	instructions, err := decodeSystem(params.System)
	if err != nil {
		return upstream.UpstreamRequest{}, fmt.Errorf("decode system prompt: %w", err)
	}

	items, err := convertMessages(params.Messages, conv)
	if err != nil {
		return upstream.UpstreamRequest{}, err
	}
	items = postFilterUnmatchedCalls(items)

	maxOutputTokens := params.MaxTokens
	if maxOutputTokens < maxOutputTokensFloor {
		maxOutputTokens = maxOutputTokensFloor
	}

	req := upstream.UpstreamRequest{
		Model:           model,
		Instructions:    instructions,
		Input:           items,
		Tools:           ConvertTools(params.Tools),
		ToolChoice:      ConvertToolChoice(params.ToolChoice),
		MaxOutputTokens: maxOutputTokens,
		TopP:            params.TopP,
		Temperature:     params.Temperature,
	}
	if id, ok := conv.LastResponseID(); ok {
		req.PreviousResponseID = id
	}
	return req, nil
}

// decodeSystem normalizes the downstream system prompt, which may be a bare
// string or an array of text blocks joined with a blank line, into a single
// instructions string.
func decodeSystem(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var blocks []messagesapi.ContentBlockParam
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func convertMessages(messages []messagesapi.MessageParam, conv *correlate.Conversation) ([]upstream.InputItem, error) {
	var items []upstream.InputItem

	for _, m := range messages {
		text, blocks, isBlocks, err := m.DecodeContent()
		if err != nil {
			return nil, fmt.Errorf("decode message content: %w", err)
		}

		role := string(m.Role)

		if !isBlocks {
			if text != "" {
				items = append(items, upstream.InputItem{Kind: upstream.InputItemMessage, Role: role, Text: text})
			}
			continue
		}

		var textBuf []string
		flush := func() {
			items = append(items, flushTextBuffer(role, textBuf)...)
			textBuf = nil
		}

		for _, b := range blocks {
			switch b.Type {
			case messagesapi.ContentBlockTypeText:
				if b.Text != "" {
					textBuf = append(textBuf, b.Text)
				}

			case messagesapi.ContentBlockTypeToolUse:
				flush()
				item, err := convertToolUse(b, conv)
				if err != nil {
					return nil, err
				}
				items = append(items, item)

			case messagesapi.ContentBlockTypeToolResult:
				flush()
				item, err := convertToolResult(b, conv)
				if err != nil {
					return nil, err
				}
				items = append(items, item)

			case messagesapi.ContentBlockTypeImage:
				flush()
				item, err := convertImage(b)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
		}
		flush()
	}

	return items, nil
}

// flushTextBuffer emits the pending contiguous text blocks as a single input
// message: assistant buffers collapse to plain text, user buffers with more
// than one part become a text-part content list.
func flushTextBuffer(role string, buf []string) []upstream.InputItem {
	if len(buf) == 0 {
		return nil
	}
	if role != string(messagesapi.RoleUser) || len(buf) == 1 {
		return []upstream.InputItem{{Kind: upstream.InputItemMessage, Role: role, Text: strings.Join(buf, "")}}
	}

	parts := make([]upstream.InputContentPart, len(buf))
	for i, t := range buf {
		parts[i] = upstream.InputContentPart{Type: "text", Text: t}
	}
	return []upstream.InputItem{{Kind: upstream.InputItemMessage, Role: role, Parts: parts}}
}

func convertToolUse(b messagesapi.ContentBlockParam, conv *correlate.Conversation) (upstream.InputItem, error) {
	callID, ok := lookupCallID(b.ID, conv)
	if !ok {
		callID = mintCallID()
		conv.Update("", []correlate.Binding{{CallID: callID, ToolUseID: b.ID, Name: b.Name}})
	}

	arguments := string(b.Input)
	if arguments == "" {
		arguments = "{}"
	}

	return upstream.InputItem{
		Kind:      upstream.InputItemFunctionCall,
		CallID:    callID,
		Name:      b.Name,
		Arguments: arguments,
	}, nil
}

func convertToolResult(b messagesapi.ContentBlockParam, conv *correlate.Conversation) (upstream.InputItem, error) {
	callID, ok := lookupCallID(b.ToolUseID, conv)
	if !ok {
		slog.Warn("no correlation for tool_result, falling back to downstream id", "tool_use_id", b.ToolUseID)
		callID = b.ToolUseID
	}

	output, err := b.ToolResultText()
	if err != nil {
		return upstream.InputItem{}, fmt.Errorf("decode tool_result content: %w", err)
	}

	return upstream.InputItem{
		Kind:   upstream.InputItemFunctionCallOutput,
		CallID: callID,
		Output: output,
	}, nil
}

func lookupCallID(toolUseID string, conv *correlate.Conversation) (string, bool) {
	binding, ok := conv.LookupByToolUseID(toolUseID)
	if !ok {
		return "", false
	}
	return binding.CallID, true
}

func convertImage(b messagesapi.ContentBlockParam) (upstream.InputItem, error) {
	if b.Source == nil {
		return upstream.InputItem{}, &UnsupportedImage{Kind: "<none>"}
	}

	var url string
	switch b.Source.Type {
	case "base64":
		url = fmt.Sprintf("data:%s;base64,%s", b.Source.MediaType, b.Source.Data)
	case "url":
		url = b.Source.URL
	default:
		return upstream.InputItem{}, &UnsupportedImage{Kind: b.Source.Type}
	}

	return upstream.InputItem{
		Kind: upstream.InputItemMessage,
		Role: string(messagesapi.RoleUser),
		Parts: []upstream.InputContentPart{
			{Type: "image", ImageURL: url},
		},
	}, nil
}

// postFilterUnmatchedCalls drops any function_call item whose call_id has no
// matching function_call_output in the same input list; the upstream rejects
// unpaired function calls.
func postFilterUnmatchedCalls(items []upstream.InputItem) []upstream.InputItem {
	hasOutput := make(map[string]bool)
	for _, it := range items {
		if it.Kind == upstream.InputItemFunctionCallOutput {
			hasOutput[it.CallID] = true
		}
	}

	out := make([]upstream.InputItem, 0, len(items))
	for _, it := range items {
		if it.Kind == upstream.InputItemFunctionCall && !hasOutput[it.CallID] {
			continue
		}
		out = append(out, it)
	}
	return out
}

func mintCallID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "call_" + base64.RawURLEncoding.EncodeToString(b[:])
}
