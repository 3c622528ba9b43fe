package translate

import (
	"encoding/json"

	"github.com/relaykit/messages-gateway/internal/correlate"
	"github.com/relaykit/messages-gateway/internal/idgen"
	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// TranslateResponse is the response translator (C3): it walks a completed
// upstream response and produces a downstream Message plus the bindings
// this turn's tool calls need registered in the correlation store.
func TranslateResponse(result upstream.ResponseResult, model string) (messagesapi.Message, []correlate.Binding) {
	var (
		text     string
		blocks   []messagesapi.ContentBlock
		bindings []correlate.Binding
	)

	for _, item := range result.Items {
		switch item.Kind {
		case upstream.OutputItemMessage:
			text += item.Text

		case upstream.OutputItemFunctionCall:
			toolUseID := idgen.New("toolu_")

			var input json.RawMessage
			if json.Valid([]byte(item.Arguments)) {
				input = json.RawMessage(item.Arguments)
			} else {
				input = json.RawMessage(`{}`)
			}

			blocks = append(blocks, messagesapi.ContentBlock{
				Type:  messagesapi.ContentBlockTypeToolUse,
				ID:    toolUseID,
				Name:  item.Name,
				Input: input,
			})
			bindings = append(bindings, correlate.Binding{CallID: item.CallID, ToolUseID: toolUseID, Name: item.Name})
		}
	}

	if text != "" {
		blocks = append([]messagesapi.ContentBlock{{Type: messagesapi.ContentBlockTypeText, Text: text}}, blocks...)
	}

	stopReason := messagesapi.StopReasonEndTurn
	switch {
	case result.Status == "incomplete" && result.IncompleteReason == "max_output_tokens":
		stopReason = messagesapi.StopReasonMaxTokens
	case hasToolUse(blocks):
		stopReason = messagesapi.StopReasonToolUse
	}

	msg := messagesapi.Message{
		ID:         idgen.New("msg_"),
		Type:       "message",
		Role:       messagesapi.RoleAssistant,
		Content:    blocks,
		Model:      model,
		StopReason: stopReason,
		Usage:      result.Usage,
	}
	return msg, bindings
}

func hasToolUse(blocks []messagesapi.ContentBlock) bool {
	for _, b := range blocks {
		if b.Type == messagesapi.ContentBlockTypeToolUse {
			return true
		}
	}
	return false
}
