package translate

import (
	"testing"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

func TestTranslateResponseOrdersTextBeforeToolUse(t *testing.T) {
	result := upstream.ResponseResult{
		Status: "completed",
		Items: []upstream.OutputItem{
			{Kind: upstream.OutputItemFunctionCall, CallID: "call_1", Name: "bash", Arguments: `{"cmd":"ls"}`},
			{Kind: upstream.OutputItemMessage, Text: "here you go"},
		},
	}

	msg, bindings := TranslateResponse(result, "gpt-4.1")

	if len(msg.Content) != 2 {
		t.Fatalf("Content = %+v, want 2 blocks", msg.Content)
	}
	if msg.Content[0].Type != messagesapi.ContentBlockTypeText || msg.Content[0].Text != "here you go" {
		t.Errorf("first block = %+v, want the text block first regardless of upstream order", msg.Content[0])
	}
	if msg.Content[1].Type != messagesapi.ContentBlockTypeToolUse || msg.Content[1].Name != "bash" {
		t.Errorf("second block = %+v, want the tool_use block", msg.Content[1])
	}
	if msg.StopReason != messagesapi.StopReasonToolUse {
		t.Errorf("StopReason = %q, want tool_use", msg.StopReason)
	}
	if len(bindings) != 1 || bindings[0].CallID != "call_1" || bindings[0].ToolUseID != msg.Content[1].ID {
		t.Errorf("bindings = %+v, want a binding matching the minted tool_use id", bindings)
	}
}

func TestTranslateResponseStopReasonMaxTokens(t *testing.T) {
	result := upstream.ResponseResult{
		Status:           "incomplete",
		IncompleteReason: "max_output_tokens",
		Items:            []upstream.OutputItem{{Kind: upstream.OutputItemMessage, Text: "cut off"}},
	}

	msg, _ := TranslateResponse(result, "gpt-4.1")

	if msg.StopReason != messagesapi.StopReasonMaxTokens {
		t.Errorf("StopReason = %q, want max_tokens", msg.StopReason)
	}
}

func TestTranslateResponseEndTurnWithNoToolUse(t *testing.T) {
	result := upstream.ResponseResult{
		Status: "completed",
		Items:  []upstream.OutputItem{{Kind: upstream.OutputItemMessage, Text: "plain answer"}},
	}

	msg, bindings := TranslateResponse(result, "gpt-4.1")

	if msg.StopReason != messagesapi.StopReasonEndTurn {
		t.Errorf("StopReason = %q, want end_turn", msg.StopReason)
	}
	if len(bindings) != 0 {
		t.Errorf("bindings = %+v, want none for a text-only turn", bindings)
	}
	if len(msg.Content) != 1 || msg.Content[0].Text != "plain answer" {
		t.Fatalf("Content = %+v", msg.Content)
	}
}

func TestTranslateResponseInvalidToolArgumentsFallBackToEmptyObject(t *testing.T) {
	result := upstream.ResponseResult{
		Status: "completed",
		Items: []upstream.OutputItem{
			{Kind: upstream.OutputItemFunctionCall, CallID: "call_1", Name: "bash", Arguments: "not json"},
		},
	}

	msg, _ := TranslateResponse(result, "gpt-4.1")

	if len(msg.Content) != 1 {
		t.Fatalf("Content = %+v, want a single tool_use block", msg.Content)
	}
	if string(msg.Content[0].Input) != "{}" {
		t.Errorf("Input = %s, want fallback empty object", msg.Content[0].Input)
	}
}

func TestTranslateResponseConcatenatesMultipleMessageItems(t *testing.T) {
	result := upstream.ResponseResult{
		Status: "completed",
		Items: []upstream.OutputItem{
			{Kind: upstream.OutputItemMessage, Text: "part one "},
			{Kind: upstream.OutputItemMessage, Text: "part two"},
		},
	}

	msg, _ := TranslateResponse(result, "gpt-4.1")

	if len(msg.Content) != 1 || msg.Content[0].Text != "part one part two" {
		t.Fatalf("Content = %+v, want a single concatenated text block", msg.Content)
	}
}
