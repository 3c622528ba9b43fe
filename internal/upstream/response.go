package upstream

import (
	"github.com/openai/openai-go/v3/responses"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
)

// OutputItemKind discriminates ResponseResult.Items entries.
type OutputItemKind string

const (
	OutputItemMessage      OutputItemKind = "message"
	OutputItemFunctionCall OutputItemKind = "function_call"
)

// OutputItem is a provider-neutral view of one item in a completed
// response's output list.
type OutputItem struct {
	Kind OutputItemKind

	// message
	Text string

	// function_call
	CallID    string
	Name      string
	Arguments string
}

// ResponseResult is a provider-neutral view of a completed (non-streaming)
// Responses API call, consumed by the response translator (C3).
type ResponseResult struct {
	ID               string
	Status           string
	IncompleteReason string
	Items            []OutputItem
	Usage            messagesapi.Usage
}

// ConvertResponse adapts a real openai-go Response into a ResponseResult.
func ConvertResponse(resp *responses.Response) ResponseResult {
	result := ResponseResult{
		ID:     resp.ID,
		Status: string(resp.Status),
		Usage: messagesapi.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	if resp.IncompleteDetails.Reason != "" {
		result.IncompleteReason = string(resp.IncompleteDetails.Reason)
	}

	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			msg := item.AsMessage()
			var text string
			for _, part := range msg.Content {
				if part.Type == "output_text" {
					text += part.AsOutputText().Text
				}
			}
			result.Items = append(result.Items, OutputItem{Kind: OutputItemMessage, Text: text})

		case "function_call":
			call := item.AsFunctionCall()
			result.Items = append(result.Items, OutputItem{
				Kind:      OutputItemFunctionCall,
				CallID:    call.CallID,
				Name:      call.Name,
				Arguments: call.Arguments,
			})
		}
	}

	return result
}
