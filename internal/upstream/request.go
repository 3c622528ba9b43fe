package upstream

import (
	"encoding/json"

	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
)

// InputItemKind discriminates the entries of an UpstreamRequest's Input list.
type InputItemKind string

const (
	InputItemMessage            InputItemKind = "message"
	InputItemFunctionCall       InputItemKind = "function_call"
	InputItemFunctionCallOutput InputItemKind = "function_call_output"
)

// InputContentPart is one piece of a multi-part message (text or image),
// used for a user text buffer of more than one part and for the single
// part of an image message.
type InputContentPart struct {
	Type     string // "text" or "image"
	Text     string
	ImageURL string
}

// InputItem is a provider-neutral view of one entry in a Responses-API
// input list, built by the request translator (C2) and turned into real
// openai-go param types only at the point of the outgoing call.
type InputItem struct {
	Kind InputItemKind

	// message
	Role  string
	Text  string
	Parts []InputContentPart

	// function_call
	CallID    string
	Name      string
	Arguments string

	// function_call_output
	Output string
}

// ToolKind discriminates UpstreamTool variants.
type ToolKind string

const (
	ToolKindFunction  ToolKind = "function"
	ToolKindWebSearch ToolKind = "web_search"
)

// UpstreamTool is a provider-neutral tool definition.
type UpstreamTool struct {
	Kind        ToolKind
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolChoiceMode selects how the model must use tools.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceNamed    ToolChoiceMode = "tool"
)

// UpstreamToolChoice is a provider-neutral tool_choice directive.
type UpstreamToolChoice struct {
	Mode ToolChoiceMode
	Name string // set when Mode == ToolChoiceNamed
}

// UpstreamRequest is the provider-neutral request the request translator
// (C2) builds. BuildParams converts it into the real SDK call.
type UpstreamRequest struct {
	Model              string
	Instructions       string
	Input              []InputItem
	Tools              []UpstreamTool
	ToolChoice         *UpstreamToolChoice
	MaxOutputTokens    int64
	TopP               *float64
	Temperature        *float64
	PreviousResponseID string
	Stream             bool
}

// BuildParams converts an UpstreamRequest into openai-go Responses API
// call parameters.
func BuildParams(req UpstreamRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildInputList(req.Input),
		},
	}

	if req.Instructions != "" {
		params.Instructions = param.NewOpt(req.Instructions)
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = param.NewOpt(req.MaxOutputTokens)
	}
	if req.TopP != nil {
		params.TopP = param.NewOpt(*req.TopP)
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.PreviousResponseID != "" {
		params.PreviousResponseID = param.NewOpt(req.PreviousResponseID)
	}

	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	if req.ToolChoice != nil {
		params.ToolChoice = buildToolChoice(*req.ToolChoice)
	}

	return params
}

func buildInputList(items []InputItem) responses.ResponseInputParam {
	out := make(responses.ResponseInputParam, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case InputItemMessage:
			out = append(out, responses.ResponseInputItemUnionParam{
				OfMessage: &responses.EasyInputMessageParam{
					Role:    responses.EasyInputMessageRole(item.Role),
					Content: buildMessageContent(item),
				},
			})
		case InputItemFunctionCall:
			out = append(out, responses.ResponseInputItemUnionParam{
				OfFunctionCall: &responses.ResponseFunctionToolCallParam{
					CallID:    item.CallID,
					Name:      item.Name,
					Arguments: item.Arguments,
				},
			})
		case InputItemFunctionCallOutput:
			out = append(out, responses.ResponseInputItemUnionParam{
				OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
					CallID: item.CallID,
					Output: responses.ResponseInputItemFunctionCallOutputOutputUnionParam{
						OfString: param.NewOpt(item.Output),
					},
				},
			})
		}
	}
	return out
}

func buildMessageContent(item InputItem) responses.EasyInputMessageContentUnionParam {
	if len(item.Parts) == 0 {
		return responses.EasyInputMessageContentUnionParam{
			OfString: param.NewOpt(item.Text),
		}
	}

	parts := make(responses.ResponseInputMessageContentListParam, 0, len(item.Parts))
	for _, p := range item.Parts {
		switch p.Type {
		case "text":
			parts = append(parts, responses.ResponseInputContentUnionParam{
				OfInputText: &responses.ResponseInputTextParam{Text: p.Text},
			})
		case "image":
			parts = append(parts, responses.ResponseInputContentUnionParam{
				OfInputImage: &responses.ResponseInputImageParam{
					ImageURL: param.NewOpt(p.ImageURL),
					Detail:   responses.ResponseInputImageDetailAuto,
				},
			})
		}
	}
	return responses.EasyInputMessageContentUnionParam{OfInputItemContentList: parts}
}

func buildTools(tools []UpstreamTool) []responses.ToolUnionParam {
	out := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		switch t.Kind {
		case ToolKindWebSearch:
			out = append(out, responses.ToolUnionParam{
				OfWebSearch: &responses.WebSearchToolParam{
					Type: responses.WebSearchToolTypeWebSearch,
				},
			})
		default:
			var schema map[string]any
			_ = json.Unmarshal(t.Parameters, &schema)
			out = append(out, responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        t.Name,
					Description: param.NewOpt(t.Description),
					Parameters:  schema,
					Strict:      param.NewOpt(true),
				},
			})
		}
	}
	return out
}

func buildToolChoice(choice UpstreamToolChoice) responses.ResponseNewParamsToolChoiceUnion {
	switch choice.Mode {
	case ToolChoiceRequired:
		return responses.ResponseNewParamsToolChoiceUnion{OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptionsRequired)}
	case ToolChoiceNone:
		return responses.ResponseNewParamsToolChoiceUnion{OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptionsNone)}
	case ToolChoiceNamed:
		return responses.ResponseNewParamsToolChoiceUnion{
			OfFunctionTool: &responses.ToolChoiceFunctionParam{Name: choice.Name},
		}
	default:
		return responses.ResponseNewParamsToolChoiceUnion{OfToolChoiceMode: param.NewOpt(responses.ToolChoiceOptionsAuto)}
	}
}
