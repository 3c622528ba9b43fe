package upstream

import (
	"github.com/openai/openai-go/v3/responses"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
)

// EventKind enumerates the upstream Responses-API SSE event types this
// gateway's stream translator understands, per the specification's
// event-handling table.
type EventKind string

const (
	EventResponseCreated            EventKind = "response.created"
	EventOutputTextDelta            EventKind = "response.output_text.delta"
	EventOutputTextDone             EventKind = "response.output_text.done"
	EventOutputItemAdded            EventKind = "response.output_item.added"
	EventFunctionCallArgumentsDelta EventKind = "response.function_call_arguments.delta"
	EventFunctionCallArgumentsDone  EventKind = "response.function_call_arguments.done"
	EventOutputItemDone             EventKind = "response.output_item.done"
	EventContentPartAdded           EventKind = "response.content_part.added"
	EventContentPartDone            EventKind = "response.content_part.done"
	EventInProgress                 EventKind = "response.in_progress"
	EventWebSearchInProgress        EventKind = "response.web_search_call.in_progress"
	EventWebSearchSearching         EventKind = "response.web_search_call.searching"
	EventWebSearchCompleted         EventKind = "response.web_search_call.completed"
	EventFailed                     EventKind = "response.failed"
	EventIncomplete                 EventKind = "response.incomplete"
	EventError                      EventKind = "error"
	EventCompleted                  EventKind = "response.completed"
	EventUnknown                    EventKind = ""
)

// Event is a provider-neutral view of one Responses-API stream event. The
// stream translator (internal/translate) consumes only this type, never the
// openai-go SDK's union directly, so its state machine can be exercised in
// tests without constructing real SDK values.
type Event struct {
	Kind EventKind

	ResponseID string // response.created, response.completed

	ItemID string // output_item.added/done, function_call_arguments.*
	CallID string // output_item.added (function_call)
	Name   string // output_item.added (function_call), function_call_arguments.done

	TextDelta string // output_text.delta
	PartText  string // content_part.added/done materialized text

	ArgumentsDelta string // function_call_arguments.delta

	SearchSequence int // web_search_call.searching

	Status           string // response.completed: "completed" | "incomplete" | "failed"
	IncompleteReason string // response.completed incomplete_details.reason

	Usage messagesapi.Usage

	ErrorMessage string // failed / error
}

// FromSDK adapts one raw openai-go Responses stream event into an Event.
// Event kinds not named in the specification's table fall through to
// EventUnknown so the state machine can log-and-drop them uniformly.
func FromSDK(raw responses.ResponseStreamEventUnion) Event {
	switch EventKind(raw.Type) {
	case EventResponseCreated:
		created := raw.AsResponseCreated()
		return Event{Kind: EventResponseCreated, ResponseID: created.Response.ID}

	case EventOutputTextDelta:
		delta := raw.AsResponseOutputTextDelta()
		return Event{Kind: EventOutputTextDelta, ItemID: delta.ItemID, TextDelta: delta.Delta}

	case EventOutputTextDone:
		done := raw.AsResponseOutputTextDone()
		return Event{Kind: EventOutputTextDone, ItemID: done.ItemID}

	case EventContentPartAdded:
		part := raw.AsResponseContentPartAdded()
		return Event{Kind: EventContentPartAdded, ItemID: part.ItemID, PartText: part.Part.Text}

	case EventContentPartDone:
		part := raw.AsResponseContentPartDone()
		return Event{Kind: EventContentPartDone, ItemID: part.ItemID, PartText: part.Part.Text}

	case EventOutputItemAdded:
		item := raw.AsResponseOutputItemAdded()
		return Event{
			Kind:   EventOutputItemAdded,
			ItemID: item.Item.ID,
			CallID: item.Item.CallID,
			Name:   item.Item.Name,
		}

	case EventOutputItemDone:
		item := raw.AsResponseOutputItemDone()
		return Event{Kind: EventOutputItemDone, ItemID: item.Item.ID, CallID: item.Item.CallID}

	case EventFunctionCallArgumentsDelta:
		delta := raw.AsResponseFunctionCallArgumentsDelta()
		return Event{Kind: EventFunctionCallArgumentsDelta, ItemID: delta.ItemID, ArgumentsDelta: delta.Delta}

	case EventFunctionCallArgumentsDone:
		done := raw.AsResponseFunctionCallArgumentsDone()
		return Event{Kind: EventFunctionCallArgumentsDone, ItemID: done.ItemID, Name: done.Name}

	case EventInProgress:
		return Event{Kind: EventInProgress}

	case EventWebSearchInProgress:
		call := raw.AsResponseWebSearchCallInProgress()
		return Event{Kind: EventWebSearchInProgress, ItemID: call.ItemID}

	case EventWebSearchSearching:
		call := raw.AsResponseWebSearchCallSearching()
		return Event{Kind: EventWebSearchSearching, ItemID: call.ItemID, SearchSequence: int(call.SequenceNumber)}

	case EventWebSearchCompleted:
		call := raw.AsResponseWebSearchCallCompleted()
		return Event{Kind: EventWebSearchCompleted, ItemID: call.ItemID}

	case EventFailed:
		failed := raw.AsResponseFailed()
		msg := ""
		if failed.Response.Error.Message != "" {
			msg = failed.Response.Error.Message
		}
		return Event{Kind: EventFailed, ErrorMessage: msg}

	case EventIncomplete:
		incomplete := raw.AsResponseIncomplete()
		return Event{
			Kind:             EventIncomplete,
			Status:           string(incomplete.Response.Status),
			IncompleteReason: string(incomplete.Response.IncompleteDetails.Reason),
		}

	case EventError:
		errEvt := raw.AsError()
		return Event{Kind: EventError, ErrorMessage: errEvt.Message}

	case EventCompleted:
		completed := raw.AsResponseCompleted()
		usage := messagesapi.Usage{
			InputTokens:  completed.Response.Usage.InputTokens,
			OutputTokens: completed.Response.Usage.OutputTokens,
		}
		return Event{
			Kind:             EventCompleted,
			ResponseID:       completed.Response.ID,
			Status:           string(completed.Response.Status),
			IncompleteReason: string(completed.Response.IncompleteDetails.Reason),
			Usage:            usage,
		}

	default:
		return Event{Kind: EventUnknown}
	}
}
