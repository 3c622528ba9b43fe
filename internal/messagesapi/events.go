package messagesapi

import "encoding/json"

// EventType names the SSE "event:" line for each downstream stream event.
type EventType string

const (
	EventMessageStart      EventType = "message_start"
	EventContentBlockStart EventType = "content_block_start"
	EventContentBlockDelta EventType = "content_block_delta"
	EventContentBlockStop  EventType = "content_block_stop"
	EventMessageDelta      EventType = "message_delta"
	EventMessageStop       EventType = "message_stop"
	EventPing              EventType = "ping"
	EventError             EventType = "error"
)

// MessageStartEvent opens a session, echoing the (as-yet-empty) message shell.
type MessageStartEvent struct {
	Type    EventType `json:"type"`
	Message Message   `json:"message"`
}

// ContentBlockStartEvent opens a new content block at Index.
type ContentBlockStartEvent struct {
	Type         EventType    `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

// DeltaType discriminates the payload carried by a content_block_delta.
type DeltaType string

const (
	DeltaTypeText       DeltaType = "text_delta"
	DeltaTypeInputJSON  DeltaType = "input_json_delta"
)

// Delta is the tagged union of the two delta shapes this gateway emits.
type Delta struct {
	Type        DeltaType `json:"type"`
	Text        string    `json:"text,omitempty"`
	PartialJSON string    `json:"partial_json,omitempty"`
}

// ContentBlockDeltaEvent appends to the block at Index.
type ContentBlockDeltaEvent struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`
	Delta Delta     `json:"delta"`
}

// ContentBlockStopEvent closes the block at Index. It must be paired with
// exactly one prior ContentBlockStartEvent at the same Index.
type ContentBlockStopEvent struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`
}

// MessageDeltaPayload carries the fields that change at the end of a turn.
type MessageDeltaPayload struct {
	StopReason   StopReason `json:"stop_reason"`
	StopSequence *string    `json:"stop_sequence"`
}

// MessageDeltaEvent precedes MessageStopEvent and carries the final stop
// reason and cumulative usage.
type MessageDeltaEvent struct {
	Type  EventType           `json:"type"`
	Delta MessageDeltaPayload `json:"delta"`
	Usage Usage               `json:"usage"`
}

// MessageStopEvent is always the final event of a session.
type MessageStopEvent struct {
	Type EventType `json:"type"`
}

// PingEvent keeps idle connections alive. Its data payload is empty; the SSE
// emitter special-cases it to omit the "event:" line entirely.
type PingEvent struct {
	Type EventType `json:"type"`
}

// StreamErrorEvent reports an unrecoverable upstream failure mid-stream.
type StreamErrorEvent struct {
	Type  EventType   `json:"type"`
	Error ErrorDetail `json:"error"`
}

// RawInput marshals v as json.RawMessage, defaulting to an empty object on
// failure so a content_block never carries a nil Input.
func RawInput(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
