package gatewayhttp

import (
	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/translate"
)

// MessagesEmitter is the C4 SSE Emitter: it turns typed downstream event
// values into wire frames through an SSEWriter. It implements
// translate.Emitter so the C5 state machine never touches the transport
// directly.
type MessagesEmitter struct {
	sse *SSEWriter
}

var _ translate.Emitter = (*MessagesEmitter)(nil)

// NewMessagesEmitter wraps sse as a translate.Emitter.
func NewMessagesEmitter(sse *SSEWriter) *MessagesEmitter {
	return &MessagesEmitter{sse: sse}
}

func (e *MessagesEmitter) write(eventType messagesapi.EventType, payload any) error {
	return e.sse.WriteEventData(string(eventType), payload)
}

func (e *MessagesEmitter) MessageStart(messageID, model string) error {
	return e.write(messagesapi.EventMessageStart, messagesapi.MessageStartEvent{
		Type: messagesapi.EventMessageStart,
		Message: messagesapi.Message{
			ID:      messageID,
			Type:    "message",
			Role:    messagesapi.RoleAssistant,
			Content: []messagesapi.ContentBlock{},
			Model:   model,
		},
	})
}

func (e *MessagesEmitter) ContentBlockStartText(index int) error {
	return e.write(messagesapi.EventContentBlockStart, messagesapi.ContentBlockStartEvent{
		Type:  messagesapi.EventContentBlockStart,
		Index: index,
		ContentBlock: messagesapi.ContentBlock{
			Type: messagesapi.ContentBlockTypeText,
			Text: "",
		},
	})
}

func (e *MessagesEmitter) ContentBlockStartToolUse(index int, id, name string, input []byte) error {
	return e.write(messagesapi.EventContentBlockStart, messagesapi.ContentBlockStartEvent{
		Type:  messagesapi.EventContentBlockStart,
		Index: index,
		ContentBlock: messagesapi.ContentBlock{
			Type:  messagesapi.ContentBlockTypeToolUse,
			ID:    id,
			Name:  name,
			Input: input,
		},
	})
}

func (e *MessagesEmitter) ContentBlockDeltaText(index int, text string) error {
	return e.write(messagesapi.EventContentBlockDelta, messagesapi.ContentBlockDeltaEvent{
		Type:  messagesapi.EventContentBlockDelta,
		Index: index,
		Delta: messagesapi.Delta{Type: messagesapi.DeltaTypeText, Text: text},
	})
}

func (e *MessagesEmitter) ContentBlockDeltaInputJSON(index int, partialJSON string) error {
	return e.write(messagesapi.EventContentBlockDelta, messagesapi.ContentBlockDeltaEvent{
		Type:  messagesapi.EventContentBlockDelta,
		Index: index,
		Delta: messagesapi.Delta{Type: messagesapi.DeltaTypeInputJSON, PartialJSON: partialJSON},
	})
}

func (e *MessagesEmitter) ContentBlockStop(index int) error {
	return e.write(messagesapi.EventContentBlockStop, messagesapi.ContentBlockStopEvent{
		Type:  messagesapi.EventContentBlockStop,
		Index: index,
	})
}

func (e *MessagesEmitter) MessageDelta(stopReason messagesapi.StopReason, usage messagesapi.Usage) error {
	return e.write(messagesapi.EventMessageDelta, messagesapi.MessageDeltaEvent{
		Type:  messagesapi.EventMessageDelta,
		Delta: messagesapi.MessageDeltaPayload{StopReason: stopReason},
		Usage: usage,
	})
}

func (e *MessagesEmitter) MessageStop() error {
	return e.write(messagesapi.EventMessageStop, messagesapi.MessageStopEvent{Type: messagesapi.EventMessageStop})
}

// Ping writes the bare empty-data keepalive frame; per the wire format it
// carries no "event:" line at all.
func (e *MessagesEmitter) Ping() error {
	return e.sse.WritePing()
}

func (e *MessagesEmitter) Error(errType, message string) error {
	return e.write(messagesapi.EventError, messagesapi.StreamErrorEvent{
		Type:  messagesapi.EventError,
		Error: messagesapi.ErrorDetail{Type: errType, Message: message},
	})
}

func (e *MessagesEmitter) Closed() bool {
	return e.sse.Closed()
}
