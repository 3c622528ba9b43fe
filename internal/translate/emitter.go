package translate

import "github.com/relaykit/messages-gateway/internal/messagesapi"

// Emitter is the C4 contract the stream translator drives. The concrete
// implementation (the gateway's SSE writer) owns the HTTP response body and
// serializes every write; Emitter itself never blocks the translator on
// transport errors — a write after the transport closes is defined to be a
// silent no-op, observable only through Closed.
type Emitter interface {
	MessageStart(messageID, model string) error
	ContentBlockStartText(index int) error
	ContentBlockStartToolUse(index int, id, name string, input []byte) error
	ContentBlockDeltaText(index int, text string) error
	ContentBlockDeltaInputJSON(index int, partialJSON string) error
	ContentBlockStop(index int) error
	MessageDelta(stopReason messagesapi.StopReason, usage messagesapi.Usage) error
	MessageStop() error
	Ping() error
	Error(errType, message string) error
	Closed() bool
}
