package translate

import (
	"testing"
	"time"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// fakeEmitter records every call it receives instead of writing SSE bytes,
// so a session's behavior can be asserted on directly.
type fakeEmitter struct {
	calls  []string
	closed bool

	textDeltas   map[int][]string
	jsonDeltas   map[int][]string
	toolStarts   map[int]string // index -> name
	stoppedIdx   []int
	stopReason   messagesapi.StopReason
	usage        messagesapi.Usage
	errType      string
	errMessage   string
	pings        int
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{
		textDeltas: make(map[int][]string),
		jsonDeltas: make(map[int][]string),
		toolStarts: make(map[int]string),
	}
}

func (f *fakeEmitter) MessageStart(messageID, model string) error {
	f.calls = append(f.calls, "message_start")
	return nil
}
func (f *fakeEmitter) ContentBlockStartText(index int) error {
	f.calls = append(f.calls, "block_start_text")
	return nil
}
func (f *fakeEmitter) ContentBlockStartToolUse(index int, id, name string, input []byte) error {
	f.calls = append(f.calls, "block_start_tool")
	f.toolStarts[index] = name
	return nil
}
func (f *fakeEmitter) ContentBlockDeltaText(index int, text string) error {
	f.calls = append(f.calls, "block_delta_text")
	f.textDeltas[index] = append(f.textDeltas[index], text)
	return nil
}
func (f *fakeEmitter) ContentBlockDeltaInputJSON(index int, partialJSON string) error {
	f.calls = append(f.calls, "block_delta_json")
	f.jsonDeltas[index] = append(f.jsonDeltas[index], partialJSON)
	return nil
}
func (f *fakeEmitter) ContentBlockStop(index int) error {
	f.calls = append(f.calls, "block_stop")
	f.stoppedIdx = append(f.stoppedIdx, index)
	return nil
}
func (f *fakeEmitter) MessageDelta(stopReason messagesapi.StopReason, usage messagesapi.Usage) error {
	f.calls = append(f.calls, "message_delta")
	f.stopReason = stopReason
	f.usage = usage
	return nil
}
func (f *fakeEmitter) MessageStop() error {
	f.calls = append(f.calls, "message_stop")
	return nil
}
func (f *fakeEmitter) Ping() error {
	f.pings++
	return nil
}
func (f *fakeEmitter) Error(errType, message string) error {
	f.errType, f.errMessage = errType, message
	f.calls = append(f.calls, "error")
	return nil
}
func (f *fakeEmitter) Closed() bool { return f.closed }

func startedSession(t *testing.T) (*Session, *fakeEmitter) {
	t.Helper()
	emitter := newFakeEmitter()
	s := NewSession(emitter, "gpt-4.1")
	s.Start(time.Hour) // long interval so the ping goroutine won't fire during the test
	return s, emitter
}

func TestSessionTextOnlyStream(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_1"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDelta, TextDelta: "Hel"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDelta, TextDelta: "lo"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDone})
	s.Handle(upstream.Event{Kind: upstream.EventCompleted, Status: "completed", ResponseID: "resp_1"})

	if got := e.textDeltas[0]; len(got) != 2 || got[0] != "Hel" || got[1] != "lo" {
		t.Fatalf("textDeltas[0] = %v, want [Hel lo]", got)
	}
	if len(e.stoppedIdx) != 1 || e.stoppedIdx[0] != 0 {
		t.Errorf("stoppedIdx = %v, want [0]", e.stoppedIdx)
	}
	if e.stopReason != messagesapi.StopReasonEndTurn {
		t.Errorf("stopReason = %q, want end_turn", e.stopReason)
	}

	responseID, bindings, observed := s.Finish()
	if responseID != "resp_1" || !observed {
		t.Errorf("Finish() = %q, %v, %v, want resp_1, [], true", responseID, bindings, observed)
	}
}

func TestSessionToolCallStreamSetsStopReasonAndBinding(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_2"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputItemAdded, ItemID: "item_1", CallID: "call_1", Name: "bash"})
	s.Handle(upstream.Event{Kind: upstream.EventFunctionCallArgumentsDelta, ItemID: "item_1", ArgumentsDelta: `{"cmd":`})
	s.Handle(upstream.Event{Kind: upstream.EventFunctionCallArgumentsDelta, ItemID: "item_1", ArgumentsDelta: `"ls"}`})
	s.Handle(upstream.Event{Kind: upstream.EventOutputItemDone, ItemID: "item_1", CallID: "call_1"})
	s.Handle(upstream.Event{Kind: upstream.EventCompleted, Status: "completed", ResponseID: "resp_2"})

	if e.toolStarts[1] != "bash" {
		t.Fatalf("toolStarts = %v, want bash at index 1 (after the opening text block)", e.toolStarts)
	}
	if got := e.jsonDeltas[1]; len(got) != 2 {
		t.Fatalf("jsonDeltas[1] = %v, want 2 partial deltas", got)
	}
	if e.stopReason != messagesapi.StopReasonToolUse {
		t.Errorf("stopReason = %q, want tool_use", e.stopReason)
	}

	_, bindings, _ := s.Finish()
	if len(bindings) != 1 || bindings[0].CallID != "call_1" {
		t.Fatalf("bindings = %+v, want a single call_1 binding", bindings)
	}
}

func TestSessionMixedTextThenToolStopsTextBlockBeforeToolBlock(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_3"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDelta, TextDelta: "thinking..."})
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDone})
	s.Handle(upstream.Event{Kind: upstream.EventOutputItemAdded, ItemID: "item_1", CallID: "call_1", Name: "bash"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputItemDone, ItemID: "item_1", CallID: "call_1"})
	s.Handle(upstream.Event{Kind: upstream.EventCompleted, Status: "completed"})

	if len(e.stoppedIdx) != 2 || e.stoppedIdx[0] != 0 || e.stoppedIdx[1] != 1 {
		t.Fatalf("stoppedIdx = %v, want text block (0) closed before tool block (1)", e.stoppedIdx)
	}
}

func TestSessionDisconnectBeforeCompletedLeavesObservedCompletionFalse(t *testing.T) {
	s, _ := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_4"})
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDelta, TextDelta: "partial"})
	// The client disconnects; the coordinator calls Finish without a completed event.

	responseID, bindings, observed := s.Finish()
	if observed {
		t.Errorf("observedCompletion = true, want false when response.completed was never seen")
	}
	if responseID != "" || bindings != nil {
		t.Errorf("Finish() = %q, %v, want zero values pre-completion", responseID, bindings)
	}
}

func TestSessionDropsEventsAfterCompletion(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_5"})
	s.Handle(upstream.Event{Kind: upstream.EventCompleted, Status: "completed", ResponseID: "resp_5"})

	callsBefore := len(e.calls)
	s.Handle(upstream.Event{Kind: upstream.EventOutputTextDelta, TextDelta: "too late"})

	if len(e.calls) != callsBefore {
		t.Errorf("an event after completion produced emitter calls: %v", e.calls[callsBefore:])
	}
}

func TestSessionErrorEventEmitsErrorAndLatchesCompletion(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_6"})
	s.Handle(upstream.Event{Kind: upstream.EventFailed, ErrorMessage: "upstream exploded"})

	if e.errType != "api_error" || e.errMessage != "upstream exploded" {
		t.Errorf("Error call = %q, %q", e.errType, e.errMessage)
	}

	// Finish should not double-close the ping channel (would panic) even
	// though the failure path already latched completion.
	_, _, observed := s.Finish()
	if observed {
		t.Errorf("observedCompletion = true after a failure, want false")
	}
}

func TestSessionContentPartAddedDoneRoundTrip(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_7"})
	// response.created already opened block 0; a content_part pair should
	// reuse it rather than opening a second text block.
	s.Handle(upstream.Event{Kind: upstream.EventContentPartAdded, PartText: "hello"})
	s.Handle(upstream.Event{Kind: upstream.EventContentPartDone, PartText: " world"})
	s.Handle(upstream.Event{Kind: upstream.EventCompleted, Status: "completed"})

	if got := e.textDeltas[0]; len(got) != 2 || got[0] != "hello" || got[1] != " world" {
		t.Fatalf("textDeltas[0] = %v, want [hello  world]", got)
	}
	if len(e.stoppedIdx) != 1 {
		t.Fatalf("stoppedIdx = %v, want the single block closed once by content_part.done", e.stoppedIdx)
	}
}

func TestSessionWebSearchToolLifecycle(t *testing.T) {
	s, e := startedSession(t)

	s.Handle(upstream.Event{Kind: upstream.EventResponseCreated, ResponseID: "resp_8"})
	s.Handle(upstream.Event{Kind: upstream.EventWebSearchInProgress, ItemID: "ws_1"})
	s.Handle(upstream.Event{Kind: upstream.EventWebSearchSearching, ItemID: "ws_1", SearchSequence: 1})
	s.Handle(upstream.Event{Kind: upstream.EventWebSearchCompleted, ItemID: "ws_1"})
	s.Handle(upstream.Event{Kind: upstream.EventCompleted, Status: "completed"})

	if e.toolStarts[1] != "web_search" {
		t.Fatalf("toolStarts = %v, want web_search at index 1", e.toolStarts)
	}
	if len(e.jsonDeltas[1]) != 1 {
		t.Fatalf("jsonDeltas[1] = %v, want one searching-status delta", e.jsonDeltas[1])
	}
	found := false
	for _, idx := range e.stoppedIdx {
		if idx == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("stoppedIdx = %v, want the web_search block (1) closed on completed", e.stoppedIdx)
	}
}
