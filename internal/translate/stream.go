package translate

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/relaykit/messages-gateway/internal/correlate"
	"github.com/relaykit/messages-gateway/internal/idgen"
	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

type blockKind int

const (
	blockText blockKind = iota
	blockTool
)

type block struct {
	kind      blockKind
	index     int
	completed bool

	toolUseID string
	name      string
}

// Session is the stream translator (C5): a per-request state machine that
// consumes upstream events and drives an Emitter to produce a single valid
// downstream SSE session.
type Session struct {
	emitter Emitter
	model   string

	messageID string

	blocks         []*block
	blocksByItemID map[string]*block
	currentText    int // index into blocks, or -1

	toolOpened bool
	usage      messagesapi.Usage
	responseID string
	bindings   []correlate.Binding

	observedCompletion bool
	completed          atomic.Bool

	stopPing chan struct{}
}

// NewSession creates a session bound to emitter, ready for Start.
func NewSession(emitter Emitter, model string) *Session {
	return &Session{
		emitter:        emitter,
		model:          model,
		blocksByItemID: make(map[string]*block),
		currentText:    -1,
		stopPing:       make(chan struct{}),
	}
}

// Start emits the session greeting (message_start, then one ping) and begins
// the periodic ping timer. Safe to call exactly once.
func (s *Session) Start(pingInterval time.Duration) {
	s.messageID = idgen.New("msg_")
	if err := s.emitter.MessageStart(s.messageID, s.model); err != nil {
		return
	}
	_ = s.emitter.Ping()

	go s.pingLoop(pingInterval)
}

func (s *Session) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPing:
			return
		case <-ticker.C:
			if s.completed.Load() || s.emitter.Closed() {
				continue
			}
			_ = s.emitter.Ping()
		}
	}
}

// Handle dispatches one upstream event. After the completed latch is set,
// every subsequent call is a dropped no-op (logged once per event).
func (s *Session) Handle(ev upstream.Event) {
	if s.completed.Load() {
		slog.Warn("dropping upstream event after session completed", "kind", ev.Kind)
		return
	}

	switch ev.Kind {
	case upstream.EventResponseCreated:
		s.responseID = ev.ResponseID
		s.openTextBlock()

	case upstream.EventOutputTextDelta:
		idx := s.resolveTextBlock()
		_ = s.emitter.ContentBlockDeltaText(idx, ev.TextDelta)

	case upstream.EventOutputTextDone:
		if s.currentText != -1 {
			s.closeBlock(s.blocks[s.currentText])
			s.currentText = -1
		}

	case upstream.EventOutputItemAdded:
		if ev.CallID == "" {
			return
		}
		b := s.openToolBlock(ev.ItemID, ev.CallID, ev.Name)
		_ = s.emitter.ContentBlockStartToolUse(b.index, b.toolUseID, b.name, []byte(`{}`))

	case upstream.EventFunctionCallArgumentsDelta:
		if b, ok := s.blocksByItemID[ev.ItemID]; ok {
			_ = s.emitter.ContentBlockDeltaInputJSON(b.index, ev.ArgumentsDelta)
		}

	case upstream.EventOutputItemDone:
		if b, ok := s.blocksByItemID[ev.ItemID]; ok && b.kind == blockTool && !b.completed {
			s.closeBlock(b)
		}

	case upstream.EventFunctionCallArgumentsDone:
		// No emission; retained for symmetry with the upstream event table.

	case upstream.EventContentPartAdded:
		if s.currentText == -1 {
			s.openTextBlock()
		}
		if ev.PartText != "" {
			_ = s.emitter.ContentBlockDeltaText(s.blocks[s.currentText].index, ev.PartText)
		}

	case upstream.EventContentPartDone:
		if s.currentText != -1 {
			if ev.PartText != "" {
				_ = s.emitter.ContentBlockDeltaText(s.blocks[s.currentText].index, ev.PartText)
			}
			s.closeBlock(s.blocks[s.currentText])
			s.currentText = -1
		}

	case upstream.EventInProgress:
		_ = s.emitter.Ping()

	case upstream.EventWebSearchInProgress:
		b := s.openToolBlock(ev.ItemID, "", "web_search")
		_ = s.emitter.ContentBlockStartToolUse(b.index, b.toolUseID, b.name, messagesapi.RawInput(map[string]string{"status": "in_progress"}))

	case upstream.EventWebSearchSearching:
		if b, ok := s.blocksByItemID[ev.ItemID]; ok {
			payload := messagesapi.RawInput(map[string]any{"status": "searching", "sequence": ev.SearchSequence})
			_ = s.emitter.ContentBlockDeltaInputJSON(b.index, string(payload))
		}

	case upstream.EventWebSearchCompleted:
		if b, ok := s.blocksByItemID[ev.ItemID]; ok && !b.completed {
			s.closeBlock(b)
		}

	case upstream.EventFailed, upstream.EventIncomplete, upstream.EventError:
		msg := ev.ErrorMessage
		if msg == "" {
			msg = "upstream stream error"
		}
		_ = s.emitter.Error("api_error", msg)
		s.completed.Store(true)
		close(s.stopPing)

	case upstream.EventCompleted:
		s.finishTurn(ev)

	default:
		slog.Warn("dropping unknown upstream event", "type", ev.Kind)
	}
}

func (s *Session) finishTurn(ev upstream.Event) {
	for _, b := range s.blocks {
		if !b.completed {
			s.closeBlock(b)
		}
	}

	stopReason := messagesapi.StopReasonEndTurn
	switch {
	case ev.Status == "incomplete" && ev.IncompleteReason == "max_output_tokens":
		stopReason = messagesapi.StopReasonMaxTokens
	case s.toolOpened:
		stopReason = messagesapi.StopReasonToolUse
	}

	s.usage = ev.Usage
	if ev.ResponseID != "" {
		s.responseID = ev.ResponseID
	}

	_ = s.emitter.MessageDelta(stopReason, s.usage)
	_ = s.emitter.MessageStop()

	s.observedCompletion = true
	s.completed.Store(true)
	close(s.stopPing)
}

func (s *Session) openTextBlock() {
	b := &block{kind: blockText, index: len(s.blocks)}
	s.blocks = append(s.blocks, b)
	s.currentText = b.index
	_ = s.emitter.ContentBlockStartText(b.index)
}

// resolveTextBlock returns the current text block's index, opening one from
// scratch if none is open (an upstream trace that skips response.created).
func (s *Session) resolveTextBlock() int {
	if s.currentText != -1 {
		return s.blocks[s.currentText].index
	}
	for i := len(s.blocks) - 1; i >= 0; i-- {
		if s.blocks[i].kind == blockText && !s.blocks[i].completed {
			s.currentText = i
			return s.blocks[i].index
		}
	}
	s.openTextBlock()
	return s.blocks[s.currentText].index
}

func (s *Session) openToolBlock(itemID, callID, name string) *block {
	toolUseID := idgen.New("toolu_")
	b := &block{kind: blockTool, index: len(s.blocks), toolUseID: toolUseID, name: name}
	s.blocks = append(s.blocks, b)
	s.blocksByItemID[itemID] = b
	s.toolOpened = true

	if callID != "" {
		s.bindings = append(s.bindings, correlate.Binding{CallID: callID, ToolUseID: toolUseID, Name: name})
	}
	return b
}

func (s *Session) closeBlock(b *block) {
	b.completed = true
	_ = s.emitter.ContentBlockStop(b.index)
}

// Finish stops the ping timer (if the session ended without observing
// response.completed) and returns the state the coordinator persists to the
// correlation store. observedCompletion tells the caller whether
// last_response_id should be updated at all; when it is false, the partial
// response id and bindings are discarded and zero values are returned.
func (s *Session) Finish() (responseID string, bindings []correlate.Binding, observedCompletion bool) {
	if s.completed.CompareAndSwap(false, true) {
		close(s.stopPing)
	}
	if !s.observedCompletion {
		return "", nil, false
	}
	return s.responseID, s.bindings, true
}
