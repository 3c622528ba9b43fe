package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventLog appends one JSON object per line for every upstream/downstream
// event the gateway observes. It exists purely for offline debugging of
// stream translation issues; nothing in the gateway reads it back.
type EventLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewEventLog opens (creating if necessary) a dated JSONL file under dir.
// A nil *EventLog is a valid no-op logger, so callers can construct one
// unconditionally and skip it when LOG_EVENTS is disabled.
func NewEventLog(dir string) (*EventLog, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := fmt.Sprintf("events-%s.jsonl", time.Now().UTC().Format("20060102"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &EventLog{file: f}, nil
}

// Record appends a single event line. Marshal failures are swallowed;
// this is best-effort diagnostics, never a request-path dependency.
func (l *EventLog) Record(direction, conversationID string, event any) {
	if l == nil {
		return
	}

	payload := struct {
		Time           time.Time `json:"time"`
		Direction      string    `json:"direction"`
		ConversationID string    `json:"conversation_id,omitempty"`
		Event          any       `json:"event"`
	}{
		Time:           time.Now().UTC(),
		Direction:      direction,
		ConversationID: conversationID,
		Event:          event,
	}

	line, err := json.Marshal(payload)
	if err != nil {
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.Write(line)
}

// Close closes the underlying file. Safe to call on a nil *EventLog.
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}
