package correlate

import (
	"testing"
	"time"
)

func TestConversationUpdateMergesBindingsAndPreservesResponseIDWhenEmpty(t *testing.T) {
	c := newConversation("conv-1", time.Now())

	c.Update("resp_1", []Binding{{CallID: "call_a", ToolUseID: "toolu_a", Name: "bash"}})
	if id, ok := c.LastResponseID(); !ok || id != "resp_1" {
		t.Fatalf("LastResponseID() = %q, %v, want resp_1, true", id, ok)
	}

	// Empty responseID must not clobber the parent pointer (the request
	// translator's mid-turn binding registration relies on this).
	c.Update("", []Binding{{CallID: "call_b", ToolUseID: "toolu_b", Name: "text_editor"}})
	if id, ok := c.LastResponseID(); !ok || id != "resp_1" {
		t.Fatalf("LastResponseID() after empty update = %q, %v, want resp_1, true", id, ok)
	}

	if b, ok := c.LookupByCallID("call_a"); !ok || b.ToolUseID != "toolu_a" {
		t.Errorf("LookupByCallID(call_a) = %+v, %v", b, ok)
	}
	if b, ok := c.LookupByToolUseID("toolu_b"); !ok || b.CallID != "call_b" {
		t.Errorf("LookupByToolUseID(toolu_b) = %+v, %v", b, ok)
	}

	bindings := c.Bindings()
	if len(bindings) != 2 {
		t.Fatalf("Bindings() returned %d entries, want 2", len(bindings))
	}
}

func TestConversationUpdateOverwritesOnCallIDCollision(t *testing.T) {
	c := newConversation("conv-1", time.Now())

	c.Update("resp_1", []Binding{{CallID: "call_a", ToolUseID: "toolu_old", Name: "bash"}})
	c.Update("resp_2", []Binding{{CallID: "call_a", ToolUseID: "toolu_new", Name: "bash"}})

	b, ok := c.LookupByCallID("call_a")
	if !ok || b.ToolUseID != "toolu_new" {
		t.Errorf("LookupByCallID(call_a) = %+v, %v, want toolu_new binding", b, ok)
	}
	if _, ok := c.LookupByToolUseID("toolu_old"); ok {
		t.Errorf("stale binding toolu_old is still resolvable")
	}
}

func TestStoreGetOrCreateReusesExistingConversation(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	defer s.Close()

	c1 := s.GetOrCreate("conv-1")
	s.Release(c1)
	c2 := s.GetOrCreate("conv-1")
	defer s.Release(c2)

	if c1 != c2 {
		t.Errorf("GetOrCreate returned distinct records for the same id")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreSweepEvictsOnlyIdleUnreferencedConversations(t *testing.T) {
	s := NewStore(10*time.Minute, time.Hour)
	defer s.Close()

	base := time.Now()
	s.now = func() time.Time { return base }

	held := s.GetOrCreate("held")   // stays referenced
	idle := s.GetOrCreate("idle")   // released, will go stale
	s.Release(idle)

	// Advance the clock past the TTL and sweep manually (the background
	// loop's interval is set to an hour so it won't fire during the test).
	s.now = func() time.Time { return base.Add(11 * time.Minute) }
	s.sweep()

	if s.Len() != 1 {
		t.Fatalf("Len() = %d after sweep, want 1 (held survives, idle evicted)", s.Len())
	}
	if _, ok := s.conversations["held"]; !ok {
		t.Errorf("held conversation was evicted despite an outstanding reference")
	}
	if _, ok := s.conversations["idle"]; ok {
		t.Errorf("idle conversation was not evicted past its TTL")
	}

	s.Release(held)
}

func TestStoreDestroyRemovesRegardlessOfTTL(t *testing.T) {
	s := NewStore(time.Hour, time.Hour)
	defer s.Close()

	c := s.GetOrCreate("conv-1")
	s.Release(c)
	s.Destroy("conv-1")

	if s.Len() != 0 {
		t.Errorf("Len() = %d after Destroy, want 0", s.Len())
	}
}
