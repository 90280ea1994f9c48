package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

// captureSink records every delivered event.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// gateSink blocks deliveries until released.
type gateSink struct {
	release chan struct{}
	seen    chan Event
}

func (s *gateSink) Emit(_ context.Context, event Event) {
	<-s.release
	s.seen <- event
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &captureSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}

	// A nil dispatcher is inert but safe.
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{
			EventType: "login_success",
			UserID:    string(rune('a' + i)),
		})
	}
	d.Close()

	if sink.count() != 5 {
		t.Fatalf("expected 5 events, got %d", sink.count())
	}
	for i, event := range sink.events {
		if event.UserID != string(rune('a'+i)) {
			t.Fatalf("event %d out of order: %q", i, event.UserID)
		}
	}
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 32; i++ {
		d.Emit(context.Background(), Event{EventType: "logout"})
	}
	d.Close()
	d.Close() // idempotent

	if sink.count() != 32 {
		t.Fatalf("close lost events: got %d of 32", sink.count())
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{
		release: make(chan struct{}),
		seen:    make(chan Event, 8),
	}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the relay, second fills the buffer, the rest drop.
	for i := 0; i < 6; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure"})
	}

	deadline := time.After(2 * time.Second)
	for d.Dropped() < 4 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 4 drops, got %d", d.Dropped())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	d.Emit(context.Background(), Event{EventType: "login_success"})
	if sink.count() != 0 {
		t.Fatal("emit after close delivered an event")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EventType: "login_success",
		UserID:    "u1",
		Success:   true,
		Metadata:  map[string]string{"strategy": "email_password"},
	})

	line := strings.TrimSpace(buf.String())
	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("sink wrote invalid JSON: %v", err)
	}
	if decoded.EventType != "login_success" || decoded.UserID != "u1" || !decoded.Success {
		t.Fatalf("unexpected event %+v", decoded)
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), Event{EventType: "logout"})

	select {
	case event := <-sink.Events():
		if event.EventType != "logout" {
			t.Fatalf("unexpected event %+v", event)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}
