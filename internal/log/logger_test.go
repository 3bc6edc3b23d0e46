package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{})

	if err := l.Append(LogEvent{Event: EventSessionOpened, Session: "s-1", Width: 80}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(LogEvent{Event: EventServerReady, Addr: "127.0.0.1:2222", Message: "ready"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", n, buf.String())
	}

	events, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Event != EventSessionOpened || events[0].Session != "s-1" || events[0].Width != 80 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[0].Level != "info" {
		t.Errorf("events[0].Level = %q, want info", events[0].Level)
	}
	if events[0].Time.IsZero() {
		t.Error("events[0].Time was not set")
	}
	if events[1].Addr != "127.0.0.1:2222" || events[1].Message != "ready" {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestAppendKeepsExplicitTime(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{})
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Append(LogEvent{Time: ts, Event: EventServerStopped}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	events, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !events[0].Time.Equal(ts) {
		t.Errorf("Time = %v, want %v", events[0].Time, ts)
	}
}

func TestEventLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{Level: "debug"})
	_ = l.Append(LogEvent{Event: EventHandlerFailed, Error: "boom"})
	_ = l.Append(LogEvent{Event: EventIdentityEphemeral})
	_ = l.Append(LogEvent{Event: EventCommandDispatched})

	events, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := []string{"error", "warn", "debug"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, lvl := range want {
		if events[i].Level != lvl {
			t.Errorf("events[%d].Level = %q, want %q", i, events[i].Level, lvl)
		}
	}
}

func TestLevelFiltersEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{Level: "warn"})
	_ = l.Append(LogEvent{Event: EventSessionOpened})
	_ = l.Append(LogEvent{Event: EventHandshakeFailed})

	events, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 1 || events[0].Event != EventHandshakeFailed {
		t.Errorf("events = %+v, want only handshake_failed", events)
	}
}

func TestAppendRejectsUnnamedEvent(t *testing.T) {
	if err := Nop().Append(LogEvent{}); err == nil {
		t.Error("expected error for event without a name")
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.jsonl")
	for i := 0; i < 2; i++ {
		l, closer, err := OpenFile(path, "info")
		if err != nil {
			t.Fatalf("OpenFile failed: %v", err)
		}
		_ = l.Append(LogEvent{Event: EventServerReady})
		_ = closer.Close()
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	events, err := ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2 (file must not be truncated)", len(events))
	}
}

func TestReadAllRejectsGarbage(t *testing.T) {
	if _, err := ReadAll(strings.NewReader("{not json}\n")); err == nil {
		t.Error("expected parse error")
	}
}
