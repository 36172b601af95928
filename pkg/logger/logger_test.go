package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithFields_AccumulateOnContext(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithUserID(ctx, "user-1")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if entry["request_id"] != "req-1" {
		t.Fatalf("missing request_id: %v", entry)
	}
	if entry["user_id"] != "user-1" {
		t.Fatalf("missing user_id: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("expected info for empty, got %v", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", got)
	}
}
