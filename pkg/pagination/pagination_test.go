package pagination

import (
	"testing"
	"time"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("expected default limit for negative, got %d", got)
	}
	if got := NormalizeLimit(5000); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := NormalizeLimit(40); got != 40 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 123456789, time.UTC), ID: "req-abc-123"}

	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if out == nil {
		t.Fatal("expected cursor")
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursor_Empty(t *testing.T) {
	cursor, err := ParseCursor("  ")
	if err != nil || cursor != nil {
		t.Fatalf("expected nil cursor for blank input, got %v %v", cursor, err)
	}
}

func TestParseCursor_Garbage(t *testing.T) {
	if _, err := ParseCursor("%%%not-base64%%%"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseCursor("bm8tcGlwZXM"); err == nil {
		t.Fatal("expected format error for payload without separator")
	}
}
