package kafkax

import (
	"testing"
	"time"
)

func TestNewMessageRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	msg := NewMessage("prod.", EventMeta{EventID: "evt-1", EventType: "booking.created.v1", OccurredAt: at}, "bk-1", []byte(`{}`))
	if msg.Topic != "prod.booking.created.v1" {
		t.Fatalf("unexpected topic %q", msg.Topic)
	}
	if string(msg.Key) != "bk-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}

	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != "booking.created.v1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if !meta.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at %s, got %s", at, meta.OccurredAt)
	}
}

func TestExtractEventMetaFallbacks(t *testing.T) {
	msg := NewMessage("", EventMeta{}, "key-1", nil)
	msg.Headers = nil
	msg.Topic = "booking.cancelled.v1"
	meta := ExtractEventMeta(msg)
	if meta.EventID != "key-1" || meta.EventType != "booking.cancelled.v1" {
		t.Fatalf("unexpected fallbacks %+v", meta)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" a:9092, ,b:9092")
	if len(got) != 2 || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %#v", got)
	}
}
