package config

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SLOTBOOK_TEST_INT", "abc")
	if got := Int("SLOTBOOK_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("SLOTBOOK_TEST_INT", "42")
	if got := Int("SLOTBOOK_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestBoolAndDuration(t *testing.T) {
	t.Setenv("SLOTBOOK_TEST_BOOL", "off")
	if Bool("SLOTBOOK_TEST_BOOL", true) {
		t.Fatal("expected false for off")
	}
	t.Setenv("SLOTBOOK_TEST_DUR", "90s")
	if got := Duration("SLOTBOOK_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	t.Setenv("SLOTBOOK_TEST_DUR", "-1s")
	if got := Duration("SLOTBOOK_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("expected fallback for negative duration, got %s", got)
	}
}

func TestPortValidation(t *testing.T) {
	t.Setenv("SLOTBOOK_TEST_PORT", "70000")
	if _, err := Port("SLOTBOOK_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestList(t *testing.T) {
	t.Setenv("SLOTBOOK_TEST_LIST", " a, ,b ,")
	got := List("SLOTBOOK_TEST_LIST", "")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %#v", got)
	}
}
