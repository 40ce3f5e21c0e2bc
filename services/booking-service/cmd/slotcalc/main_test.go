package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const nyFixture = `{
	"timezone": "America/New_York",
	"minimum_notice_minutes": 0,
	"rules": [{"weekday": "monday", "start": "09:00", "end": "12:00", "enabled": true}],
	"overrides": [{"date": "2025-03-04", "is_blocked": true}],
	"bookings": [{"start": "2025-03-03T15:00:00Z", "end": "2025-03-03T15:30:00Z"}]
}`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	if err := app.Run(append([]string{"slotcalc"}, args...)); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return out.String()
}

func TestSlotsCommand(t *testing.T) {
	path := writeFixture(t, nyFixture)
	out := run(t, "slots", "-f", path, "--date", "2025-03-03", "--now", "2025-03-01T00:00:00Z", "--tz", "Europe/London")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// 09:00-12:00 holds 11 starts; the 10:00 booking removes 09:45 and 10:00 and 10:15.
	if len(lines) != 8 {
		t.Fatalf("expected 8 slots, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "2025-03-03T14:00:00Z  America/New_York 09:00-09:30  Europe/London 2025-03-03 14:00") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if strings.Contains(out, "T15:00:00Z") {
		t.Fatalf("booked start listed:\n%s", out)
	}
}

func TestSlotsCommandAllMarksTaken(t *testing.T) {
	path := writeFixture(t, nyFixture)
	out := run(t, "slots", "-f", path, "--date", "2025-03-03", "--now", "2025-03-01T00:00:00Z", "--all")
	if got := strings.Count(out, "(taken)"); got != 3 {
		t.Fatalf("expected 3 taken candidates, got %d:\n%s", got, out)
	}
}

func TestSlotsCommandBlockedDate(t *testing.T) {
	path := writeFixture(t, nyFixture)
	if out := run(t, "slots", "-f", path, "--date", "2025-03-04", "--now", "2025-03-01T00:00:00Z"); out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestDatesCommand(t *testing.T) {
	path := writeFixture(t, nyFixture)
	out := run(t, "dates", "-f", path, "--now", "2025-03-01T00:00:00Z")
	if !strings.Contains(out, "2025-03-03  8\n") {
		t.Fatalf("expected monday summary, got:\n%s", out)
	}
	if strings.Contains(out, "2025-03-04") {
		t.Fatalf("blocked tuesday must not be listed:\n%s", out)
	}
}

func TestFixtureRejectsUnknownWeekday(t *testing.T) {
	f, err := readFixture(strings.NewReader(`{"rules":[{"weekday":"someday","start":"09:00","end":"10:00","enabled":true}]}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := f.input(time.Now()); err == nil {
		t.Fatal("expected weekday error")
	}
}
