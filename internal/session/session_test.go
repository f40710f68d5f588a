package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCounterIncrementsPerLaunch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.yaml")
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for want := 1; want <= 3; want++ {
		c, err := Begin(path, now)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.CurrentSessionNumber(); got != want {
			t.Fatalf("launch %d: session %d", want, got)
		}
		now = now.Add(time.Hour)
	}
}

func TestCounterRejectsCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("session: [nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Begin(path, time.Now()); err == nil {
		t.Fatal("expected parse error")
	}

	if err := os.WriteFile(path, []byte("session: -4\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Begin(path, time.Now()); err == nil {
		t.Fatal("expected negative session error")
	}
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("Now = %v", got)
	}
}

func TestStatic(t *testing.T) {
	var p Provider = Static(5)
	if p.CurrentSessionNumber() != 5 {
		t.Fatal("static provider changed number")
	}
}
