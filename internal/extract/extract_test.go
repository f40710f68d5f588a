package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestFindOrdersByModTime(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	write(t, filepath.Join(dir, "a.log"), "a", now)
	write(t, filepath.Join(dir, "nested", "deep", "b.log"), "b", now.Add(-2*time.Hour))
	write(t, filepath.Join(dir, "nested", "c.log"), "c", now.Add(-time.Hour))
	write(t, filepath.Join(dir, "nested", "ignored.txt"), "x", now)
	os.MkdirAll(filepath.Join(dir, "dir.log"), 0700)

	got, err := Find(filepath.Join(dir, "**", "*.log"), filepath.Join(dir, "a.log"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "nested", "deep", "b.log"),
		filepath.Join(dir, "nested", "c.log"),
		filepath.Join(dir, "a.log"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFindBadPattern(t *testing.T) {
	if _, err := Find("[unclosed"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCombine(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	empty := filepath.Join(dir, "empty.log")
	write(t, a, "one\ntwo", now)
	write(t, b, "three\n", now)
	write(t, empty, "", now)

	var buf bytes.Buffer
	if err := Combine(&buf, []string{a, empty, b}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "one\ntwo\nthree\n" {
		t.Fatalf("combined = %q", buf.String())
	}
	if err := Combine(&buf, []string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
