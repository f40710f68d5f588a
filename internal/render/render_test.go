package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/repository"
)

var epoch = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func sample() []entry.Record {
	v := entry.MustParseVersion("1.2.0")
	return []entry.Record{
		&entry.Log{
			Fields: entry.Fields{
				Date: epoch, Label: "net", Source: "app", File: "main.go", Function: "main",
				Line: 3, SessionNumber: 1, Version: v,
				Metadata: metadata.Map{
					"status": metadata.Scalar("503"),
					"tags":   metadata.List(metadata.String("a")),
				},
			},
			Level:   entry.Error,
			Message: "request failed",
		},
		&entry.Signpost{
			Fields: entry.Fields{Date: epoch.Add(time.Second), Label: "perf", SessionNumber: 1, Version: v},
			Marker: entry.Begin,
			ID:     "abc",
			Group:  "load",
		},
		&entry.Log{
			Fields:  entry.Fields{Date: epoch.Add(time.Hour), Label: "db", SessionNumber: 2, Version: v},
			Level:   entry.Info,
			Message: "reconnected",
		},
	}
}

func TestTextRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, Options{}).Records(sample()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"2026-10-16 10:00:00.000 #1 v1.2.0 ERROR    [net] request failed status=503 tags=[\"a\"]",
		"2026-10-16 10:00:01.000 #1 v1.2.0 BEGIN    [perf] load begin id=abc",
		"2026-10-16 11:00:00.000 #2 v1.2.0 INFO     [db] reconnected",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), strings.Join(want, "\n"))
	}
}

func TestTextClipping(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, Options{Width: 30}).Records(sample())
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		if len([]rune(line)) > 30 {
			t.Fatalf("line not clipped: %q", line)
		}
	}
}

func TestJSONRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, Options{Format: JSON}).Records(sample()); err != nil {
		t.Fatal(err)
	}
	var views []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("got %d views", len(views))
	}
	first := views[0]
	if first["kind"] != "log" || first["level"] != "error" || first["session"] != float64(1) {
		t.Fatalf("first = %v", first)
	}
	md := first["metadata"].(map[string]any)
	if md["status"] != float64(503) {
		t.Fatalf("scalar metadata must stay numeric: %v", md["status"])
	}
	if views[1]["marker"] != "begin" || views[1]["group"] != "load" {
		t.Fatalf("signpost = %v", views[1])
	}
	if _, ok := views[2]["metadata"]; ok {
		t.Fatal("empty metadata must be omitted")
	}
}

func TestGroups(t *testing.T) {
	groups := repository.GroupRecords(sample(), repository.FieldLabel, repository.AlphaAsc)

	var buf bytes.Buffer
	NewPrinter(&buf, Options{}).Groups(repository.FieldLabel, groups)
	want := "label\n  db    1\n  net   1\n  perf  1\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	NewPrinter(&buf, Options{Format: JSON}).Groups(repository.FieldGroup, nil)
	if !strings.Contains(buf.String(), `"groups": []`) {
		t.Fatalf("json groups = %s", buf.String())
	}
}

func TestSessions(t *testing.T) {
	headers := []entry.Header{
		{SessionNumber: 1, Version: entry.MustParseVersion("1.2"), Params: []string{"Device: rig"}},
		{SessionNumber: 2, Version: entry.MustParseVersion("1.2")},
	}
	var buf bytes.Buffer
	NewPrinter(&buf, Options{}).Sessions(headers, sample())
	want := "session 1  v1.2.0  2 entries  Device: rig\nsession 2  v1.2.0  1 entries\n"
	if buf.String() != want {
		t.Fatalf("got %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != JSON {
		t.Fatal("json")
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTableExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.log")
	if err := Table(path, sample(), []string{"Source: test"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"| Session: 1", "| Session: 2", "| Version: 1.2.0", "| Source: test",
		"| 10:00:00 [net]    ERROR: request failed",
		"| 10:00:01 [perf]   load begin",
		"| 11:00:00 [db]   reconnected",
		"| Entries: 2", "| Entries: 1",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
	if n := strings.Count(content, "| Date: October 16"); n != 2 {
		t.Errorf("found %d session headers", n)
	}
}
