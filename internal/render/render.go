// Package render prints records, groups and session headers for humans
// and machines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/repository"
)

const dateLayout = "2006-01-02 15:04:05.000"

// Format selects the output encoding.
type Format uint8

const (
	Text Format = iota
	JSON
)

// ParseFormat converts "text" or "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	}
	return 0, fmt.Errorf("unknown format: %q", s)
}

// Options configures a Printer.
type Options struct {
	Format Format
	Color  bool
	// Width clips text lines to this many cells. Zero disables clipping.
	Width int
}

// Printer writes records to w.
type Printer struct {
	w    io.Writer
	opts Options

	faint, bold lipgloss.Style
	levels      map[entry.Level]lipgloss.Style
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer, opts Options) *Printer {
	r := lipgloss.NewRenderer(w)
	p := &Printer{
		w:      w,
		opts:   opts,
		faint:  r.NewStyle().Faint(true),
		bold:   r.NewStyle().Bold(true),
		levels: map[entry.Level]lipgloss.Style{},
	}
	for l, c := range map[entry.Level]string{
		entry.Trace: "8", entry.Debug: "6", entry.Info: "2", entry.Notice: "4",
		entry.Warning: "3", entry.Error: "1", entry.Critical: "9",
	} {
		p.levels[l] = r.NewStyle().Foreground(lipgloss.Color(c)).Bold(l >= entry.Error)
	}
	return p
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalWidth returns the width of the terminal behind w, or zero.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !IsTerminal(w) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// RecordView is the JSON shape of a record.
type RecordView struct {
	Kind     string         `json:"kind"`
	Date     time.Time      `json:"date"`
	Level    string         `json:"level,omitempty"`
	Marker   string         `json:"marker,omitempty"`
	ID       string         `json:"id,omitempty"`
	Group    string         `json:"group,omitempty"`
	Message  string         `json:"message,omitempty"`
	Label    string         `json:"label"`
	Source   string         `json:"source"`
	File     string         `json:"file"`
	Function string         `json:"function"`
	Line     int            `json:"line"`
	Session  int            `json:"session"`
	Version  string         `json:"version"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// View converts r to its JSON shape.
func View(r entry.Record) RecordView {
	f := r.Base()
	v := RecordView{
		Kind:     r.Kind().String(),
		Date:     f.Date,
		Label:    f.Label,
		Source:   f.Source,
		File:     f.File,
		Function: f.Function,
		Line:     f.Line,
		Session:  f.SessionNumber,
		Version:  f.Version.String(),
	}
	if len(f.Metadata) > 0 {
		v.Metadata = plainMap(f.Metadata)
	}
	switch t := r.(type) {
	case *entry.Log:
		v.Level = t.Level.String()
		v.Message = t.Message
	case *entry.Signpost:
		v.Marker = t.Marker.String()
		v.ID = t.ID
		v.Group = t.Group
		v.Message = t.Message
	}
	return v
}

func plainMap(m metadata.Map) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v metadata.Value) any {
	switch v.Kind() {
	case metadata.KindList:
		items := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plainValue(item)
		}
		return out
	case metadata.KindMap:
		return plainMap(v.Map())
	case metadata.KindScalar:
		s, _ := v.Text()
		if json.Valid([]byte(s)) {
			return json.RawMessage(s)
		}
		return s
	default:
		s, _ := v.Text()
		return s
	}
}

// Records prints records one per line, or as a JSON array.
func (p *Printer) Records(records []entry.Record) error {
	if p.opts.Format == JSON {
		views := make([]RecordView, len(records))
		for i, r := range records {
			views[i] = View(r)
		}
		return p.json(views)
	}
	for _, r := range records {
		if err := p.line(p.recordLine(r)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) recordLine(r entry.Record) string {
	f := r.Base()
	var b strings.Builder
	b.WriteString(p.style(p.faint, f.Date.Format(dateLayout)))
	b.WriteString(p.style(p.faint, fmt.Sprintf(" #%d v%s ", f.SessionNumber, f.Version)))

	switch t := r.(type) {
	case *entry.Log:
		b.WriteString(p.style(p.levels[t.Level], fmt.Sprintf("%-8s", strings.ToUpper(t.Level.String()))))
	case *entry.Signpost:
		b.WriteString(fmt.Sprintf("%-8s", strings.ToUpper(t.Marker.String())))
	}
	if f.Label != "" {
		b.WriteString(" ")
		b.WriteString(p.style(p.bold, "["+f.Label+"]"))
	}
	b.WriteString(" ")
	b.WriteString(r.Text())
	for _, k := range f.Metadata.Keys() {
		b.WriteString(p.style(p.faint, fmt.Sprintf(" %s=%s", k, f.Metadata[k])))
	}
	if sp, ok := r.(*entry.Signpost); ok {
		b.WriteString(p.style(p.faint, " id="+sp.ID))
	}
	return b.String()
}

// Groups prints (value, count) pairs under a heading naming field.
func (p *Printer) Groups(field repository.Field, groups []repository.Group) error {
	if p.opts.Format == JSON {
		if groups == nil {
			groups = []repository.Group{}
		}
		return p.json(map[string]any{"field": field.String(), "groups": groups})
	}
	widest := 0
	for _, g := range groups {
		widest = max(widest, lipgloss.Width(g.Value))
	}
	if err := p.line(p.style(p.bold, field.String())); err != nil {
		return err
	}
	for _, g := range groups {
		value := g.Value
		if value == "" {
			value = "(empty)"
		}
		pad := strings.Repeat(" ", max(0, widest-lipgloss.Width(value)))
		if err := p.line(fmt.Sprintf("  %s%s  %d", value, pad, g.Count)); err != nil {
			return err
		}
	}
	return nil
}

// HeaderView is the JSON shape of a session header.
type HeaderView struct {
	Session int      `json:"session"`
	Version string   `json:"version"`
	Params  []string `json:"params,omitempty"`
	Entries int      `json:"entries"`
}

// Sessions prints one line per session header with its record count.
func (p *Printer) Sessions(headers []entry.Header, records []entry.Record) error {
	counts := map[int]int{}
	for _, r := range records {
		counts[r.Base().SessionNumber]++
	}
	views := make([]HeaderView, len(headers))
	for i, h := range headers {
		views[i] = HeaderView{
			Session: h.SessionNumber,
			Version: h.Version.String(),
			Params:  h.Params,
			Entries: counts[h.SessionNumber],
		}
	}
	if p.opts.Format == JSON {
		return p.json(views)
	}
	for _, v := range views {
		line := fmt.Sprintf("session %d  v%s  %d entries", v.Session, v.Version, v.Entries)
		if len(v.Params) > 0 {
			line += p.style(p.faint, "  "+strings.Join(v.Params, ", "))
		}
		if err := p.line(line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) line(s string) error {
	if p.opts.Width > 0 && lipgloss.Width(s) > p.opts.Width {
		s = lipgloss.NewStyle().MaxWidth(p.opts.Width).Render(s)
	}
	_, err := io.WriteString(p.w, s+"\n")
	return err
}

func (p *Printer) style(st lipgloss.Style, text string) string {
	if !p.opts.Color {
		return text
	}
	return st.Render(text)
}
