package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/marcelocantos/boxlog/internal/entry"
)

// lockedWriter serializes writes to w. Several lockedWriters sharing one
// mutex may be used concurrently, e.g. stdout and stderr of one terminal.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

var levelGlyphs = map[entry.Level]string{
	entry.Trace:    "·",
	entry.Debug:    "◦",
	entry.Info:     "•",
	entry.Notice:   "▸",
	entry.Warning:  "▲",
	entry.Error:    "✖",
	entry.Critical: "‼",
}

var levelColors = map[entry.Level]lipgloss.Color{
	entry.Trace:    "8",
	entry.Debug:    "6",
	entry.Info:     "2",
	entry.Notice:   "4",
	entry.Warning:  "3",
	entry.Error:    "1",
	entry.Critical: "9",
}

// ConsoleSink prints Console-targeted entries as single lines. Warnings
// and above go to the error writer.
type ConsoleSink struct {
	out, errOut io.Writer
	color       bool
	minLevel    entry.Level

	glyph func(entry.Level) lipgloss.Style
	label lipgloss.Style
	faint lipgloss.Style
}

// ConsoleOptions configures a ConsoleSink.
type ConsoleOptions struct {
	// Color forces colour on or off. Nil detects a terminal on out.
	Color    *bool
	MinLevel entry.Level
}

// NewConsoleSink returns a sink printing to out and errOut. The two
// writers share one lock.
func NewConsoleSink(out, errOut io.Writer, opts ConsoleOptions) *ConsoleSink {
	mu := &sync.Mutex{}
	color := isTerminal(out)
	if opts.Color != nil {
		color = *opts.Color
	}
	r := lipgloss.NewRenderer(out)
	s := &ConsoleSink{
		out:      &lockedWriter{mu: mu, w: out},
		errOut:   &lockedWriter{mu: mu, w: errOut},
		color:    color,
		minLevel: opts.MinLevel,
		label:    r.NewStyle().Bold(true),
		faint:    r.NewStyle().Faint(true),
	}
	s.glyph = func(l entry.Level) lipgloss.Style {
		return r.NewStyle().Foreground(levelColors[l])
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *ConsoleSink) Log(e Entry, t Target) error {
	if !t.Has(Console) {
		return nil
	}
	if e.Signpost == nil && e.Level < s.minLevel {
		return nil
	}
	w := s.out
	if e.Signpost == nil && e.Level >= entry.Warning {
		w = s.errOut
	}
	_, err := io.WriteString(w, s.Format(e)+"\n")
	return err
}

// Format renders e as one console line.
func (s *ConsoleSink) Format(e Entry) string {
	var b strings.Builder
	b.WriteString(s.style(s.faint, e.Time.Format("15:04:05.000")))
	b.WriteByte(' ')

	if e.Signpost != nil {
		glyph := "⏵"
		if e.Signpost.Marker == entry.End {
			glyph = "⏹"
		}
		b.WriteString(glyph)
	} else {
		b.WriteString(s.style(s.glyph(e.Level), levelGlyphs[e.Level]))
	}

	if e.Label != "" {
		b.WriteString(" ")
		b.WriteString(s.style(s.label, "["+e.Label+"]"))
	}
	b.WriteByte(' ')
	b.WriteString(strings.ReplaceAll(e.Text(), "\n", " "))

	for _, k := range e.Metadata.Keys() {
		b.WriteString(s.style(s.faint, fmt.Sprintf(" %s=%s", k, e.Metadata[k])))
	}
	if e.Signpost != nil {
		b.WriteString(s.style(s.faint, " id="+e.Signpost.ID))
	}
	return b.String()
}

func (s *ConsoleSink) style(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}
