// Package logging is the application-facing API for writing log records.
// A Logger stamps each call with time and call site and hands it to a Sink
// together with the set of targets the call is meant for.
package logging

import (
	"errors"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/session"
)

// Target is a set of destinations.
type Target uint8

const (
	Console Target = 1 << iota
	File

	All = Console | File
)

// Has reports whether t includes every destination in o.
func (t Target) Has(o Target) bool { return t&o == o }

func (t Target) String() string {
	var parts []string
	if t.Has(Console) {
		parts = append(parts, "console")
	}
	if t.Has(File) {
		parts = append(parts, "file")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// SignpostMark identifies the signpost an Entry belongs to.
type SignpostMark struct {
	Marker entry.Marker
	ID     string
	Group  string
}

// Entry is one call to a Logger, before any encoding.
type Entry struct {
	Time     time.Time
	Level    entry.Level
	Label    string
	Source   string
	Message  string
	File     string
	Function string
	Line     int
	Metadata metadata.Map
	// Signpost is set for signpost begin and end entries, which carry no
	// level.
	Signpost *SignpostMark
}

// Text is the human-readable body of e.
func (e Entry) Text() string {
	if e.Signpost == nil {
		return e.Message
	}
	text := e.Signpost.Group + " " + e.Signpost.Marker.String()
	if e.Message != "" {
		text += ": " + e.Message
	}
	return text
}

// Sink receives entries. A sink ignores entries whose target does not
// include its destination.
type Sink interface {
	Log(e Entry, t Target) error
}

// Fanout sends every entry to each sink in order.
type Fanout []Sink

func (f Fanout) Log(e Entry, t Target) error {
	var errs []error
	for _, s := range f {
		if err := s.Log(e, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that is an io.Closer.
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Options configures a Logger.
type Options struct {
	Label  string
	Source string
	Target Target // defaults to All
	Clock  session.Clock
}

// Logger writes entries for one label and source.
type Logger struct {
	sink   Sink
	label  string
	source string
	target Target
	clock  session.Clock
	fields metadata.Map
}

// New returns a Logger writing to sink.
func New(sink Sink, opts Options) *Logger {
	l := &Logger{
		sink:   sink,
		label:  opts.Label,
		source: opts.Source,
		target: opts.Target,
		clock:  opts.Clock,
	}
	if l.target == 0 {
		l.target = All
	}
	if l.clock == nil {
		l.clock = session.SystemClock{}
	}
	return l
}

// To returns a copy of l that writes to t.
func (l *Logger) To(t Target) *Logger {
	cp := *l
	cp.target = t
	return &cp
}

// WithLabel returns a copy of l with a different label.
func (l *Logger) WithLabel(label string) *Logger {
	cp := *l
	cp.label = label
	return &cp
}

// With returns a copy of l that adds md to every entry. Per-call metadata
// wins on conflicting keys.
func (l *Logger) With(md metadata.Map) *Logger {
	cp := *l
	cp.fields = l.fields.Merge(md)
	return &cp
}

func (l *Logger) Trace(msg string, md metadata.Map) error    { return l.log(entry.Trace, msg, md) }
func (l *Logger) Debug(msg string, md metadata.Map) error    { return l.log(entry.Debug, msg, md) }
func (l *Logger) Info(msg string, md metadata.Map) error     { return l.log(entry.Info, msg, md) }
func (l *Logger) Notice(msg string, md metadata.Map) error   { return l.log(entry.Notice, msg, md) }
func (l *Logger) Warning(msg string, md metadata.Map) error  { return l.log(entry.Warning, msg, md) }
func (l *Logger) Error(msg string, md metadata.Map) error    { return l.log(entry.Error, msg, md) }
func (l *Logger) Critical(msg string, md metadata.Map) error { return l.log(entry.Critical, msg, md) }

// Log writes msg at level.
func (l *Logger) Log(level entry.Level, msg string, md metadata.Map) error {
	return l.log(level, msg, md)
}

// log must be called directly from an exported method; the call site is
// the caller of that method.
func (l *Logger) log(level entry.Level, msg string, md metadata.Map) error {
	e := l.newEntry(msg, md, 3)
	e.Level = level
	return l.sink.Log(e, l.target)
}

func (l *Logger) newEntry(msg string, md metadata.Map, skip int) Entry {
	e := Entry{
		Time:     l.clock.Now(),
		Label:    l.label,
		Source:   l.source,
		Message:  msg,
		Metadata: l.fields.Merge(md),
	}
	if pc, file, line, ok := runtime.Caller(skip); ok {
		e.File = file
		e.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.Function = fn.Name()
		}
	}
	return e
}
