// Package boxfile writes human-readable log tables that stay column-aligned
// after every append.
//
// Each session gets a small header box followed by a table:
//
//	+------------------+
//	| Date: October 16 |
//	| Session: 3       |
//	+------------------+-----+
//	| 10:00:00 [app]   hello |
//	+------------------------+
//
// When a wider label or message arrives, every row already written to the
// current table is re-padded in place so the borders keep lining up.
package boxfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcelocantos/boxlog/internal/queue"
	"github.com/marcelocantos/boxlog/internal/session"
)

// ErrWrite wraps every I/O failure. A Writer that has failed stays failed.
var ErrWrite = errors.New("box file write failed")

const (
	headerDateLayout = "January 2"
	footerDateLayout = "January 2 15:04:05"
	defaultBuffer    = 256
)

type state uint8

const (
	stateEmpty         state = iota // no header for the current session yet
	stateHeaderWritten              // header box and table top border written
	stateAppending                  // at least one row written
)

// Options configures a Writer.
type Options struct {
	Clock   session.Clock    // defaults to the system clock
	Session session.Provider // defaults to session 1
	Params  []string         // extra header lines after Date and Session
	Buffer  int              // pending writes before Log blocks
}

// Writer owns one table file. Log, Finish and Resync enqueue work on a
// dedicated goroutine and return immediately; Flush waits for it.
type Writer struct {
	path    string
	f       *os.File
	clock   session.Clock
	session session.Provider
	params  []string
	q       *queue.Serial

	// Owned by the worker goroutine.
	state         state
	headerWidth   int
	tableStart    int64
	bottomStart   int64
	widestLabel   int
	widestMessage int
	rows          int
}

// Open opens or creates the table file at path. Existing content is kept;
// the first Log starts a new session block below it.
func Open(path string, opts Options) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create table dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}

	w := &Writer{
		path:    path,
		f:       f,
		clock:   opts.Clock,
		session: opts.Session,
		params:  opts.Params,
	}
	if w.clock == nil {
		w.clock = session.SystemClock{}
	}
	if w.session == nil {
		w.session = session.Static(1)
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	w.q = queue.NewSerial(buffer)
	return w, nil
}

// Path returns the table file path.
func (w *Writer) Path() string { return w.path }

// Log appends a row. The row's time is taken now, not when it is written.
func (w *Writer) Log(label, message string) error {
	at := w.clock.Now()
	return w.q.Submit(func() error {
		return w.appendRow(at, label, message)
	})
}

// Finish closes the current table with a footer. The next Log starts a new
// header and table.
func (w *Writer) Finish() error {
	at := w.clock.Now()
	return w.q.Submit(func() error {
		return w.finish(at)
	})
}

// Resync re-runs the alignment pass without adding a row.
func (w *Writer) Resync() error {
	return w.q.Submit(func() error {
		if w.state == stateEmpty {
			return nil
		}
		return w.sync()
	})
}

// Flush waits for all queued writes and returns the first write error.
func (w *Writer) Flush() error { return w.q.Flush() }

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.q.Err() }

// Close drains the queue and closes the file. It does not write a footer.
func (w *Writer) Close() error {
	qerr := w.q.Close()
	if err := w.f.Close(); err != nil && qerr == nil {
		return fmt.Errorf("close table file: %w", err)
	}
	return qerr
}

func (w *Writer) appendRow(at time.Time, label, message string) error {
	label = sanitizeLabel(label)
	message = sanitizeMessage(message)

	if w.state == stateEmpty {
		if err := w.writeHeader(at); err != nil {
			return err
		}
	}

	prevLabel, prevMessage := w.widestLabel, w.widestMessage
	w.widestLabel = max(w.widestLabel, width(label))
	w.widestMessage = max(w.widestMessage, width(message))

	row := formatRow(at.UTC().Format(timeLayout), label, message, prevLabel, prevMessage)
	if err := w.appendText(row + "\n"); err != nil {
		return writeError("append row", err)
	}
	w.rows++
	w.state = stateAppending
	return w.sync()
}

func (w *Writer) writeHeader(at time.Time) error {
	end, err := w.size()
	if err != nil {
		return writeError("stat", err)
	}

	var b strings.Builder
	if end > 0 {
		last := make([]byte, 1)
		if _, err := w.f.ReadAt(last, end-1); err != nil {
			return writeError("read tail", err)
		}
		if last[0] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	params := append([]string{
		"Date: " + at.UTC().Format(headerDateLayout),
		fmt.Sprintf("Session: %d", w.session.CurrentSessionNumber()),
	}, w.params...)
	w.headerWidth = blockWidth(params)

	b.WriteString(plainBorder(w.headerWidth))
	b.WriteByte('\n')
	for _, p := range params {
		b.WriteString(paramLine(p, w.headerWidth))
		b.WriteByte('\n')
	}
	if err := w.appendText(b.String()); err != nil {
		return writeError("write header", err)
	}

	if w.tableStart, err = w.size(); err != nil {
		return writeError("stat", err)
	}
	w.widestLabel, w.widestMessage, w.rows = 0, 0, 0
	top := joinedBorder(w.headerWidth, boxWidth(0, 0))
	if err := w.appendText(top + "\n"); err != nil {
		return writeError("write top border", err)
	}
	w.bottomStart = w.tableStart + int64(len(top)) + 1
	w.state = stateHeaderWritten
	return nil
}

// sync rewrites the table region of the current session: a fresh top
// border, every row re-justified to the current widths, and a bottom border.
func (w *Writer) sync() error {
	end, err := w.size()
	if err != nil {
		return writeError("stat", err)
	}
	buf := make([]byte, end-w.tableStart)
	if _, err := w.f.ReadAt(buf, w.tableStart); err != nil && !errors.Is(err, io.EOF) {
		return writeError("read table", err)
	}

	box := boxWidth(w.widestLabel, w.widestMessage)
	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	out := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		switch {
		case i == 0:
			out = append(out, joinedBorder(w.headerWidth, box))
		case line == "", isBorder(line):
		default:
			out = append(out, rejustify(line, w.widestLabel, w.widestMessage))
		}
	}
	body := strings.Join(out, "\n") + "\n"
	bottom := plainBorder(box) + "\n"

	if err := w.f.Truncate(w.tableStart); err != nil {
		return writeError("truncate", err)
	}
	if _, err := w.f.WriteAt([]byte(body+bottom), w.tableStart); err != nil {
		return writeError("rewrite table", err)
	}
	w.bottomStart = w.tableStart + int64(len(body))
	return nil
}

func (w *Writer) finish(at time.Time) error {
	switch w.state {
	case stateEmpty:
		return nil
	case stateHeaderWritten:
		if err := w.sync(); err != nil {
			return err
		}
	}

	params := []string{
		fmt.Sprintf("Session: %d", w.session.CurrentSessionNumber()),
		fmt.Sprintf("Entries: %d", w.rows),
		"Ended: " + at.UTC().Format(footerDateLayout),
	}
	footer := blockWidth(params)
	box := boxWidth(w.widestLabel, w.widestMessage)

	var b strings.Builder
	b.WriteString(joinedBorder(footer, box))
	b.WriteByte('\n')
	for _, p := range params {
		b.WriteString(paramLine(p, footer))
		b.WriteByte('\n')
	}
	b.WriteString(plainBorder(footer))
	b.WriteByte('\n')

	if err := w.f.Truncate(w.bottomStart); err != nil {
		return writeError("truncate", err)
	}
	if _, err := w.f.WriteAt([]byte(b.String()), w.bottomStart); err != nil {
		return writeError("write footer", err)
	}
	w.state = stateEmpty
	return nil
}

func (w *Writer) size() (int64, error) {
	info, err := w.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (w *Writer) appendText(s string) error {
	end, err := w.size()
	if err != nil {
		return err
	}
	_, err = w.f.WriteAt([]byte(s), end)
	return err
}

func writeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrWrite, op, err)
}
