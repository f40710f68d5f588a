// Package recordfile appends encoded, optionally encrypted log records to a
// file, one per line, preceded by a session header.
package recordfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/marcelocantos/boxlog/internal/crypt"
	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/queue"
	"github.com/marcelocantos/boxlog/internal/record"
	"github.com/marcelocantos/boxlog/internal/session"
)

// ErrWrite wraps every I/O or cipher failure. A Writer that has failed
// stays failed.
var ErrWrite = errors.New("record file write failed")

const defaultBuffer = 256

// Options configures a Writer.
type Options struct {
	Cipher  crypt.Cipher     // nil writes plain text
	Session session.Provider // defaults to session 1
	Version entry.Version
	Params  []string // written to the header as a list
	Buffer  int
}

// Writer is an append-only record log. Append encodes on the caller's
// goroutine and hands the line to a serial worker.
type Writer struct {
	path   string
	f      *os.File
	cipher crypt.Cipher
	header string
	q      *queue.Serial

	wroteHeader bool // owned by the worker goroutine
	count       atomic.Int64
}

// Open opens or creates the record file at path. The session header is
// written before the first record, not on open.
func Open(path string, opts Options) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	provider := opts.Session
	if provider == nil {
		provider = session.Static(1)
	}
	header, err := EncodeHeader(entry.Header{
		SessionNumber: provider.CurrentSessionNumber(),
		Version:       opts.Version,
		Params:        opts.Params,
	})
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Writer{
		path:   path,
		f:      f,
		cipher: opts.Cipher,
		header: header,
		q:      queue.NewSerial(buffer),
	}, nil
}

// EncodeHeader renders the SESSION_HEADER line for h.
func EncodeHeader(h entry.Header) (string, error) {
	m := metadata.Map{
		entry.KeySessionNumber: metadata.String(strconv.Itoa(h.SessionNumber)),
		entry.KeyVersion:       metadata.String(h.Version.String()),
	}
	if len(h.Params) > 0 {
		v, err := metadata.From(h.Params)
		if err != nil {
			return "", err
		}
		m[entry.KeyParams] = v
	}
	blob, err := metadata.Encode(m)
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	r, err := record.New(record.SessionHeader, "", blob)
	if err != nil {
		return "", err
	}
	return r.Encode(), nil
}

// Path returns the log file path.
func (w *Writer) Path() string { return w.path }

// Append queues one record. Encoding and validation errors are returned
// immediately; write errors surface from Flush, Err and Close.
func (w *Writer) Append(tag record.Tag, message string, md metadata.Map) error {
	var blob string
	if len(md) > 0 {
		var err error
		if blob, err = metadata.Encode(md); err != nil {
			return err
		}
	}
	r, err := record.New(tag, message, blob)
	if err != nil {
		return err
	}
	line := r.Encode()
	return w.q.Submit(func() error {
		return w.write(line)
	})
}

// Flush waits for queued records and returns the first write error.
func (w *Writer) Flush() error { return w.q.Flush() }

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.q.Err() }

// Count returns the number of records written so far, excluding the
// header. Call Flush first for an exact figure.
func (w *Writer) Count() int { return int(w.count.Load()) }

// Close drains the queue and closes the file.
func (w *Writer) Close() error {
	qerr := w.q.Close()
	if err := w.f.Close(); err != nil && qerr == nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return qerr
}

func (w *Writer) write(line string) error {
	if !w.wroteHeader {
		if err := w.writeLine(w.header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	if err := w.writeLine(line); err != nil {
		return err
	}
	w.count.Add(1)
	return nil
}

func (w *Writer) writeLine(line string) error {
	if w.cipher != nil {
		sealed, err := w.cipher.Encrypt(line)
		if err != nil {
			return fmt.Errorf("%w: encrypt: %w", ErrWrite, err)
		}
		line = sealed
	}
	if _, err := w.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// SplitLines splits data on newlines, dropping empty lines and a trailing
// carriage return on each line.
func SplitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, trimCR(string(data[start:i])))
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, trimCR(string(data[start:])))
	}
	return lines
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
