package logging

import (
	"errors"
	"strconv"
	"strings"

	"github.com/marcelocantos/boxlog/internal/boxfile"
	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/record"
	"github.com/marcelocantos/boxlog/internal/recordfile"
)

// FileSink writes File-targeted entries as encoded records.
type FileSink struct {
	w *recordfile.Writer
}

// NewFileSink returns a sink that appends to w. The sink owns w.
func NewFileSink(w *recordfile.Writer) *FileSink { return &FileSink{w: w} }

func (s *FileSink) Log(e Entry, t Target) error {
	if !t.Has(File) {
		return nil
	}
	tag, message, md := Encode(e)
	err := s.w.Append(tag, message, md)
	if errors.Is(err, record.ErrInvalidField) {
		err = s.w.Append(tag, strconv.Quote(message), md)
	}
	return err
}

// Flush waits until every entry has reached the file.
func (s *FileSink) Flush() error { return s.w.Flush() }

func (s *FileSink) Close() error { return s.w.Close() }

// Encode converts e to the fields of a record line. Keys set by the logger
// replace user metadata with the same name.
func Encode(e Entry) (record.Tag, string, metadata.Map) {
	core := metadata.Map{
		entry.KeyTimestamp: metadata.String(e.Time.Format(entry.TimestampLayout)),
		entry.KeyFile:      metadata.String(e.File),
		entry.KeyFunction:  metadata.String(e.Function),
		entry.KeyLabel:     metadata.String(e.Label),
		entry.KeyLine:      metadata.Scalar(strconv.Itoa(e.Line)),
		entry.KeySource:    metadata.String(e.Source),
	}
	tag := record.NoTag
	if e.Signpost != nil {
		tag = record.SignpostBegin
		if e.Signpost.Marker == entry.End {
			tag = record.SignpostEnd
		}
		core[entry.KeySignpostID] = metadata.String(e.Signpost.ID)
		core[entry.KeySignpostGroup] = metadata.String(e.Signpost.Group)
	} else {
		core[entry.KeyLevel] = metadata.String(e.Level.String())
	}
	msg := cleanMessage(e.Message)
	if tag == record.NoTag && msg == "" {
		// A bare metadata line reads back as a session header.
		msg = strconv.Quote(msg)
	}
	return tag, msg, e.Metadata.Merge(core)
}

func cleanMessage(msg string) string {
	msg = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(msg)
	for strings.Contains(msg, record.Separator) {
		msg = strings.ReplaceAll(msg, record.Separator, ": :")
	}
	return strings.TrimSpace(msg)
}

// TableSink writes File-targeted entries as rows of an aligned table.
type TableSink struct {
	w *boxfile.Writer
}

// NewTableSink returns a sink that appends rows to w. The sink owns w.
func NewTableSink(w *boxfile.Writer) *TableSink { return &TableSink{w: w} }

func (s *TableSink) Log(e Entry, t Target) error {
	if !t.Has(File) {
		return nil
	}
	text := e.Text()
	if e.Signpost == nil && e.Level >= entry.Warning {
		text = strings.ToUpper(e.Level.String()) + ": " + text
	}
	return s.w.Log(e.Label, text)
}

// Flush waits until every row has been written and aligned.
func (s *TableSink) Flush() error { return s.w.Flush() }

// Close writes the session footer and closes the table.
func (s *TableSink) Close() error {
	ferr := s.w.Finish()
	if err := s.w.Close(); err != nil {
		return err
	}
	return ferr
}
