package repository

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/marcelocantos/boxlog/internal/crypt"
	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
	"github.com/marcelocantos/boxlog/internal/record"
)

// parsed is the result of one full pass over a file.
type parsed struct {
	records []entry.Record
	headers []entry.Header
}

// Parse decodes every record in data. A nil cipher reads plain text. Any
// bad line fails the whole parse with a *ParseError.
func Parse(data []byte, c crypt.Cipher) ([]entry.Record, error) {
	p, err := parse(data, c)
	if err != nil {
		return nil, err
	}
	return p.records, nil
}

func parse(data []byte, c crypt.Cipher) (*parsed, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: ErrNoEntries}
	}

	var (
		p       parsed
		current *entry.Header
		lineNo  int
	)
	start := 0
	for start <= len(data) {
		end := bytes.IndexByte(data[start:], '\n')
		if end < 0 {
			end = len(data)
		} else {
			end += start
		}
		raw := strings.TrimRight(string(data[start:end]), "\r")
		start = end + 1
		lineNo++

		if strings.TrimSpace(raw) == "" {
			continue
		}
		line := raw
		if c != nil {
			plain, err := c.Decrypt(strings.TrimSpace(raw))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: ErrInvalidDecryptionKey, Detail: err.Error()}
			}
			line = plain
		}
		line, ok := undecorate(line)
		if !ok {
			continue
		}

		r, err := record.Decode(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Err: ErrInvalidEntry, Detail: err.Error()}
		}

		if r.IsHeader() {
			h, err := decodeHeader(r)
			if err != nil {
				var pe *ParseError
				if errors.As(err, &pe) {
					pe.Line = lineNo
				}
				return nil, err
			}
			p.headers = append(p.headers, h)
			current = &p.headers[len(p.headers)-1]
			continue
		}

		if current == nil {
			return nil, &ParseError{Line: lineNo, Err: ErrNoHeaderForEntry}
		}
		rec, err := decodeRecord(r, *current)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = lineNo
			}
			return nil, err
		}
		p.records = append(p.records, rec)
	}

	if len(p.records) == 0 && len(p.headers) == 0 {
		return nil, &ParseError{Err: ErrNoEntries}
	}
	return &p, nil
}

// undecorate strips box-table decoration from a line: border lines are
// dropped and "| ... |" frames are unwrapped. The framed text must itself
// be a record line; rows written by boxfile are not.
func undecorate(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if isBorderLine(trimmed) {
		return "", false
	}
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
		inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		return inner, inner != ""
	}
	return line, true
}

func isBorderLine(s string) bool {
	if len(s) < 2 || s[0] != '+' || s[len(s)-1] != '+' {
		return false
	}
	return strings.Trim(s, "+-") == ""
}

func decodeHeader(r record.RawRecord) (entry.Header, error) {
	if r.Metadata == "" {
		return entry.Header{}, parseError(0, ErrInvalidHeader, "no metadata")
	}
	md, err := metadata.Decode(r.Metadata)
	if err != nil {
		return entry.Header{}, parseError(0, ErrInvalidHeader, "%v", err)
	}

	var h entry.Header
	x := extractor{md: md, err: ErrInvalidHeader}
	h.SessionNumber = x.integer(entry.KeySessionNumber)
	h.Version = x.version(entry.KeyVersion)
	h.Params = x.optionalStrings(entry.KeyParams)
	if x.failed != nil {
		return entry.Header{}, x.failed
	}
	return h, nil
}

func decodeRecord(r record.RawRecord, h entry.Header) (entry.Record, error) {
	if r.Metadata == "" {
		return nil, parseError(0, ErrInvalidEntry, "no metadata")
	}
	md, err := metadata.Decode(r.Metadata)
	if err != nil {
		return nil, parseError(0, ErrInvalidMetadata, "%v", err)
	}

	x := extractor{md: md.Clone(), err: ErrInvalidMetadata}
	f := entry.Fields{
		Date:          x.timestamp(entry.KeyTimestamp),
		File:          x.text(entry.KeyFile),
		Function:      x.text(entry.KeyFunction),
		Label:         x.text(entry.KeyLabel),
		Line:          x.integer(entry.KeyLine),
		Source:        x.text(entry.KeySource),
		SessionNumber: h.SessionNumber,
		Version:       h.Version,
	}

	var rec entry.Record
	if r.Tag.IsSignpost() {
		marker := entry.Begin
		if r.Tag == record.SignpostEnd {
			marker = entry.End
		}
		rec = &entry.Signpost{
			Marker:  marker,
			ID:      x.text(entry.KeySignpostID),
			Group:   x.text(entry.KeySignpostGroup),
			Message: r.Message,
		}
	} else {
		rec = &entry.Log{
			Level:   x.level(entry.KeyLevel),
			Message: r.Message,
		}
	}
	if x.failed != nil {
		return nil, x.failed
	}

	f.Metadata = x.md
	switch v := rec.(type) {
	case *entry.Signpost:
		v.Fields = f
	case *entry.Log:
		v.Fields = f
	}
	return rec, nil
}

// extractor removes typed keys from a metadata map, remembering the first
// failure.
type extractor struct {
	md     metadata.Map
	err    error
	failed error
}

func (x *extractor) fail(key, format string, args ...any) {
	if x.failed == nil {
		x.failed = parseError(0, x.err, "key %q: "+format, append([]any{key}, args...)...)
	}
}

func (x *extractor) take(key string) (metadata.Value, bool) {
	v, ok := x.md[key]
	if !ok {
		x.fail(key, "missing")
		return metadata.Value{}, false
	}
	delete(x.md, key)
	return v, true
}

func (x *extractor) text(key string) string {
	v, ok := x.take(key)
	if !ok {
		return ""
	}
	s, ok := v.Text()
	if !ok {
		x.fail(key, "want text, got %s", v.Kind())
	}
	return s
}

func (x *extractor) integer(key string) int {
	s := x.text(key)
	if x.failed != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		x.fail(key, "want integer, got %q", s)
	}
	return n
}

func (x *extractor) version(key string) entry.Version {
	s := x.text(key)
	if x.failed != nil {
		return entry.Version{}
	}
	v, err := entry.ParseVersion(s)
	if err != nil {
		x.fail(key, "%v", err)
	}
	return v
}

func (x *extractor) level(key string) entry.Level {
	s := x.text(key)
	if x.failed != nil {
		return 0
	}
	l, err := entry.ParseLevel(s)
	if err != nil {
		x.fail(key, "%v", err)
	}
	return l
}

func (x *extractor) timestamp(key string) time.Time {
	s := x.text(key)
	if x.failed != nil {
		return time.Time{}
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		x.fail(key, "%v", err)
	}
	return t
}

func (x *extractor) optionalStrings(key string) []string {
	v, ok := x.md[key]
	if !ok {
		return nil
	}
	delete(x.md, key)
	if v.Kind() != metadata.KindList {
		x.fail(key, "want list, got %s", v.Kind())
		return nil
	}
	var out []string
	for _, item := range v.Items() {
		s, ok := item.Text()
		if !ok {
			x.fail(key, "want list of text")
			return nil
		}
		out = append(out, s)
	}
	return out
}

// ParseTimestamp accepts the timestamp layout written by the file sink and
// RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(entry.TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	if t, rerr := time.Parse(time.RFC3339Nano, s); rerr == nil {
		return t, nil
	}
	return time.Time{}, err
}
