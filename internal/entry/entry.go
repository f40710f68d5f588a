// Package entry holds the typed view of decoded log records.
package entry

import (
	"time"

	"github.com/marcelocantos/boxlog/internal/metadata"
)

// Metadata keys written by the file sink and extracted by the repository.
const (
	KeyFile          = "file"
	KeyFunction      = "function"
	KeyLabel         = "label"
	KeyLevel         = "level"
	KeyLine          = "line"
	KeySessionNumber = "sessionNumber"
	KeySignpostGroup = "signpostGroup"
	KeySignpostID    = "signpostID"
	KeySource        = "source"
	KeyTimestamp     = "timestamp"
	KeyVersion       = "version"
	KeyParams        = "params"
)

// TimestampLayout is the layout of the timestamp key.
const TimestampLayout = "02-01-2006 15:04:05.000-0700"

// Kind distinguishes the two record variants.
type Kind uint8

const (
	KindLog Kind = iota + 1
	KindSignpost
)

func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindSignpost:
		return "signpost"
	default:
		return "unknown"
	}
}

// Marker is the edge of a signpost interval.
type Marker uint8

const (
	Begin Marker = iota + 1
	End
)

func (m Marker) String() string {
	if m == Begin {
		return "begin"
	}
	return "end"
}

// Header opens a session in a log file.
type Header struct {
	SessionNumber int
	Version       Version
	Params        []string
}

// Fields are shared by every record variant.
type Fields struct {
	Date          time.Time
	Label         string
	Source        string
	File          string
	Function      string
	Line          int
	SessionNumber int
	Version       Version
	// Metadata holds the keys left after the required ones are extracted.
	Metadata metadata.Map
}

// Record is a decoded log line: *Log or *Signpost.
type Record interface {
	Kind() Kind
	Base() Fields
	// Text is the human-readable body: the message of a log, or the group
	// and marker of a signpost.
	Text() string
}

// Log is a regular log record.
type Log struct {
	Fields
	Level   Level
	Message string
}

func (l *Log) Kind() Kind   { return KindLog }
func (l *Log) Base() Fields { return l.Fields }
func (l *Log) Text() string { return l.Message }

// Signpost marks the beginning or end of a timed interval.
type Signpost struct {
	Fields
	Marker  Marker
	ID      string
	Group   string
	Message string
}

func (s *Signpost) Kind() Kind   { return KindSignpost }
func (s *Signpost) Base() Fields { return s.Fields }

func (s *Signpost) Text() string {
	text := s.Group + " " + s.Marker.String()
	if s.Message != "" {
		text += ": " + s.Message
	}
	return text
}
