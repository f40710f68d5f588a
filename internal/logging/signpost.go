package logging

import (
	"github.com/google/uuid"

	"github.com/marcelocantos/boxlog/internal/entry"
	"github.com/marcelocantos/boxlog/internal/metadata"
)

// Signpost times one interval. Begin and End share a generated id so the
// pair can be matched when reading the log back.
type Signpost struct {
	logger *Logger
	group  string
	id     string
}

// Signpost starts a new interval in group. Nothing is written until Begin.
func (l *Logger) Signpost(group string) *Signpost {
	return &Signpost{logger: l, group: group, id: uuid.NewString()}
}

// ID returns the correlation id shared by Begin and End.
func (s *Signpost) ID() string { return s.id }

// Group returns the signpost group.
func (s *Signpost) Group() string { return s.group }

// Begin marks the start of the interval.
func (s *Signpost) Begin(msg string, md metadata.Map) error {
	return s.mark(entry.Begin, msg, md)
}

// End marks the end of the interval.
func (s *Signpost) End(msg string, md metadata.Map) error {
	return s.mark(entry.End, msg, md)
}

func (s *Signpost) mark(m entry.Marker, msg string, md metadata.Map) error {
	e := s.logger.newEntry(msg, md, 3)
	e.Signpost = &SignpostMark{Marker: m, ID: s.id, Group: s.group}
	return s.logger.sink.Log(e, s.logger.target)
}
