package repository

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/marcelocantos/boxlog/internal/entry"
)

// Query narrows the records returned by Entries. Zero-valued fields do not
// filter. Filters are applied in field order and each narrows the result
// of the previous one.
type Query struct {
	// Levels keeps logs whose level is in the set. Signposts have no level
	// and are dropped when Levels is non-empty.
	Levels   []entry.Level
	Sessions *IntRange
	Versions *VersionRange
	Dates    *DateRange
	// Text keeps records whose message, function, file or any metadata
	// leaf contains Text. Matching is case-sensitive.
	Text string
	// Where is a Starlark boolean expression evaluated per record.
	Where string
}

// IntRange is an inclusive range. A nil bound is open.
type IntRange struct {
	Min, Max *int
}

func (r IntRange) contains(n int) bool {
	return (r.Min == nil || n >= *r.Min) && (r.Max == nil || n <= *r.Max)
}

// VersionRange is an inclusive range of versions. A nil bound is open.
type VersionRange struct {
	Min, Max *entry.Version
}

func (r VersionRange) contains(v entry.Version) bool {
	return (r.Min == nil || v.Compare(*r.Min) >= 0) && (r.Max == nil || v.Compare(*r.Max) <= 0)
}

// DateRange is an inclusive range of instants. A zero bound is open.
type DateRange struct {
	From, To time.Time
}

func (r DateRange) contains(t time.Time) bool {
	return (r.From.IsZero() || !t.Before(r.From)) && (r.To.IsZero() || !t.After(r.To))
}

func (q *Query) apply(records []entry.Record) ([]entry.Record, error) {
	out := records
	if len(q.Levels) > 0 {
		out = filter(out, func(r entry.Record) bool {
			l, ok := r.(*entry.Log)
			return ok && slices.Contains(q.Levels, l.Level)
		})
	}
	if q.Sessions != nil {
		out = filter(out, func(r entry.Record) bool {
			return q.Sessions.contains(r.Base().SessionNumber)
		})
	}
	if q.Versions != nil {
		out = filter(out, func(r entry.Record) bool {
			return q.Versions.contains(r.Base().Version)
		})
	}
	if q.Dates != nil {
		out = filter(out, func(r entry.Record) bool {
			return q.Dates.contains(r.Base().Date)
		})
	}
	if q.Text != "" {
		out = filter(out, func(r entry.Record) bool {
			return matchesText(r, q.Text)
		})
	}
	if q.Where != "" {
		pred, err := compileWhere(q.Where)
		if err != nil {
			return nil, err
		}
		var kept []entry.Record
		for _, r := range out {
			ok, err := pred(r)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, r)
			}
		}
		out = kept
	}
	return out, nil
}

func filter(records []entry.Record, keep func(entry.Record) bool) []entry.Record {
	var out []entry.Record
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchesText(r entry.Record, text string) bool {
	f := r.Base()
	var message string
	switch v := r.(type) {
	case *entry.Log:
		message = v.Message
	case *entry.Signpost:
		message = v.Message
	}
	if strings.Contains(message, text) || strings.Contains(f.Function, text) || strings.Contains(f.File, text) {
		return true
	}
	return !f.Metadata.Leaves(func(leaf string) bool {
		return !strings.Contains(leaf, text)
	})
}

// ParseLevels parses a comma-separated list of level names.
func ParseLevels(s string) ([]entry.Level, error) {
	var out []entry.Level
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		l, err := entry.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// splitRange splits "a..b", "a..", "..b" or a single value "a" (meaning
// a..a).
func splitRange(s string) (lo, hi string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("empty range")
	}
	lo, hi, found := strings.Cut(s, "..")
	if !found {
		return s, s, nil
	}
	return strings.TrimSpace(lo), strings.TrimSpace(hi), nil
}

// ParseIntRange parses "3", "3..5", "3.." or "..5".
func ParseIntRange(s string) (*IntRange, error) {
	lo, hi, err := splitRange(s)
	if err != nil {
		return nil, err
	}
	var r IntRange
	for _, b := range []struct {
		text string
		dst  **int
	}{{lo, &r.Min}, {hi, &r.Max}} {
		if b.text == "" {
			continue
		}
		n, err := strconv.Atoi(b.text)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		*b.dst = &n
	}
	return &r, nil
}

// ParseVersionRange parses "1.2", "1.0..2.0", "1.0.." or "..2".
func ParseVersionRange(s string) (*VersionRange, error) {
	lo, hi, err := splitRange(s)
	if err != nil {
		return nil, err
	}
	var r VersionRange
	for _, b := range []struct {
		text string
		dst  **entry.Version
	}{{lo, &r.Min}, {hi, &r.Max}} {
		if b.text == "" {
			continue
		}
		v, err := entry.ParseVersion(b.text)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		*b.dst = &v
	}
	return &r, nil
}

// ParseDateRange builds a range from optional since/until values in
// RFC 3339, the file timestamp layout or "2006-01-02".
func ParseDateRange(since, until string) (*DateRange, error) {
	if since == "" && until == "" {
		return nil, nil
	}
	var r DateRange
	var err error
	if since != "" {
		if r.From, err = parseInstant(since); err != nil {
			return nil, err
		}
	}
	if until != "" {
		if r.To, err = parseInstant(until); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func parseInstant(s string) (time.Time, error) {
	if t, err := ParseTimestamp(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// Spec is the textual form of a Query, as typed on a command line or sent
// by a tool call. Empty fields do not filter.
type Spec struct {
	Levels   string // comma-separated level names
	Sessions string // range, e.g. "3..5"
	Versions string // range, e.g. "1.0..2"
	Since    string
	Until    string
	Text     string
	Where    string
}

// Build parses s into a Query. It returns nil when s sets no filter.
func (s Spec) Build() (*Query, error) {
	var q Query
	var err error
	if s.Levels != "" {
		if q.Levels, err = ParseLevels(s.Levels); err != nil {
			return nil, err
		}
	}
	if s.Sessions != "" {
		if q.Sessions, err = ParseIntRange(s.Sessions); err != nil {
			return nil, err
		}
	}
	if s.Versions != "" {
		if q.Versions, err = ParseVersionRange(s.Versions); err != nil {
			return nil, err
		}
	}
	if q.Dates, err = ParseDateRange(s.Since, s.Until); err != nil {
		return nil, err
	}
	q.Text = s.Text
	q.Where = s.Where
	if q.Levels == nil && q.Sessions == nil && q.Versions == nil && q.Dates == nil && q.Text == "" && q.Where == "" {
		return nil, nil
	}
	return &q, nil
}
