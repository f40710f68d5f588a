package repository

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/marcelocantos/boxlog/internal/entry"
)

// Field selects the record attribute that GroupBy counts.
type Field uint8

const (
	FieldKind Field = iota + 1
	FieldLevel
	FieldLabel
	FieldSource
	FieldFile
	FieldFunction
	FieldVersion
	FieldSession
	FieldGroup
)

var fieldNames = map[Field]string{
	FieldKind:     "kind",
	FieldLevel:    "level",
	FieldLabel:    "label",
	FieldSource:   "source",
	FieldFile:     "file",
	FieldFunction: "function",
	FieldVersion:  "version",
	FieldSession:  "session",
	FieldGroup:    "group",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField converts a field name to a Field.
func ParseField(s string) (Field, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field: %q", s)
}

// FieldNames lists every field name in declaration order.
func FieldNames() []string {
	out := make([]string, 0, len(fieldNames))
	for f := FieldKind; f <= FieldGroup; f++ {
		out = append(out, fieldNames[f])
	}
	return out
}

// Value returns the value of f for r. Logs have no group and signposts
// have no level; ok is false for those.
func (f Field) Value(r entry.Record) (value string, ok bool) {
	b := r.Base()
	switch f {
	case FieldKind:
		return r.Kind().String(), true
	case FieldLevel:
		if l, isLog := r.(*entry.Log); isLog {
			return l.Level.String(), true
		}
	case FieldLabel:
		return b.Label, true
	case FieldSource:
		return b.Source, true
	case FieldFile:
		return b.File, true
	case FieldFunction:
		return b.Function, true
	case FieldVersion:
		return b.Version.String(), true
	case FieldSession:
		return strconv.Itoa(b.SessionNumber), true
	case FieldGroup:
		if s, isSignpost := r.(*entry.Signpost); isSignpost {
			return s.Group, true
		}
	}
	return "", false
}

// GroupOrder orders the result of GroupBy.
type GroupOrder uint8

const (
	AlphaAsc GroupOrder = iota
	AlphaDesc
	CountDesc
	CountAsc
)

var groupOrderNames = map[GroupOrder]string{
	AlphaAsc:  "alpha-asc",
	AlphaDesc: "alpha-desc",
	CountDesc: "count-desc",
	CountAsc:  "count-asc",
}

func (o GroupOrder) String() string {
	if s, ok := groupOrderNames[o]; ok {
		return s
	}
	return fmt.Sprintf("order(%d)", int(o))
}

// ParseGroupOrder converts an order name to a GroupOrder. "most" is an
// alias for count-desc.
func ParseGroupOrder(s string) (GroupOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "most" {
		return CountDesc, nil
	}
	for o, name := range groupOrderNames {
		if name == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown group order: %q", s)
}

// Group is one distinct field value and how many records carry it.
type Group struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupRecords counts the values of f across records. Ties in count
// orders are broken alphabetically.
func GroupRecords(records []entry.Record, f Field, o GroupOrder) []Group {
	counts := map[string]int{}
	for _, r := range records {
		if v, ok := f.Value(r); ok {
			counts[v]++
		}
	}
	groups := make([]Group, 0, len(counts))
	for v, n := range counts {
		groups = append(groups, Group{Value: v, Count: n})
	}

	less := func(a, b Group) bool {
		switch o {
		case AlphaDesc:
			return a.Value > b.Value
		case CountDesc:
			if a.Count != b.Count {
				return a.Count > b.Count
			}
		case CountAsc:
			if a.Count != b.Count {
				return a.Count < b.Count
			}
		}
		return a.Value < b.Value
	}
	sort.Slice(groups, func(i, j int) bool { return less(groups[i], groups[j]) })
	return groups
}
