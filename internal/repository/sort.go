package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marcelocantos/boxlog/internal/entry"
)

// SortOption orders records for display.
type SortOption uint8

const (
	DateAsc SortOption = iota
	DateDesc
	TextAsc
	TextDesc
)

var sortNames = map[SortOption]string{
	DateAsc:  "date-asc",
	DateDesc: "date-desc",
	TextAsc:  "alpha-asc",
	TextDesc: "alpha-desc",
}

func (o SortOption) String() string {
	if s, ok := sortNames[o]; ok {
		return s
	}
	return fmt.Sprintf("sort(%d)", int(o))
}

// ParseSortOption converts a sort name to a SortOption.
func ParseSortOption(s string) (SortOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range sortNames {
		if name == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown sort option: %q", s)
}

// Sort orders records in place. The sort is stable, so records with equal
// keys keep file order.
func Sort(records []entry.Record, o SortOption) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch o {
		case DateDesc:
			return a.Base().Date.After(b.Base().Date)
		case TextAsc:
			return a.Text() < b.Text()
		case TextDesc:
			return a.Text() > b.Text()
		default:
			return a.Base().Date.Before(b.Base().Date)
		}
	})
}
