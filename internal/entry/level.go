package entry

import (
	"fmt"
	"strings"
)

// Level is the severity of a log record, ordered from Trace to Critical.
type Level uint8

const (
	Trace Level = iota
	Debug
	Info
	Notice
	Warning
	Error
	Critical
)

// Levels lists every level in ascending severity.
var Levels = []Level{Trace, Debug, Info, Notice, Warning, Error, Critical}

func (l Level) String() string {
	switch l {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Notice:
		return "notice"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name to a Level. Matching is
// case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return Trace, nil
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "notice":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	case "critical":
		return Critical, nil
	default:
		return 0, fmt.Errorf("unknown level: %q", s)
	}
}
