// Package record encodes and decodes single log lines of the form
// [TAG]:::[MESSAGE]:::[METADATA].
package record

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the fields of one line.
const Separator = ":::"

var (
	// ErrEmpty is returned for a record with no tag, message or metadata.
	ErrEmpty = errors.New("empty record")

	// ErrAmbiguous is returned when two parts of a line classify as the same
	// field. It signals corruption.
	ErrAmbiguous = errors.New("ambiguous record")

	// ErrInvalidField is returned by New for a field that would not survive
	// a round trip through Encode and Decode.
	ErrInvalidField = errors.New("invalid record field")
)

// Tag marks special lines. The zero Tag means "no tag".
type Tag uint8

const (
	NoTag Tag = iota
	SessionHeader
	SignpostBegin
	SignpostEnd
)

var tagTokens = map[Tag]string{
	SessionHeader: "SESSION_HEADER",
	SignpostBegin: "SIGNPOST_BEGIN",
	SignpostEnd:   "SIGNPOST_END",
}

func (t Tag) String() string {
	if s, ok := tagTokens[t]; ok {
		return s
	}
	if t == NoTag {
		return ""
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// ParseTag returns the Tag whose token is exactly s.
func ParseTag(s string) (Tag, bool) {
	for t, token := range tagTokens {
		if token == s {
			return t, true
		}
	}
	return NoTag, false
}

// IsSignpost reports whether t marks a signpost begin or end.
func (t Tag) IsSignpost() bool { return t == SignpostBegin || t == SignpostEnd }

// RawRecord is one undecoded line. Empty fields are absent.
type RawRecord struct {
	Tag      Tag
	Message  string
	Metadata string
}

// New validates and returns a RawRecord.
func New(tag Tag, message, metadata string) (RawRecord, error) {
	r := RawRecord{Tag: tag, Message: message, Metadata: metadata}
	if err := r.Validate(); err != nil {
		return RawRecord{}, err
	}
	return r, nil
}

// Validate checks that r has at least one field and that each field
// classifies as itself when decoded.
func (r RawRecord) Validate() error {
	if r.Tag == NoTag && r.Message == "" && r.Metadata == "" {
		return ErrEmpty
	}
	if r.Tag != NoTag {
		if _, ok := tagTokens[r.Tag]; !ok {
			return fmt.Errorf("%w: unknown tag %d", ErrInvalidField, int(r.Tag))
		}
	}
	if r.Message != "" {
		switch {
		case strings.Contains(r.Message, Separator):
			return fmt.Errorf("%w: message contains %q", ErrInvalidField, Separator)
		case strings.ContainsAny(r.Message, "\r\n"):
			return fmt.Errorf("%w: message spans lines", ErrInvalidField)
		case isMetadata(r.Message):
			return fmt.Errorf("%w: message looks like metadata", ErrInvalidField)
		case r.Metadata != "" && strings.HasSuffix(r.Message, ":"):
			// "msg:" + ":::" would split one colon early.
			return fmt.Errorf("%w: message ends with ':' before metadata", ErrInvalidField)
		}
		if _, ok := ParseTag(r.Message); ok {
			return fmt.Errorf("%w: message is a tag token", ErrInvalidField)
		}
	}
	if r.Metadata != "" {
		switch {
		case !isMetadata(r.Metadata):
			return fmt.Errorf("%w: metadata must be a {...} blob", ErrInvalidField)
		case strings.Contains(r.Metadata, Separator):
			return fmt.Errorf("%w: metadata contains %q", ErrInvalidField, Separator)
		case strings.ContainsAny(r.Metadata, "\r\n"):
			return fmt.Errorf("%w: metadata spans lines", ErrInvalidField)
		}
	}
	return nil
}

// IsHeader reports whether r opens a session: a SESSION_HEADER tag or a
// bare metadata blob.
func (r RawRecord) IsHeader() bool {
	if r.Tag == SessionHeader {
		return true
	}
	return r.Tag == NoTag && r.Message == "" && r.Metadata != ""
}

// Encode joins the present fields with Separator.
func (r RawRecord) Encode() string {
	parts := make([]string, 0, 3)
	if r.Tag != NoTag {
		parts = append(parts, r.Tag.String())
	}
	if r.Message != "" {
		parts = append(parts, r.Message)
	}
	if r.Metadata != "" {
		parts = append(parts, r.Metadata)
	}
	return strings.Join(parts, Separator)
}

func (r RawRecord) String() string { return r.Encode() }

// Decode splits line into at most three parts and classifies each as tag,
// metadata or message.
func Decode(line string) (RawRecord, error) {
	var r RawRecord
	var haveTag, haveMessage, haveMetadata bool

	for _, part := range strings.SplitN(line, Separator, 3) {
		if part == "" {
			continue
		}
		if tag, ok := ParseTag(part); ok {
			if haveTag {
				return RawRecord{}, fmt.Errorf("%w: multiple tags", ErrAmbiguous)
			}
			r.Tag, haveTag = tag, true
		} else if isMetadata(part) {
			if haveMetadata {
				return RawRecord{}, fmt.Errorf("%w: multiple metadata blobs", ErrAmbiguous)
			}
			r.Metadata, haveMetadata = part, true
		} else {
			if haveMessage {
				return RawRecord{}, fmt.Errorf("%w: multiple messages", ErrAmbiguous)
			}
			r.Message, haveMessage = part, true
		}
	}

	if !haveTag && !haveMessage && !haveMetadata {
		return RawRecord{}, ErrEmpty
	}
	return r, nil
}

func isMetadata(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}
