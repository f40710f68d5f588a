package record

import (
	"errors"
	"testing"
)

func TestEncodeOmitsAbsentFields(t *testing.T) {
	tests := []struct {
		r    RawRecord
		want string
	}{
		{RawRecord{Tag: SessionHeader, Metadata: `{"sessionNumber":"1"}`}, `SESSION_HEADER:::{"sessionNumber":"1"}`},
		{RawRecord{Message: "hello"}, "hello"},
		{RawRecord{Message: "hello", Metadata: `{"a":1}`}, `hello:::{"a":1}`},
		{RawRecord{Tag: SignpostBegin, Message: "load", Metadata: `{}`}, `SIGNPOST_BEGIN:::load:::{}`},
		{RawRecord{Tag: SignpostEnd}, "SIGNPOST_END"},
	}
	for _, tt := range tests {
		if got := tt.r.Encode(); got != tt.want {
			t.Errorf("Encode(%+v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	records := []RawRecord{
		{Tag: SessionHeader, Metadata: `{"sessionNumber":"1","version":"1.0.0"}`},
		{Message: "plain message with: colons"},
		{Message: "status:"},
		{Tag: SignpostBegin, Message: ":leading", Metadata: `{"a":1}`},
		{Message: "msg", Metadata: `{"level":"info"}`},
		{Tag: SignpostBegin, Metadata: `{"signpostID":"x"}`},
		{Tag: SignpostEnd, Message: "done", Metadata: `{"a":[1,2]}`},
		{Metadata: `{"bare":true}`},
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate(%+v): %v", r, err)
		}
		got, err := Decode(r.Encode())
		if err != nil {
			t.Fatalf("Decode(%q): %v", r.Encode(), err)
		}
		if got != r {
			t.Errorf("round trip: got %+v, want %+v", got, r)
		}
	}
}

func TestDecodeClassifiesByShape(t *testing.T) {
	r, err := Decode(`{"a":1}:::SIGNPOST_END:::message`)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tag != SignpostEnd || r.Message != "message" || r.Metadata != `{"a":1}` {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestDecodeAmbiguous(t *testing.T) {
	for _, line := range []string{
		`{"a":1}:::{"b":2}`,
		"one:::two",
		"SESSION_HEADER:::SIGNPOST_BEGIN",
	} {
		if _, err := Decode(line); !errors.Is(err, ErrAmbiguous) {
			t.Errorf("Decode(%q) = %v, want ErrAmbiguous", line, err)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, line := range []string{"", ":::", "::::::"} {
		if _, err := Decode(line); !errors.Is(err, ErrEmpty) {
			t.Errorf("Decode(%q) = %v, want ErrEmpty", line, err)
		}
	}
}

func TestDecodeKeepsRemainderInThirdPart(t *testing.T) {
	// The third part swallows any further separators.
	r, err := Decode("SIGNPOST_BEGIN:::msg:::{tail:::more}")
	if err != nil {
		t.Fatal(err)
	}
	if r.Message != "msg" || r.Metadata != "{tail:::more}" {
		t.Fatalf("unexpected record %+v", r)
	}
	if _, err := Decode("a:::b:::c:::d"); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name string
		r    RawRecord
		want error
	}{
		{"empty", RawRecord{}, ErrEmpty},
		{"separator in message", RawRecord{Message: "a:::b"}, ErrInvalidField},
		{"newline in message", RawRecord{Message: "a\nb"}, ErrInvalidField},
		{"metadata-shaped message", RawRecord{Message: "{x}"}, ErrInvalidField},
		{"trailing colon before metadata", RawRecord{Message: "status:", Metadata: `{"a":"b"}`}, ErrInvalidField},
		{"tag-shaped message", RawRecord{Message: "SESSION_HEADER"}, ErrInvalidField},
		{"unbraced metadata", RawRecord{Metadata: "a=1"}, ErrInvalidField},
		{"unknown tag", RawRecord{Tag: Tag(9)}, ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.r.Tag, tt.r.Message, tt.r.Metadata)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsHeader(t *testing.T) {
	if !(RawRecord{Tag: SessionHeader}).IsHeader() {
		t.Error("tagged header not recognised")
	}
	if !(RawRecord{Metadata: "{}"}).IsHeader() {
		t.Error("bare metadata not recognised as header")
	}
	if (RawRecord{Message: "m", Metadata: "{}"}).IsHeader() {
		t.Error("data line treated as header")
	}
	if (RawRecord{Tag: SignpostBegin, Metadata: "{}"}).IsHeader() {
		t.Error("signpost treated as header")
	}
}

func TestParseTag(t *testing.T) {
	for _, tag := range []Tag{SessionHeader, SignpostBegin, SignpostEnd} {
		got, ok := ParseTag(tag.String())
		if !ok || got != tag {
			t.Errorf("ParseTag(%q) = %v, %v", tag.String(), got, ok)
		}
	}
	if _, ok := ParseTag("session_header"); ok {
		t.Error("tag match must be exact")
	}
}
