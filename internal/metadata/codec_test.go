package metadata

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func sampleMap() Map {
	return Map{
		"timestamp": String("16-10-2026 10:00:00.000+0000"),
		"line":      Scalar("42"),
		"ok":        Scalar("true"),
		"ratio":     Scalar("-0.5"),
		"tags":      List(String("a"), Scalar("1"), List()),
		"request": Nested(Map{
			"id":      String("r-1"),
			"retries": Scalar("3"),
			"inner":   Nested(Map{"deep": List(Nested(Map{"x": String("y")}))}),
		}),
	}
}

func TestEncodeSortsKeys(t *testing.T) {
	got, err := Encode(Map{"b": String("2"), "a": Scalar("1"), "c": Nested(Map{"z": String("z"), "y": String("y")})})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":1,"b":"2","c":{"y":"y","z":"z"}}`
	if got != want {
		t.Fatalf("Encode = %s, want %s", got, want)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	m := sampleMap()
	first, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := Encode(m)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("run %d: %s != %s", i, again, first)
		}
	}
	if strings.Contains(first, "\n") {
		t.Fatalf("encoded blob spans lines: %q", first)
	}
}

func TestRoundTrip(t *testing.T) {
	m := sampleMap()
	blob, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(m) {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", Nested(got), Nested(m))
	}
}

func TestEncodeNeverContainsSeparator(t *testing.T) {
	m := Map{"msg": String("a:::b"), "k:::": String("v")}
	blob, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(blob, ":::") {
		t.Fatalf("blob contains separator: %s", blob)
	}
	got, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(m) {
		t.Fatalf("round trip mismatch: %v", Nested(got))
	}
}

func TestNonLiteralScalarIsString(t *testing.T) {
	for _, text := range []string{"not a number", "NaN", "+Inf", "01", "1.5s"} {
		v := Scalar(text)
		if v.Kind() != KindString {
			t.Errorf("Scalar(%q) kind = %v, want string", text, v.Kind())
		}
	}
	blob, err := Encode(Map{"v": Scalar("not a number")})
	if err != nil {
		t.Fatal(err)
	}
	if blob != `{"v":"not a number"}` {
		t.Fatalf("got %s", blob)
	}
}

func TestFromRoundTrip(t *testing.T) {
	for _, in := range []any{
		time.Second,
		time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
		math.NaN(),
		math.Inf(1),
		math.Inf(-1),
		42,
		-0.25,
		true,
		"x",
		[]any{time.Minute, 1},
	} {
		v, err := From(in)
		if err != nil {
			t.Fatalf("From(%v): %v", in, err)
		}
		blob, err := Encode(Map{"v": v})
		if err != nil {
			t.Fatalf("Encode(%v): %v", in, err)
		}
		got, err := Decode(blob)
		if err != nil {
			t.Fatalf("Decode(%s): %v", blob, err)
		}
		if !got["v"].Equal(v) {
			t.Errorf("%v: decoded %v, want %v", in, got["v"], v)
		}
	}
}

func TestEncodeZeroValue(t *testing.T) {
	if _, err := Encode(Map{"bad": {}}); !errors.Is(err, ErrUnsupportedLeaf) {
		t.Fatalf("expected ErrUnsupportedLeaf, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want error
	}{
		{"empty", "", ErrMalformed},
		{"not json", "{nope", ErrMalformed},
		{"array", "[1,2]", ErrMalformed},
		{"trailing", `{"a":1} x`, ErrMalformed},
		{"null leaf", `{"a":null}`, ErrUnsupportedLeaf},
		{"nested null", `{"a":[1,{"b":null}]}`, ErrUnsupportedLeaf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode(%q) = %v, want %v", tt.blob, err, tt.want)
			}
		})
	}
}

func TestDecodeKinds(t *testing.T) {
	m, err := Decode(`{"s":"x","n":12,"b":false,"l":[],"m":{}}`)
	if err != nil {
		t.Fatal(err)
	}
	kinds := map[string]Kind{"s": KindString, "n": KindScalar, "b": KindScalar, "l": KindList, "m": KindMap}
	for k, want := range kinds {
		if got := m[k].Kind(); got != want {
			t.Errorf("%s: kind %s, want %s", k, got, want)
		}
	}
	if text, _ := m["n"].Text(); text != "12" {
		t.Errorf("scalar text = %q", text)
	}
}

func TestFrom(t *testing.T) {
	v, err := From(map[string]any{
		"count":   7,
		"enabled": true,
		"name":    "svc",
		"wait":    1500 * time.Millisecond,
		"list":    []any{1.5, "x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Nested(Map{
		"count":   Scalar("7"),
		"enabled": Scalar("true"),
		"name":    String("svc"),
		"wait":    String("1.5s"),
		"list":    List(Scalar("1.5"), String("x")),
	})
	if !v.Equal(want) {
		t.Fatalf("From = %v, want %v", v, want)
	}

	if _, err := From(struct{}{}); !errors.Is(err, ErrUnsupportedLeaf) {
		t.Fatalf("expected ErrUnsupportedLeaf, got %v", err)
	}
}

func TestLeaves(t *testing.T) {
	var seen []string
	sampleMap().Leaves(func(text string) bool {
		seen = append(seen, text)
		return true
	})
	found := false
	for _, s := range seen {
		if s == "y" {
			found = true
		}
	}
	if !found {
		t.Fatalf("deep leaf not visited: %v", seen)
	}
}
