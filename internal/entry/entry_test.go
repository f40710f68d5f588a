package entry

import "testing"

func TestParseLevel(t *testing.T) {
	for _, l := range Levels {
		got, err := ParseLevel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLevel(%q) = %v, %v", l.String(), got, err)
		}
	}
	if got, _ := ParseLevel("WARN"); got != Warning {
		t.Errorf("WARN parsed as %v", got)
	}
	if _, err := ParseLevel("fatal"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{"1.0.0", Version{1, 0, 0}, true},
		{"v2.3", Version{2, 3, 0}, true},
		{"7", Version{7, 0, 0}, true},
		{"1.2.3.4", Version{}, false},
		{"n/a", Version{}, false},
		{"", Version{}, false},
		{"1.-1", Version{}, false},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseVersion(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVersionCompare(t *testing.T) {
	a := MustParseVersion("1.2.3")
	b := MustParseVersion("1.10.0")
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Fatalf("bad ordering between %v and %v", a, b)
	}
}

func TestSignpostText(t *testing.T) {
	s := &Signpost{Marker: Begin, Group: "network"}
	if s.Text() != "network begin" {
		t.Fatalf("Text = %q", s.Text())
	}
	s.Message = "fetch"
	if s.Text() != "network begin: fetch" {
		t.Fatalf("Text = %q", s.Text())
	}
}
