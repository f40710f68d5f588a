package crypt

import (
	"errors"
	"strings"
	"testing"
)

func TestAESGCMRoundTrip(t *testing.T) {
	c, err := NewAESGCM("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	line := `SESSION_HEADER:::{"sessionNumber":"1","version":"1.0.0"}`
	enc, err := c.Encrypt(line)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(enc, "\n:") {
		t.Fatalf("ciphertext must be a single line without colons: %q", enc)
	}
	dec, err := c.Decrypt(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec != line {
		t.Fatalf("got %q, want %q", dec, line)
	}
}

func TestAESGCMWrongKey(t *testing.T) {
	a, _ := NewAESGCM("key-a")
	b, _ := NewAESGCM("key-b")
	enc, err := a.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Decrypt(enc); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
	if _, err := b.Decrypt("plain text line"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for plaintext, got %v", err)
	}
}

func TestFromKey(t *testing.T) {
	c, err := FromKey("")
	if err != nil || c != nil {
		t.Fatalf("FromKey(\"\") = %v, %v", c, err)
	}
	c, err = FromKey("k")
	if err != nil || c == nil {
		t.Fatalf("FromKey(k) = %v, %v", c, err)
	}
}

func TestNop(t *testing.T) {
	var c Cipher = Nop{}
	got, _ := c.Encrypt("x")
	back, _ := c.Decrypt(got)
	if got != "x" || back != "x" {
		t.Fatalf("Nop changed text: %q %q", got, back)
	}
}
