package session

import (
	"bytes"
	"errors"
	"testing"
)

func TestCanonicalMessage(t *testing.T) {
	got := CanonicalMessage("temp_room", "21.5")
	want := "spaceapi-sensor-update\n9:temp_room,4:21.5,"
	if string(got) != want {
		t.Errorf("CanonicalMessage() = %q, want %q", got, want)
	}
}

func TestCanonicalMessage_Unambiguous(t *testing.T) {
	a := CanonicalMessage("ab", "c")
	b := CanonicalMessage("a", "bc")
	if bytes.Equal(a, b) {
		t.Error("different (key, value) splits must not produce the same message")
	}
}

func TestCanonicalMessage_EmptyValue(t *testing.T) {
	got := CanonicalMessage("k", "")
	if string(got) != "spaceapi-sensor-update\n1:k,0:," {
		t.Errorf("CanonicalMessage() = %q", got)
	}
}

func TestSign_KnownVector(t *testing.T) {
	secret := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	want := "69c6cfa0542e625c3ef81bdea32e5a5d54d1acf12ee2e81ff563d345004f1284"

	got, err := Sign(secret, "people_now_present", "3")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if got != want {
		t.Errorf("Sign() = %s, want %s", got, want)
	}

	other, _ := Sign(secret, "people_now_present", "4")
	if other == got {
		t.Error("different values must sign differently")
	}
}

func TestSign_MalformedSecret(t *testing.T) {
	for _, secret := range []string{"", "zz", "abc"} {
		if _, err := Sign(secret, "k", "v"); !errors.Is(err, ErrMalformedSecret) {
			t.Errorf("Sign(%q) error = %v, want ErrMalformedSecret", secret, err)
		}
	}
}

func TestDecodeSignature(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		wantErr bool
	}{
		{"valid", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff", false},
		{"uppercase", "00112233445566778899AABBCCDDEEFF00112233445566778899AABBCCDDEEFF", false},
		{"too short", "0011", true},
		{"not hex", "zz112233445566778899aabbccddeeff00112233445566778899aabbccddeeff", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSignature(tt.sig)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeSignature() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedSignature) {
				t.Errorf("decodeSignature() error = %v, want ErrMalformedSignature", err)
			}
		})
	}
}
