package crockford

import (
	"errors"
	"testing"
)

func TestRoundtrip(t *testing.T) {
	values := []uint64{0, 31, 32, 1200337662771896320, ^uint64(0)}
	for _, v := range values {
		s := Encode(v)
		got, err := Decode(s)
		if err != nil {
			t.Fatalf("Decode(%q): %v", s, err)
		}
		if got != v {
			t.Errorf("Decode(Encode(%d)) = %d", v, got)
		}
	}
}

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"Z", 31},
		{"10", 32},
		{"1-0", 32},
		{"iL", 33},
		{"o1", 1},
		{"fzzzzzzzzzzzz", ^uint64(0)},
	}
	for _, tt := range tests {
		got, err := Decode(tt.in)
		if err != nil {
			t.Fatalf("Decode(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Decode(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"u", ErrInvalid},
		{"*", ErrInvalid},
		{"g000000000000", ErrOverflow},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("Decode(%q) err = %v, want %v", tt.in, err, tt.want)
		}
	}
}
