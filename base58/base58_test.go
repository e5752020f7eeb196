package base58

import (
	"errors"
	"testing"
)

func TestRoundtrip(t *testing.T) {
	values := []uint64{0, 1, 57, 58, 1200337662771896320, 1<<63 - 1, ^uint64(0)}
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

func TestEncodeKnown(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "1"},
		{57, "z"},
		{58, "21"},
		{^uint64(0), "jpXCZedGfVQ"},
	}
	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"0", ErrInvalid},
		{"O", ErrInvalid},
		{"abcé", ErrInvalid},
		{"jpXCZedGfVR", ErrOverflow},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("Decode(%q) err = %v, want %v", tt.in, err, tt.want)
		}
	}
}
