// Package base58 encodes uint64 values with the Bitcoin alphabet, which
// leaves out 0, O, I and l.
package base58

import "errors"

const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// maxLen is the encoded length of math.MaxUint64.
const maxLen = 11

var decode [128]int8

func init() {
	for i := range decode {
		decode[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		decode[alphabet[i]] = int8(i)
	}
}

var (
	// ErrInvalid is returned when decoding a string with characters outside the alphabet.
	ErrInvalid = errors.New("snowflake: invalid base58 character")
	// ErrOverflow is returned when a decoded value does not fit in 64 bits.
	ErrOverflow = errors.New("snowflake: base58 value overflows uint64")
)

// Encode returns the base58 encoding of n.
func Encode(n uint64) string {
	if n == 0 {
		return alphabet[:1]
	}
	var buf [maxLen]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%58]
		n /= 58
	}
	return string(buf[i:])
}

// Decode parses a base58 string.
func Decode(s string) (uint64, error) {
	if len(s) > maxLen {
		return 0, ErrOverflow
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || decode[c] < 0 {
			return 0, ErrInvalid
		}
		v := uint64(decode[c])
		if n > (^uint64(0)-v)/58 {
			return 0, ErrOverflow
		}
		n = n*58 + v
	}
	return n, nil
}
