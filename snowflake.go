// Package snowflake allocates 64-bit, roughly time-ordered IDs. Each ID packs
// a millisecond timestamp relative to Epoch, a 5-bit datacenter ID, a 5-bit
// node ID and a 12-bit per-millisecond sequence.
//
//	gen := snowflake.NewGenerator()
//	if err := gen.Configure(1, 7); err != nil {
//		return err
//	}
//	id, err := gen.NextID() // "1200337662771896320"
package snowflake

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/base64"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paraglidehq/snowflake/base58"
	"github.com/paraglidehq/snowflake/crockford"
)

// Compile-time interface checks for ID
var (
	_ fmt.Stringer               = ID(0)
	_ driver.Valuer              = ID(0)
	_ sql.Scanner                = (*ID)(nil)
	_ encoding.TextMarshaler     = ID(0)
	_ encoding.TextUnmarshaler   = (*ID)(nil)
	_ encoding.BinaryMarshaler   = ID(0)
	_ encoding.BinaryUnmarshaler = (*ID)(nil)
	_ json.Marshaler             = ID(0)
	_ json.Unmarshaler           = (*ID)(nil)
	_ gob.GobEncoder             = ID(0)
	_ gob.GobDecoder             = (*ID)(nil)
)

type Format string

const (
	FormatDecimal   Format = "decimal"
	FormatBase58    Format = "base58"
	FormatCrockford Format = "crockford"
	FormatBase64    Format = "base64"
	FormatHash      Format = "hash"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatDecimal, FormatBase58, FormatCrockford, FormatBase64, FormatHash:
		return f, nil
	default:
		return "", fmt.Errorf("snowflake: unknown format %q", s)
	}
}

// ID is a 64-bit millisecond-precision time-ordered identifier.
// IDs order correctly when compared as unsigned integers.
type ID uint64

var Nil ID = 0

func (id ID) Uint64() uint64 {
	return uint64(id)
}

// Int64 returns the bit pattern of the ID as an int64, as stored in BIGINT columns.
func (id ID) Int64() int64 {
	return int64(id)
}

func (id ID) IsNil() bool {
	return id == Nil
}

// Bytes returns the ID as an 8-byte big-endian slice.
func (id ID) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func (id ID) String() string {
	return id.Format(DefaultFormat)
}

func (id ID) Format(f Format) string {
	switch f {
	case FormatBase58:
		return base58.Encode(uint64(id))
	case FormatCrockford:
		return crockford.Encode(uint64(id))
	case FormatBase64:
		return base64.StdEncoding.EncodeToString(id.Bytes())
	case FormatHash:
		return strconv.FormatUint(uint64(id), 16)
	default:
		return strconv.FormatUint(uint64(id), 10)
	}
}

// UnixMilli returns the allocation time encoded in the ID, in milliseconds
// since the Unix epoch.
func (id ID) UnixMilli() int64 {
	return int64(uint64(id)>>TimeShift) + Epoch
}

func (id ID) Datacenter() int64 {
	return int64(uint64(id)>>DatacenterShift) & MaxDatacenterID
}

func (id ID) Node() int64 {
	return int64(uint64(id)>>NodeShift) & MaxNodeID
}

func (id ID) Seq() int64 {
	return int64(uint64(id)) & MaxSeq
}

// Compose builds an ID from its fields.
func Compose(unixMilli, datacenterID, nodeID, seq int64) (ID, error) {
	if err := validateField("datacenter_id", datacenterID, MaxDatacenterID); err != nil {
		return Nil, err
	}
	if err := validateField("node_id", nodeID, MaxNodeID); err != nil {
		return Nil, err
	}
	delta := unixMilli - Epoch
	if delta < 0 || delta > maxTimestampDelta {
		return Nil, fmt.Errorf("%w: timestamp %d outside [%d, %d]", ErrFieldRange, unixMilli, Epoch, Epoch+maxTimestampDelta)
	}
	if seq < 0 || seq > MaxSeq {
		return Nil, fmt.Errorf("%w: sequence %d outside [0, %d]", ErrFieldRange, seq, MaxSeq)
	}
	return compose(delta, datacenterID, nodeID, seq), nil
}

func compose(delta, datacenterID, nodeID, seq int64) ID {
	return ID(uint64(delta)<<TimeShift |
		uint64(datacenterID)<<DatacenterShift |
		uint64(nodeID)<<NodeShift |
		uint64(seq))
}

// MarshalText implements encoding.TextMarshaler
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. IDs are always quoted so that
// JavaScript clients do not lose precision.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = Nil
		return nil
	}
	// Bare JSON number
	if len(b) > 0 && b[0] != '"' {
		n, err := strconv.ParseUint(string(b), 10, 64)
		if err != nil {
			return errors.New("snowflake: invalid JSON value")
		}
		*id = ID(n)
		return nil
	}
	if len(b) < 2 || b[len(b)-1] != '"' {
		return errors.New("snowflake: invalid JSON string")
	}
	return id.UnmarshalText(b[1 : len(b)-1])
}

// Value implements driver.Valuer. The ID is stored as its int64 bit pattern,
// which is lossless for BIGINT columns.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// Scan implements sql.Scanner for database retrieval
func (id *ID) Scan(src interface{}) error {
	if src == nil {
		*id = Nil
		return nil
	}
	switch v := src.(type) {
	case ID:
		*id = v
		return nil
	case int64:
		*id = ID(v)
		return nil
	case uint64:
		*id = ID(v)
		return nil
	case []byte:
		return id.UnmarshalText(v)
	case string:
		return id.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("snowflake: cannot scan %T", src)
	}
}

// Parse parses a string into an ID using DefaultFormat.
func Parse(s string) (ID, error) {
	return ParseFormatted(s, DefaultFormat)
}

// ParseFormatted parses a string encoded with the given format.
func ParseFormatted(s string, f Format) (ID, error) {
	switch f {
	case FormatBase58:
		return ParseBase58(s)
	case FormatCrockford:
		return ParseCrockford(s)
	case FormatBase64:
		return ParseBase64(s)
	case FormatHash:
		return ParseHash(s)
	default:
		return ParseDecimal(s)
	}
}

// ParseDecimal parses a base-10 string into an ID.
func ParseDecimal(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("snowflake: empty string")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Nil, fmt.Errorf("snowflake: invalid decimal: %w", err)
	}
	return ID(n), nil
}

// ParseBase58 parses a base58-encoded string into an ID.
func ParseBase58(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("snowflake: empty string")
	}
	n, err := base58.Decode(s)
	if err != nil {
		return Nil, err
	}
	return ID(n), nil
}

// ParseCrockford parses a Crockford base32 string into an ID.
func ParseCrockford(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("snowflake: empty string")
	}
	n, err := crockford.Decode(s)
	if err != nil {
		return Nil, err
	}
	return ID(n), nil
}

// ParseBase64 parses a base64-encoded string into an ID.
func ParseBase64(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("snowflake: empty string")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Nil, fmt.Errorf("snowflake: invalid base64: %w", err)
	}
	return FromBytes(b)
}

// ParseHash parses a hex string of 1-16 digits into an ID.
func ParseHash(s string) (ID, error) {
	if len(s) == 0 || len(s) > 16 {
		return Nil, errors.New("snowflake: hex string must be 1-16 characters")
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Nil, errors.New("snowflake: invalid hex string")
	}
	return ID(n), nil
}

// Parse parses a string into the ID receiver.
func (id *ID) Parse(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// FromString returns an ID parsed from the input string.
// Alias for Parse.
func FromString(s string) (ID, error) {
	return Parse(s)
}

// FromStringOrNil returns an ID parsed from the input string.
// Returns Nil on error.
func FromStringOrNil(s string) ID {
	id, err := Parse(s)
	if err != nil {
		return Nil
	}
	return id
}

// FromBytes returns an ID from an 8-byte big-endian slice.
func FromBytes(b []byte) (ID, error) {
	if len(b) != 8 {
		return Nil, fmt.Errorf("snowflake: ID must be exactly 8 bytes, got %d", len(b))
	}
	return ID(binary.BigEndian.Uint64(b)), nil
}

// FromBytesOrNil returns an ID from an 8-byte slice.
// Returns Nil on error.
func FromBytesOrNil(b []byte) ID {
	id, err := FromBytes(b)
	if err != nil {
		return Nil
	}
	return id
}

func FromUint64(n uint64) ID {
	return ID(n)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	return id.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	parsed, err := FromBytes(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// GobEncode implements gob.GobEncoder.
func (id ID) GobEncode() ([]byte, error) {
	return id.MarshalBinary()
}

// GobDecode implements gob.GobDecoder.
func (id *ID) GobDecode(data []byte) error {
	return id.UnmarshalBinary(data)
}

// Must panics if err is not nil
func Must(id ID, err error) ID {
	if err != nil {
		panic(err)
	}
	return id
}
