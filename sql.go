package snowflake

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/json"

	"github.com/lib/pq"
)

// NullID represents an ID column that may be NULL.
type NullID struct {
	ID    ID
	Valid bool
}

// NewNullID returns a NullID that is valid unless id is Nil.
func NewNullID(id ID) NullID {
	return NullID{ID: id, Valid: !id.IsNil()}
}

// Compile-time interface checks for NullID and IDs
var (
	_ driver.Valuer            = NullID{}
	_ sql.Scanner              = (*NullID)(nil)
	_ json.Marshaler           = NullID{}
	_ json.Unmarshaler         = (*NullID)(nil)
	_ encoding.TextMarshaler   = NullID{}
	_ encoding.TextUnmarshaler = (*NullID)(nil)
	_ driver.Valuer            = IDs(nil)
	_ sql.Scanner              = (*IDs)(nil)
)

func (n NullID) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.ID.Value()
}

func (n *NullID) Scan(src interface{}) error {
	if src == nil {
		*n = NullID{}
		return nil
	}
	if err := n.ID.Scan(src); err != nil {
		*n = NullID{}
		return err
	}
	n.Valid = true
	return nil
}

var nullJSON = []byte("null")

// MarshalJSON renders an invalid NullID as null.
func (n NullID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return nullJSON, nil
	}
	return n.ID.MarshalJSON()
}

func (n *NullID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullID{}
		return nil
	}
	err := n.ID.UnmarshalJSON(b)
	n.Valid = err == nil
	return err
}

// MarshalText renders an invalid NullID as empty text.
func (n NullID) MarshalText() ([]byte, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.ID.MarshalText()
}

func (n *NullID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*n = NullID{}
		return nil
	}
	err := n.ID.UnmarshalText(b)
	n.Valid = err == nil
	return err
}

// IDs maps to a Postgres bigint[] column.
type IDs []ID

func (ids IDs) Value() (driver.Value, error) {
	if ids == nil {
		return nil, nil
	}
	arr := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		arr[i] = id.Int64()
	}
	return arr.Value()
}

func (ids *IDs) Scan(src interface{}) error {
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return err
	}
	if arr == nil {
		*ids = nil
		return nil
	}
	out := make(IDs, len(arr))
	for i, v := range arr {
		out[i] = ID(v)
	}
	*ids = out
	return nil
}
