package schnorr

import (
	"fmt"
	"math/big"
	"strings"
)

// KeyRecord is the persisted artifact of one sign call. PublicKey and PrivateKey form a
// fresh pair per signature; FactorE and FactorY are the challenge and response.
type KeyRecord struct {
	ID         string
	PublicKey  *big.Int
	PrivateKey *big.Int
	FactorE    *big.Int
	FactorY    *big.Int
}

// Clone returns a deep copy that shares no big.Int with rec.
func (rec KeyRecord) Clone() KeyRecord {
	return KeyRecord{
		ID:         rec.ID,
		PublicKey:  cloneInt(rec.PublicKey),
		PrivateKey: cloneInt(rec.PrivateKey),
		FactorE:    cloneInt(rec.FactorE),
		FactorY:    cloneInt(rec.FactorY),
	}
}

// check reports ErrInvalidRecord when a value needed for verification is missing or
// negative.
func (rec KeyRecord) check() error {
	for _, f := range []struct {
		name string
		v    *big.Int
	}{
		{"public_key", rec.PublicKey},
		{"factor_e", rec.FactorE},
		{"factor_y", rec.FactorY},
	} {
		if f.v == nil {
			return fmt.Errorf("%w: %s is missing", ErrInvalidRecord, f.name)
		}
		if f.v.Sign() < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidRecord, f.name)
		}
	}
	return nil
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// FieldEncoding says how a KeyRecord field is rendered as text.
type FieldEncoding string

const (
	EncodingText FieldEncoding = "text"
	EncodingHex  FieldEncoding = "hex"
)

type RecordField struct {
	Name     string
	Encoding FieldEncoding
}

// KeyRecordFields is the storage layout of a KeyRecord. Stores persist values in exactly
// this order.
var KeyRecordFields = []RecordField{
	{Name: "id", Encoding: EncodingText},
	{Name: "public_key", Encoding: EncodingHex},
	{Name: "private_key", Encoding: EncodingHex},
	{Name: "factor_e", Encoding: EncodingHex},
	{Name: "factor_y", Encoding: EncodingHex},
}

// KeyRecordColumns returns the field names of KeyRecordFields.
func KeyRecordColumns() []string {
	out := make([]string, len(KeyRecordFields))
	for i, f := range KeyRecordFields {
		out[i] = f.Name
	}
	return out
}

// EncodeKeyRecord renders rec in KeyRecordFields order. Nil numbers encode as "".
func EncodeKeyRecord(rec KeyRecord) []string {
	return []string{
		rec.ID,
		encodeHex(rec.PublicKey),
		encodeHex(rec.PrivateKey),
		encodeHex(rec.FactorE),
		encodeHex(rec.FactorY),
	}
}

// DecodeKeyRecord is the inverse of EncodeKeyRecord.
func DecodeKeyRecord(values []string) (KeyRecord, error) {
	if len(values) != len(KeyRecordFields) {
		return KeyRecord{}, fmt.Errorf("%w: expected %d fields, got %d", ErrInvalidRecord, len(KeyRecordFields), len(values))
	}
	nums := make([]*big.Int, 0, len(values)-1)
	for i, raw := range values[1:] {
		v, err := decodeHex(raw)
		if err != nil {
			return KeyRecord{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, KeyRecordFields[i+1].Name, err)
		}
		nums = append(nums, v)
	}
	return KeyRecord{
		ID:         values[0],
		PublicKey:  nums[0],
		PrivateKey: nums[1],
		FactorE:    nums[2],
		FactorY:    nums[3],
	}, nil
}

func encodeHex(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.Text(16)
}

func decodeHex(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("not a hex integer: %q", s)
	}
	return v, nil
}

// ParseHexInt parses a radix-16 integer as written by the stores and the parameter file.
func ParseHexInt(s string) (*big.Int, error) {
	v, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("empty hex integer")
	}
	return v, nil
}
