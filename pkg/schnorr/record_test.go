package schnorr

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyRecordCodec(t *testing.T) {
	big1, ok := new(big.Int).SetString("f00dfacecafebabe0123456789abcdef00112233445566778899", 16)
	require.True(t, ok)

	rec := KeyRecord{
		ID:         "7b0c2c1e-1d2e-4c3f-9a6b-1f3f3c2f0a11",
		PublicKey:  big1,
		PrivateKey: big.NewInt(0),
		FactorE:    new(big.Int).Lsh(big.NewInt(1), 511),
		FactorY:    big.NewInt(255),
	}
	values := EncodeKeyRecord(rec)
	require.Len(t, values, len(KeyRecordFields))
	require.Equal(t, rec.ID, values[0])
	require.Equal(t, "ff", values[4])

	back, err := DecodeKeyRecord(values)
	require.NoError(t, err)
	require.Equal(t, rec.ID, back.ID)
	require.Zero(t, rec.PublicKey.Cmp(back.PublicKey))
	require.Zero(t, rec.PrivateKey.Cmp(back.PrivateKey))
	require.Zero(t, rec.FactorE.Cmp(back.FactorE))
	require.Zero(t, rec.FactorY.Cmp(back.FactorY))
}

func TestKeyRecordCodecNilAndErrors(t *testing.T) {
	back, err := DecodeKeyRecord(EncodeKeyRecord(KeyRecord{ID: "x"}))
	require.NoError(t, err)
	require.Nil(t, back.PublicKey)

	_, err = DecodeKeyRecord([]string{"id", "1"})
	require.ErrorIs(t, err, ErrInvalidRecord)

	_, err = DecodeKeyRecord([]string{"id", "zz", "1", "1", "1"})
	require.ErrorIs(t, err, ErrInvalidRecord)
	require.Contains(t, err.Error(), "public_key")
}

func TestKeyRecordColumns(t *testing.T) {
	require.Equal(t, []string{"id", "public_key", "private_key", "factor_e", "factor_y"}, KeyRecordColumns())
}

func TestKeyRecordClone(t *testing.T) {
	rec := KeyRecord{ID: "a", PublicKey: big.NewInt(5), FactorE: big.NewInt(6), FactorY: big.NewInt(7)}
	c := rec.Clone()
	c.PublicKey.SetInt64(50)
	require.Equal(t, int64(5), rec.PublicKey.Int64())
	require.Nil(t, c.PrivateKey)
}

func TestParseHexInt(t *testing.T) {
	v, err := ParseHexInt(" 1f ")
	require.NoError(t, err)
	require.Equal(t, int64(31), v.Int64())

	_, err = ParseHexInt("")
	require.Error(t, err)
	_, err = ParseHexInt("xyz")
	require.Error(t, err)
}
