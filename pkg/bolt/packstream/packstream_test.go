package packstream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	p := NewPacker()
	encoded, err := p.Pack(v)
	require.NoError(t, err)

	u := NewUnpacker()
	out, err := u.Unpack(encoded)
	require.NoError(t, err)
	return out
}

func TestRoundTripPrimitives(t *testing.T) {
	assert.Equal(t, nil, roundTrip(t, nil))
	assert.Equal(t, true, roundTrip(t, true))
	assert.Equal(t, false, roundTrip(t, false))
	assert.Equal(t, "hello", roundTrip(t, "hello"))
	assert.InDelta(t, 3.14, roundTrip(t, 3.14).(float64), 0.0000001)
}

func TestRoundTripIntegerWidths(t *testing.T) {
	cases := []int64{0, -1, -16, 127, -128, 128, -129, 32767, -32768, 32768, 2147483647, -2147483648, 2147483648, -9223372036854775808}
	for _, c := range cases {
		got := roundTrip(t, c)
		assert.Equal(t, c, got, "round trip of %d", c)
	}
}

func TestTinyIntUsesSingleByte(t *testing.T) {
	p := NewPacker()
	encoded, err := p.Pack(int64(42))
	require.NoError(t, err)
	if len(encoded) != 1 {
		t.Errorf("expected tiny int to encode in 1 byte, got %d bytes: %x", len(encoded), encoded)
	}
}

func TestRoundTripListAndMap(t *testing.T) {
	list := []any{int64(1), "two", 3.0, nil, true}
	got := roundTrip(t, list)
	assert.Equal(t, list, got)

	m := map[string]any{"a": int64(1), "b": "two"}
	gotMap := roundTrip(t, m)
	assert.Equal(t, m, gotMap)
}

func TestRoundTripByteArray(t *testing.T) {
	b := []byte{0x01, 0x02, 0xFF}
	got := roundTrip(t, b)
	gotBytes, ok := got.([]byte)
	require.True(t, ok)
	assert.True(t, bytes.Equal(b, gotBytes))
}

func TestDisabledByteArraysRejectsSerialization(t *testing.T) {
	p := NewPacker()
	p.DisableByteArrays()
	_, err := p.Pack([]byte{0x01})
	require.Error(t, err)
	var serErr *ErrSerialization
	if !assertIsSerializationError(err, &serErr) {
		t.Errorf("expected *ErrSerialization, got %T: %v", err, err)
	}
}

func assertIsSerializationError(err error, target **ErrSerialization) bool {
	se, ok := err.(*ErrSerialization)
	if !ok {
		return false
	}
	*target = se
	return true
}

func TestUnknownStructureFallsBackToGeneric(t *testing.T) {
	u := NewUnpacker()
	p := NewPacker()
	encoded, err := p.Pack(&Structure{Signature: 0x99, Fields: []any{int64(1), "x"}})
	require.NoError(t, err)

	out, err := u.Unpack(encoded)
	require.NoError(t, err)

	s, ok := out.(*Structure)
	require.True(t, ok)
	assert.Equal(t, byte(0x99), s.Signature)
	assert.Equal(t, []any{int64(1), "x"}, s.Fields)
}

func TestRegisteredMapperHydratesValue(t *testing.T) {
	u := NewUnpacker()
	u.RegisterMapper(0x01, func(fields []any) (any, error) {
		return fields[0], nil
	})
	p := NewPacker()
	encoded, err := p.Pack(&Structure{Signature: 0x01, Fields: []any{"hydrated"}})
	require.NoError(t, err)

	out, err := u.Unpack(encoded)
	require.NoError(t, err)
	assert.Equal(t, "hydrated", out)
}

func TestUnpackTrailingBytesIsError(t *testing.T) {
	u := NewUnpacker()
	_, err := u.Unpack([]byte{tagTrue, tagTrue})
	require.Error(t, err)
}
