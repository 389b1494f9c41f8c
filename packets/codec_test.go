// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadVarint(t *testing.T) {
	tests := []struct {
		desc string
		raw  []byte
		n    int
	}{
		{desc: "zero", raw: []byte{0x00}, n: 0},
		{desc: "single byte max", raw: []byte{0x7F}, n: 127},
		{desc: "two bytes", raw: []byte{0x80, 0x01}, n: 128},
		{desc: "two bytes max", raw: []byte{0xFF, 0x7F}, n: 16_383},
		{desc: "three bytes", raw: []byte{0x80, 0x80, 0x01}, n: 16_384},
		{desc: "four bytes max", raw: []byte{0xFF, 0xFF, 0xFF, 0x7F}, n: 268_435_455},
		{desc: "non-minimal encoding accepted", raw: []byte{0x81, 0x00}, n: 1},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			r := NewReader(tt.raw)
			n, err := r.ReadVarint()
			require.NoError(t, err)
			require.Equal(t, tt.n, n)
			require.Equal(t, 0, r.Remaining())
		})
	}
}

func TestReadVarintTooLong(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F})
	_, err := r.ReadVarint()
	require.ErrorIs(t, err, ErrMalformedVariableByteInteger)
}

func TestReadVarintTruncated(t *testing.T) {
	r := NewReader([]byte{0x80})
	_, err := r.ReadVarint()
	require.ErrorIs(t, err, ErrMalformedInsufficientData)
}

func TestWriteVarint(t *testing.T) {
	tests := []struct {
		n   int
		raw []byte
	}{
		{n: 0, raw: []byte{0x00}},
		{n: 127, raw: []byte{0x7F}},
		{n: 128, raw: []byte{0x80, 0x01}},
		{n: 16_383, raw: []byte{0xFF, 0x7F}},
		{n: 2_097_152, raw: []byte{0x80, 0x80, 0x80, 0x01}},
		{n: 268_435_455, raw: []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		w := NewWriter(make([]byte, 4))
		require.NoError(t, w.WriteVarint(tt.n))
		require.Equal(t, tt.raw, w.Bytes())
	}
}

func TestWriteVarintOutOfRange(t *testing.T) {
	w := NewWriter(make([]byte, 8))
	require.ErrorIs(t, w.WriteVarint(268_435_456), ErrMalformedVariableByteInteger)
	require.ErrorIs(t, w.WriteVarint(-1), ErrMalformedVariableByteInteger)
}

func TestReadString(t *testing.T) {
	r := NewReader([]byte{0x00, 0x06, 'p', 'e', 't', 'r', 'e', 'l'})
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "petrel", s)
}

func TestReadStringInvalidUTF8(t *testing.T) {
	r := NewReader([]byte{0x00, 0x02, 0xC3, 0x28})
	_, err := r.ReadString()
	require.ErrorIs(t, err, ErrMalformedInvalidUTF8)
}

func TestReadStringNullCharacter(t *testing.T) {
	r := NewReader([]byte{0x00, 0x03, 'a', 0x00, 'b'})
	_, err := r.ReadString()
	require.ErrorIs(t, err, ErrMalformedInvalidUTF8)
}

func TestReadStringTruncated(t *testing.T) {
	r := NewReader([]byte{0x00, 0x05, 'm', 'o'})
	_, err := r.ReadString()
	require.ErrorIs(t, err, ErrMalformedInsufficientData)
}

func TestReadStringPair(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01, 'k', 0x00, 0x01, 'v'})
	k, v, err := r.ReadStringPair()
	require.NoError(t, err)
	require.Equal(t, "k", k)
	require.Equal(t, "v", v)
}

func TestReadBinaryBorrows(t *testing.T) {
	buf := []byte{0x00, 0x02, 0xAB, 0xCD}
	r := NewReader(buf)
	b, err := r.ReadBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{0xAB, 0xCD}, b)

	// Returned slices are views into the read buffer.
	buf[2] = 0xFF
	require.Equal(t, byte(0xFF), b[0])
}

func TestReadUints(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x00, 0x00, 0x01, 0x00})
	u16, err := r.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(258), u16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(256), u32)

	_, err = r.ReadByte()
	require.ErrorIs(t, err, ErrMalformedInsufficientData)
}

func TestWriterCapacity(t *testing.T) {
	w := NewWriter(make([]byte, 2))
	require.NoError(t, w.WriteUint16(0xABCD))
	require.ErrorIs(t, w.WriteByte(0x01), ErrInsufficientCapacity)
	require.ErrorIs(t, w.WriteUint16(0x0001), ErrInsufficientCapacity)
	require.ErrorIs(t, w.Put([]byte{0x01}), ErrInsufficientCapacity)
	require.Equal(t, []byte{0xAB, 0xCD}, w.Bytes())
}

func TestWriteStringTooLong(t *testing.T) {
	w := NewWriter(make([]byte, 70_000))
	require.ErrorIs(t, w.WriteString(string(make([]byte, 65_536))), ErrMalformedStringTooLong)
	require.ErrorIs(t, w.WriteBinary(make([]byte, 65_536)), ErrMalformedBinaryTooLong)
}

func TestWritePrefixed(t *testing.T) {
	w := NewWriter(make([]byte, 16))
	err := writePrefixed(w, func(w *Writer) error {
		return w.Put([]byte{0x01, 0x02, 0x03})
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x03, 0x01, 0x02, 0x03}, w.Bytes())
}

func TestWritePrefixedMultiByteLength(t *testing.T) {
	body := make([]byte, 200)
	w := NewWriter(make([]byte, 256))
	err := writePrefixed(w, func(w *Writer) error {
		return w.Put(body)
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0xC8, 0x01}, w.Bytes()[:2])
	require.Equal(t, 202, w.Len())
}

func TestVarintLen(t *testing.T) {
	require.Equal(t, 1, varintLen(0))
	require.Equal(t, 1, varintLen(127))
	require.Equal(t, 2, varintLen(128))
	require.Equal(t, 2, varintLen(16_383))
	require.Equal(t, 3, varintLen(16_384))
	require.Equal(t, 3, varintLen(2_097_151))
	require.Equal(t, 4, varintLen(2_097_152))
}
