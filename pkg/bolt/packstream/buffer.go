// Package packstream implements the PackStream v1 value codec used inside
// Bolt message bodies: pack(value) -> bytes and unpack(bytes) -> value,
// plus a registry of structure mappers that hydrate domain types from raw
// PackStream structures.
package packstream

import (
	"encoding/binary"
	"errors"
	"math"
)

// errDataNotEnough mirrors the "impossible under TCP, possible under
// adversarial channels" framing errors spec.md expects from the codec.
var errDataNotEnough = errors.New("packstream: data not enough")

// Buffer is a minimal growable byte buffer with independent read and write
// cursors. It is the "consumed buffer interface" spec.md §6 describes:
// readInt32, remaining/hasRemaining, readSlice(n), and big-endian integer
// writes, with allocation parameterized by an initial size hint.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer allocates a Buffer with capacity hint bytes pre-reserved.
func NewBuffer(hint int) *Buffer {
	if hint < 0 {
		hint = 0
	}
	return &Buffer{data: make([]byte, 0, hint)}
}

// WrapBuffer views an existing byte slice as a readable Buffer.
func WrapBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the buffer's full backing slice (not just the unread tail).
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes held in the buffer, read or unread.
// Compact removes the read prefix from this count.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// HasRemaining reports whether any unread bytes remain.
func (b *Buffer) HasRemaining() bool {
	return b.Remaining() > 0
}

// ReadSlice returns the next n bytes without copying and advances the
// cursor. The returned slice aliases the buffer; callers that retain it
// across further writes must copy.
func (b *Buffer) ReadSlice(n int) ([]byte, error) {
	if n < 0 || b.Remaining() < n {
		return nil, errDataNotEnough
	}
	s := b.data[b.pos : b.pos+n]
	b.pos += n
	return s, nil
}

// ReadByte reads a single byte.
func (b *Buffer) ReadByte() (byte, error) {
	s, err := b.ReadSlice(1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// PeekByte returns the next byte without advancing the cursor.
func (b *Buffer) PeekByte() (byte, error) {
	if !b.HasRemaining() {
		return 0, errDataNotEnough
	}
	return b.data[b.pos], nil
}

// ReadUint16 reads a big-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	s, err := b.ReadSlice(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(s), nil
}

// ReadUint32 reads a big-endian uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	s, err := b.ReadSlice(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(s), nil
}

// ReadInt32 reads a big-endian signed int32, as named by spec.md §6.
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads a big-endian signed int64.
func (b *Buffer) ReadInt64() (int64, error) {
	s, err := b.ReadSlice(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(s)), nil
}

// ReadFloat64 reads a big-endian IEEE-754 double.
func (b *Buffer) ReadFloat64() (float64, error) {
	s, err := b.ReadSlice(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(s)), nil
}

// Tail returns the unread suffix of the buffer without copying or
// advancing the cursor.
func (b *Buffer) Tail() []byte {
	return b.data[b.pos:]
}

// Pos returns the current read cursor, for callers that need to rewind a
// tentative, incomplete read (see Seek).
func (b *Buffer) Pos() int {
	return b.pos
}

// Seek repositions the read cursor, e.g. to undo a tentative read that
// turned out to be incomplete.
func (b *Buffer) Seek(pos int) {
	b.pos = pos
}

// Append appends more bytes to the buffer without disturbing the read
// cursor, for incrementally feeding inbound data to a reader that
// consumes it as it arrives.
func (b *Buffer) Append(more []byte) {
	b.data = append(b.data, more...)
}

// Compact discards the already-read prefix, so a long-lived Buffer fed
// incrementally (the Dechunker's accumulator) doesn't grow without bound.
func (b *Buffer) Compact() {
	if b.pos == 0 {
		return
	}
	n := copy(b.data, b.data[b.pos:])
	b.data = b.data[:n]
	b.pos = 0
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(v byte) {
	b.data = append(b.data, v)
}

// WriteBytes appends a raw slice.
func (b *Buffer) WriteBytes(v []byte) {
	b.data = append(b.data, v...)
}

// WriteUint16 appends a big-endian uint16.
func (b *Buffer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteUint32 appends a big-endian uint32.
func (b *Buffer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteInt64 appends a big-endian signed int64.
func (b *Buffer) WriteInt64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	b.data = append(b.data, tmp[:]...)
}

// WriteFloat64 appends a big-endian IEEE-754 double.
func (b *Buffer) WriteFloat64(v float64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.data = append(b.data, tmp[:]...)
}
