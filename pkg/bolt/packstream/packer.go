package packstream

import (
	"fmt"
)

// Structure is the generic (signature, fields) shape spec.md §4.2 requires
// for signatures with no registered mapper, and the wire shape every
// registered mapper starts from before hydration.
type Structure struct {
	Signature byte
	Fields    []any
}

// ErrSerialization is returned when a value cannot be represented on the
// wire, e.g. a []byte when byte arrays have been disabled for a
// pre-3.2.0 server (spec.md §4.2, §7).
type ErrSerialization struct {
	Reason string
}

func (e *ErrSerialization) Error() string {
	return "packstream: serialization error: " + e.Reason
}

// Packer encodes values to PackStream's binary form.
type Packer struct {
	byteArraysDisabled bool
}

// NewPacker returns a Packer with byte arrays enabled (server >= 3.2.0).
func NewPacker() *Packer {
	return &Packer{}
}

// DisableByteArrays instructs the Packer to reject byte-array values from
// now on, per spec.md §4.2's server-version gate.
func (p *Packer) DisableByteArrays() {
	p.byteArraysDisabled = true
}

// Pack encodes v and returns the encoded bytes.
func (p *Packer) Pack(v any) ([]byte, error) {
	buf := NewBuffer(32)
	if err := p.PackInto(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PackInto encodes v, appending to buf.
func (p *Packer) PackInto(buf *Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteByte(tagNull)
		return nil
	case bool:
		if val {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
		return nil
	case int:
		return p.packInt(buf, int64(val))
	case int8:
		return p.packInt(buf, int64(val))
	case int16:
		return p.packInt(buf, int64(val))
	case int32:
		return p.packInt(buf, int64(val))
	case int64:
		return p.packInt(buf, val)
	case float32:
		return p.packFloat(buf, float64(val))
	case float64:
		return p.packFloat(buf, val)
	case string:
		return p.packString(buf, val)
	case []byte:
		return p.packBytes(buf, val)
	case []any:
		return p.packList(buf, val)
	case map[string]any:
		return p.packMap(buf, val)
	case *Structure:
		return p.packStruct(buf, val.Signature, val.Fields)
	case Structure:
		return p.packStruct(buf, val.Signature, val.Fields)
	default:
		return &ErrSerialization{Reason: fmt.Sprintf("unrepresentable type %T", v)}
	}
}

func (p *Packer) packInt(buf *Buffer, v int64) error {
	switch {
	case v >= -16 && v <= 127:
		buf.WriteByte(byte(v))
	case v >= -128 && v <= 127:
		buf.WriteByte(tagInt8)
		buf.WriteByte(byte(v))
	case v >= -32768 && v <= 32767:
		buf.WriteByte(tagInt16)
		buf.WriteUint16(uint16(v))
	case v >= -2147483648 && v <= 2147483647:
		buf.WriteByte(tagInt32)
		buf.WriteUint32(uint32(v))
	default:
		buf.WriteByte(tagInt64)
		buf.WriteInt64(v)
	}
	return nil
}

func (p *Packer) packFloat(buf *Buffer, v float64) error {
	buf.WriteByte(tagFloat64)
	buf.WriteFloat64(v)
	return nil
}

func (p *Packer) packString(buf *Buffer, s string) error {
	b := []byte(s)
	n := len(b)
	switch {
	case n <= 15:
		buf.WriteByte(byte(tagTinyStringMin | n))
	case n <= 0xFF:
		buf.WriteByte(tagString8)
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(tagString16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(tagString32)
		buf.WriteUint32(uint32(n))
	}
	buf.WriteBytes(b)
	return nil
}

func (p *Packer) packBytes(buf *Buffer, b []byte) error {
	if p.byteArraysDisabled {
		return &ErrSerialization{Reason: "byte arrays not supported by server < 3.2.0"}
	}
	n := len(b)
	switch {
	case n <= 0xFF:
		buf.WriteByte(tagBytes8)
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(tagBytes16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(tagBytes32)
		buf.WriteUint32(uint32(n))
	}
	buf.WriteBytes(b)
	return nil
}

func (p *Packer) packList(buf *Buffer, list []any) error {
	n := len(list)
	switch {
	case n <= 15:
		buf.WriteByte(byte(tagTinyListMin | n))
	case n <= 0xFF:
		buf.WriteByte(tagList8)
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(tagList16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(tagList32)
		buf.WriteUint32(uint32(n))
	}
	for _, item := range list {
		if err := p.PackInto(buf, item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packMap(buf *Buffer, m map[string]any) error {
	n := len(m)
	switch {
	case n <= 15:
		buf.WriteByte(byte(tagTinyMapMin | n))
	case n <= 0xFF:
		buf.WriteByte(tagMap8)
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(tagMap16)
		buf.WriteUint16(uint16(n))
	default:
		buf.WriteByte(tagMap32)
		buf.WriteUint32(uint32(n))
	}
	for k, v := range m {
		if err := p.packString(buf, k); err != nil {
			return err
		}
		if err := p.PackInto(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packStruct(buf *Buffer, sig byte, fields []any) error {
	n := len(fields)
	if n > 15 {
		return &ErrSerialization{Reason: "too many structure fields"}
	}
	buf.WriteByte(byte(tagTinyStructMin | n))
	buf.WriteByte(sig)
	for _, f := range fields {
		if err := p.PackInto(buf, f); err != nil {
			return err
		}
	}
	return nil
}
