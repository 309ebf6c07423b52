package packstream

import "fmt"

// StructMapper hydrates a domain value from a structure's raw fields.
// Registered per signature byte by the Connection (spec.md §4.2, §4.3).
type StructMapper func(fields []any) (any, error)

// Unpacker decodes PackStream-encoded bytes into Go values.
//
// Values decode to: nil, bool, int64, float64, string, []byte, []any,
// map[string]any, or whatever a registered StructMapper returns (a
// *Structure for signatures with no mapper registered).
type Unpacker struct {
	mappers map[byte]StructMapper
}

// NewUnpacker returns an Unpacker with no structure mappers registered.
func NewUnpacker() *Unpacker {
	return &Unpacker{mappers: make(map[byte]StructMapper)}
}

// RegisterMapper binds sig to a StructMapper. Registering again for the
// same signature replaces the previous mapper.
func (u *Unpacker) RegisterMapper(sig byte, m StructMapper) {
	u.mappers[sig] = m
}

// Unpack decodes a single value from b. It is an error for b to contain
// trailing bytes after the value.
func (u *Unpacker) Unpack(b []byte) (any, error) {
	buf := WrapBuffer(b)
	v, err := u.unpackFrom(buf)
	if err != nil {
		return nil, err
	}
	if buf.HasRemaining() {
		return nil, fmt.Errorf("packstream: %d trailing bytes after value", buf.Remaining())
	}
	return v, nil
}

// UnpackFrom decodes a single value from buf, leaving buf positioned just
// past the value, so successive values can be read from one buffer.
// Unlike Unpack, it does not reject bytes left after the value.
func (u *Unpacker) UnpackFrom(buf *Buffer) (any, error) {
	return u.unpackFrom(buf)
}

func (u *Unpacker) unpackFrom(buf *Buffer) (any, error) {
	tag, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	switch {
	case isTinyInt(tag):
		return int64(int8(tag)), nil
	case isTinyString(tag):
		return u.unpackStringBody(buf, int(tag&0x0F))
	case isTinyList(tag):
		return u.unpackListBody(buf, int(tag&0x0F))
	case isTinyMap(tag):
		return u.unpackMapBody(buf, int(tag&0x0F))
	case isTinyStruct(tag):
		return u.unpackStructBody(buf, int(tag&0x0F))
	}

	switch tag {
	case tagNull:
		return nil, nil
	case tagFalse:
		return false, nil
	case tagTrue:
		return true, nil
	case tagFloat64:
		return buf.ReadFloat64()
	case tagInt8:
		v, err := buf.ReadByte()
		return int64(int8(v)), err
	case tagInt16:
		v, err := buf.ReadUint16()
		return int64(int16(v)), err
	case tagInt32:
		v, err := buf.ReadInt32()
		return int64(v), err
	case tagInt64:
		return buf.ReadInt64()
	case tagBytes8:
		n, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return u.unpackBytesBody(buf, int(n))
	case tagBytes16:
		n, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		return u.unpackBytesBody(buf, int(n))
	case tagBytes32:
		n, err := buf.ReadUint32()
		if err != nil {
			return nil, err
		}
		return u.unpackBytesBody(buf, int(n))
	case tagString8:
		n, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return u.unpackStringBody(buf, int(n))
	case tagString16:
		n, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		return u.unpackStringBody(buf, int(n))
	case tagString32:
		n, err := buf.ReadUint32()
		if err != nil {
			return nil, err
		}
		return u.unpackStringBody(buf, int(n))
	case tagList8:
		n, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return u.unpackListBody(buf, int(n))
	case tagList16:
		n, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		return u.unpackListBody(buf, int(n))
	case tagList32:
		n, err := buf.ReadUint32()
		if err != nil {
			return nil, err
		}
		return u.unpackListBody(buf, int(n))
	case tagMap8:
		n, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return u.unpackMapBody(buf, int(n))
	case tagMap16:
		n, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		return u.unpackMapBody(buf, int(n))
	case tagMap32:
		n, err := buf.ReadUint32()
		if err != nil {
			return nil, err
		}
		return u.unpackMapBody(buf, int(n))
	case tagStruct8:
		n, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return u.unpackStructBody(buf, int(n))
	case tagStruct16:
		n, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		return u.unpackStructBody(buf, int(n))
	}

	return nil, fmt.Errorf("packstream: unknown type tag 0x%02X", tag)
}

func (u *Unpacker) unpackStringBody(buf *Buffer, n int) (any, error) {
	s, err := buf.ReadSlice(n)
	if err != nil {
		return nil, err
	}
	return string(s), nil
}

func (u *Unpacker) unpackBytesBody(buf *Buffer, n int) (any, error) {
	s, err := buf.ReadSlice(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s)
	return out, nil
}

func (u *Unpacker) unpackListBody(buf *Buffer, n int) (any, error) {
	list := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := u.unpackFrom(buf)
		if err != nil {
			return nil, err
		}
		list[i] = v
	}
	return list, nil
}

func (u *Unpacker) unpackMapBody(buf *Buffer, n int) (any, error) {
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k, err := u.unpackFrom(buf)
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("packstream: map key is %T, want string", k)
		}
		v, err := u.unpackFrom(buf)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, nil
}

func (u *Unpacker) unpackStructBody(buf *Buffer, fieldCount int) (any, error) {
	sig, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}
	fields := make([]any, fieldCount)
	for i := 0; i < fieldCount; i++ {
		v, err := u.unpackFrom(buf)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}

	if mapper, ok := u.mappers[sig]; ok {
		return mapper(fields)
	}
	return &Structure{Signature: sig, Fields: fields}, nil
}
