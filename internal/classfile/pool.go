package classfile

import (
	"fmt"
	"unicode/utf16"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type constant struct {
	tag   uint8
	index uint16 // Class, String, MethodType, Module, Package
	str   string // Utf8
	value any    // Integer, Float, Long, Double
}

// Pool is a parsed constant pool. Index 0 and the slot after each
// long or double are unused.
type Pool []constant

func readPool(r *reader) (Pool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	pool := make(Pool, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		c := constant{tag: tag}

		switch tag {
		case tagUtf8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			c.str = decodeModifiedUTF8(b)
		case tagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			c.value = int32(v)
		case tagFloat:
			v, err := r.f4()
			if err != nil {
				return nil, err
			}
			c.value = v
		case tagLong:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			c.value = int64(v)
		case tagDouble:
			v, err := r.f8()
			if err != nil {
				return nil, err
			}
			c.value = v
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.index, err = r.u2()
			if err != nil {
				return nil, err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case tagMethodHandle:
			if err := r.skip(3); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("classfile: unknown constant tag %d at index %d", tag, i)
		}

		pool[i] = c
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return pool, nil
}

func (p Pool) entry(index uint16, tag uint8) (constant, error) {
	if index == 0 || int(index) >= len(p) {
		return constant{}, fmt.Errorf("classfile: constant index %d out of range", index)
	}
	c := p[index]
	if c.tag != tag {
		return constant{}, fmt.Errorf("classfile: constant %d has tag %d, want %d", index, c.tag, tag)
	}
	return c, nil
}

// Utf8 returns the string at index.
func (p Pool) Utf8(index uint16) (string, error) {
	c, err := p.entry(index, tagUtf8)
	return c.str, err
}

// ClassName returns the internal name referenced by the Class entry at index.
func (p Pool) ClassName(index uint16) (string, error) {
	c, err := p.entry(index, tagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.index)
}

// Value returns the loadable constant at index as int32, int64, float32,
// float64 or string.
func (p Pool) Value(index uint16) (any, error) {
	if index == 0 || int(index) >= len(p) {
		return nil, fmt.Errorf("classfile: constant index %d out of range", index)
	}
	c := p[index]
	switch c.tag {
	case tagInteger, tagFloat, tagLong, tagDouble:
		return c.value, nil
	case tagString:
		return p.Utf8(c.index)
	default:
		return nil, fmt.Errorf("classfile: constant %d (tag %d) is not a value", index, c.tag)
	}
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8, where NUL is two
// bytes and supplementary characters are encoded as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}
