// Package classfiletest assembles minimal class files for tests.
package classfiletest

import (
	"encoding/binary"
	"math"
)

// Field describes a field to emit. Value, when set, must be int32, int64,
// float32, float64 or string and becomes a ConstantValue attribute.
type Field struct {
	Access     uint16
	Name       string
	Descriptor string
	Value      any
}

// Method describes a method to emit. Lines, when set, become a
// LineNumberTable inside an otherwise empty Code attribute.
type Method struct {
	Access     uint16
	Name       string
	Descriptor string
	Lines      []uint16
}

// Class describes a class file.
type Class struct {
	Major      uint16
	Minor      uint16
	Access     uint16
	Name       string
	Super      string
	Interfaces []string
	Fields     []Field
	Methods    []Method
	SourceFile string
}

type pool struct {
	entries [][]byte
	utf8    map[string]uint16
	class   map[string]uint16
	next    uint16
}

func newPool() *pool {
	return &pool{utf8: map[string]uint16{}, class: map[string]uint16{}, next: 1}
}

func (p *pool) add(entry []byte, slots uint16) uint16 {
	idx := p.next
	p.entries = append(p.entries, entry)
	p.next += slots
	return idx
}

func (p *pool) Utf8(s string) uint16 {
	if idx, ok := p.utf8[s]; ok {
		return idx
	}
	b := []byte{1}
	b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
	b = append(b, s...)
	idx := p.add(b, 1)
	p.utf8[s] = idx
	return idx
}

func (p *pool) Class(name string) uint16 {
	if idx, ok := p.class[name]; ok {
		return idx
	}
	nameIdx := p.Utf8(name)
	idx := p.add(binary.BigEndian.AppendUint16([]byte{7}, nameIdx), 1)
	p.class[name] = idx
	return idx
}

func (p *pool) Value(v any) uint16 {
	switch x := v.(type) {
	case int32:
		return p.add(binary.BigEndian.AppendUint32([]byte{3}, uint32(x)), 1)
	case float32:
		return p.add(binary.BigEndian.AppendUint32([]byte{4}, math.Float32bits(x)), 1)
	case int64:
		return p.add(binary.BigEndian.AppendUint64([]byte{5}, uint64(x)), 2)
	case float64:
		return p.add(binary.BigEndian.AppendUint64([]byte{6}, math.Float64bits(x)), 2)
	case string:
		s := p.Utf8(x)
		return p.add(binary.BigEndian.AppendUint16([]byte{8}, s), 1)
	}
	panic("classfiletest: unsupported constant value")
}

func u2(b []byte, v uint16) []byte { return binary.BigEndian.AppendUint16(b, v) }
func u4(b []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(b, v) }

func attribute(b []byte, nameIdx uint16, body []byte) []byte {
	b = u2(b, nameIdx)
	b = u4(b, uint32(len(body)))
	return append(b, body...)
}

// Bytes assembles the class file. Super defaults to java/lang/Object and
// the version to 52.0.
func (c Class) Bytes() []byte {
	p := newPool()
	major := c.Major
	if major == 0 {
		major = 52
	}
	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}

	var body []byte
	body = u2(body, c.Access)
	body = u2(body, p.Class(c.Name))
	body = u2(body, p.Class(super))

	body = u2(body, uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		body = u2(body, p.Class(iface))
	}

	body = u2(body, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		body = u2(body, f.Access)
		body = u2(body, p.Utf8(f.Name))
		body = u2(body, p.Utf8(f.Descriptor))
		if f.Value == nil {
			body = u2(body, 0)
			continue
		}
		body = u2(body, 1)
		body = attribute(body, p.Utf8("ConstantValue"), u2(nil, p.Value(f.Value)))
	}

	body = u2(body, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		body = u2(body, m.Access)
		body = u2(body, p.Utf8(m.Name))
		body = u2(body, p.Utf8(m.Descriptor))
		if len(m.Lines) == 0 {
			body = u2(body, 0)
			continue
		}
		var table []byte
		table = u2(table, uint16(len(m.Lines)))
		for i, line := range m.Lines {
			table = u2(table, uint16(i))
			table = u2(table, line)
		}
		var code []byte
		code = u2(code, 1)        // max_stack
		code = u2(code, 1)        // max_locals
		code = u4(code, 1)        // code_length
		code = append(code, 0xB1) // return
		code = u2(code, 0)        // exception_table_length
		code = u2(code, 1)
		code = attribute(code, p.Utf8("LineNumberTable"), table)

		body = u2(body, 1)
		body = attribute(body, p.Utf8("Code"), code)
	}

	if c.SourceFile != "" {
		body = u2(body, 1)
		body = attribute(body, p.Utf8("SourceFile"), u2(nil, p.Utf8(c.SourceFile)))
	} else {
		body = u2(body, 0)
	}

	var out []byte
	out = u4(out, 0xCAFEBABE)
	out = u2(out, c.Minor)
	out = u2(out, major)
	out = u2(out, p.next)
	for _, e := range p.entries {
		out = append(out, e...)
	}
	return append(out, body...)
}
