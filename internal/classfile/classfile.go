// Package classfile reads the declaration-level structure of a compiled
// class: version, names, member signatures, constant values and line tables.
// Method bodies are skipped.
package classfile

import (
	"errors"
	"fmt"

	"github.com/phobologic/jdsource/internal/model"
)

// Magic is the first word of every class file.
const Magic = 0xCAFEBABE

// ErrBadMagic is returned when data does not start with Magic.
var ErrBadMagic = errors.New("classfile: bad magic number")

// AccessFlags is the access_flags bitmask of a class or member.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// Has reports whether all bits of flag are set.
func (a AccessFlags) Has(flag AccessFlags) bool {
	return a&flag == flag
}

// Member is a field or method.
type Member struct {
	Access     AccessFlags
	Name       string
	Descriptor string

	// ConstantValue holds a field's ConstantValue attribute, if any.
	ConstantValue any

	// FirstLine and LastLine span the method's LineNumberTable; zero when absent.
	FirstLine int
	LastLine  int
}

// ClassFile is the parsed declaration structure of one class.
type ClassFile struct {
	Version    model.Version
	Access     AccessFlags
	Name       string
	SuperName  string
	Interfaces []string
	Fields     []Member
	Methods    []Member
	SourceFile string
	Pool       Pool
}

// MaxLine returns the highest line number in any method's line table.
func (c *ClassFile) MaxLine() int {
	highest := 0
	for i := range c.Methods {
		if c.Methods[i].LastLine > highest {
			highest = c.Methods[i].LastLine
		}
	}
	return highest
}

// ReadVersion reads only the header and returns the format version.
func ReadVersion(data []byte) (model.Version, error) {
	r := newReader(data)
	return readHeader(r)
}

func readHeader(r *reader) (model.Version, error) {
	magic, err := r.u4()
	if err != nil {
		return model.Version{}, err
	}
	if magic != Magic {
		return model.Version{}, fmt.Errorf("%w: 0x%08X", ErrBadMagic, magic)
	}
	minor, err := r.u2()
	if err != nil {
		return model.Version{}, err
	}
	major, err := r.u2()
	if err != nil {
		return model.Version{}, err
	}
	return model.Version{Major: int(major), Minor: int(minor)}, nil
}

// Parse decodes a class file.
func Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)

	version, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	pool, err := readPool(r)
	if err != nil {
		return nil, fmt.Errorf("constant pool: %w", err)
	}

	cf := &ClassFile{Version: version, Pool: pool}

	access, err := r.u2()
	if err != nil {
		return nil, err
	}
	cf.Access = AccessFlags(access)

	thisIdx, err := r.u2()
	if err != nil {
		return nil, err
	}
	if cf.Name, err = pool.ClassName(thisIdx); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}

	superIdx, err := r.u2()
	if err != nil {
		return nil, err
	}
	if superIdx != 0 {
		if cf.SuperName, err = pool.ClassName(superIdx); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := pool.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		cf.Interfaces = append(cf.Interfaces, name)
	}

	if cf.Fields, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if cf.Methods, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}

	err = readAttributes(r, pool, func(name string, ar *reader) error {
		if name != "SourceFile" {
			return nil
		}
		idx, err := ar.u2()
		if err != nil {
			return err
		}
		cf.SourceFile, err = pool.Utf8(idx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}

	return cf, nil
}

func readMembers(r *reader, pool Pool) ([]Member, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, count)
	for i := 0; i < int(count); i++ {
		var m Member

		access, err := r.u2()
		if err != nil {
			return nil, err
		}
		m.Access = AccessFlags(access)

		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		if m.Name, err = pool.Utf8(nameIdx); err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		if m.Descriptor, err = pool.Utf8(descIdx); err != nil {
			return nil, err
		}

		err = readAttributes(r, pool, func(name string, ar *reader) error {
			switch name {
			case "ConstantValue":
				idx, err := ar.u2()
				if err != nil {
					return err
				}
				m.ConstantValue, err = pool.Value(idx)
				return err
			case "Code":
				return readCodeLines(ar, pool, &m)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}

		members = append(members, m)
	}
	return members, nil
}

// readAttributes iterates an attribute table, handing each body to fn
// through its own bounded reader.
func readAttributes(r *reader, pool Pool, fn func(name string, ar *reader) error) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return err
		}
		name, err := pool.Utf8(nameIdx)
		if err != nil {
			return err
		}
		length, err := r.u4()
		if err != nil {
			return err
		}
		body, err := r.bytes(int(length))
		if err != nil {
			return err
		}
		if err := fn(name, newReader(body)); err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
	}
	return nil
}

func readCodeLines(r *reader, pool Pool, m *Member) error {
	// max_stack, max_locals
	if err := r.skip(4); err != nil {
		return err
	}
	codeLen, err := r.u4()
	if err != nil {
		return err
	}
	if err := r.skip(int(codeLen)); err != nil {
		return err
	}
	excLen, err := r.u2()
	if err != nil {
		return err
	}
	if err := r.skip(int(excLen) * 8); err != nil {
		return err
	}

	return readAttributes(r, pool, func(name string, ar *reader) error {
		if name != "LineNumberTable" {
			return nil
		}
		n, err := ar.u2()
		if err != nil {
			return err
		}
		for i := 0; i < int(n); i++ {
			if _, err := ar.u2(); err != nil { // start_pc
				return err
			}
			line, err := ar.u2()
			if err != nil {
				return err
			}
			l := int(line)
			if m.FirstLine == 0 || l < m.FirstLine {
				m.FirstLine = l
			}
			if l > m.LastLine {
				m.LastLine = l
			}
		}
		return nil
	})
}
