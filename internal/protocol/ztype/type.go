package ztype

import "fmt"

// Kind enumerates the Type variants.
type Kind uint8

const (
	KindPrimitive Kind = iota + 1
	KindRecord
	KindArray
	KindSet
	KindMap
	KindUnion
	KindEnum
	KindNamed
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindNamed:
		return "named"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Type is a resolved, immutable description of a value's shape. The set of
// implementations is closed.
type Type interface {
	Kind() Kind
	String() string
	typeNode()
}

type (
	Primitive struct {
		Name string
	}
	Record struct {
		Fields []Field
	}
	Field struct {
		Name string
		Type Type
	}
	Array struct {
		Elem Type
	}
	Set struct {
		Elem Type
	}
	Map struct {
		Key Type
		Val Type
	}
	Union struct {
		Types []Type
	}
	Enum struct {
		Symbols []string
	}
	// Named gives a stream-local identifier to another Type. Name is the
	// symbolic name carried on the wire, which under name-based revisions is
	// also the identifier.
	Named struct {
		ID   Ident
		Name string
		Type Type
	}
	// Error marks values of the referent type as in-band error values.
	Error struct {
		Type Type
	}
)

func (*Primitive) Kind() Kind { return KindPrimitive }
func (*Record) Kind() Kind    { return KindRecord }
func (*Array) Kind() Kind     { return KindArray }
func (*Set) Kind() Kind       { return KindSet }
func (*Map) Kind() Kind       { return KindMap }
func (*Union) Kind() Kind     { return KindUnion }
func (*Enum) Kind() Kind      { return KindEnum }
func (*Named) Kind() Kind     { return KindNamed }
func (*Error) Kind() Kind     { return KindError }

func (t *Primitive) String() string { return Format(t) }
func (t *Record) String() string    { return Format(t) }
func (t *Array) String() string     { return Format(t) }
func (t *Set) String() string       { return Format(t) }
func (t *Map) String() string       { return Format(t) }
func (t *Union) String() string     { return Format(t) }
func (t *Enum) String() string      { return Format(t) }
func (t *Named) String() string     { return Format(t) }
func (t *Error) String() string     { return Format(t) }

func (*Primitive) typeNode() {}
func (*Record) typeNode()    {}
func (*Array) typeNode()     {}
func (*Set) typeNode()       {}
func (*Map) typeNode()       {}
func (*Union) typeNode()     {}
func (*Enum) typeNode()      {}
func (*Named) typeNode()     {}
func (*Error) typeNode()     {}

// Underlying strips Named and Error wrappers.
func Underlying(t Type) Type {
	for {
		switch w := t.(type) {
		case *Named:
			t = w.Type
		case *Error:
			t = w.Type
		default:
			return t
		}
	}
}

// FieldIndex returns the position of the named field, or -1.
func (t *Record) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Alternative returns the union member selected by tag.
func (t *Union) Alternative(tag int) (Type, bool) {
	if tag < 0 || tag >= len(t.Types) {
		return nil, false
	}
	return t.Types[tag], true
}

// Symbol returns the enum symbol at index.
func (t *Enum) Symbol(index int) (string, bool) {
	if index < 0 || index >= len(t.Symbols) {
		return "", false
	}
	return t.Symbols[index], true
}
