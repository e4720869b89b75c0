package ztype

import (
	"strconv"
	"strings"
)

// Format renders t in ZSON type syntax: {a:int64}, [T], |[T]|, |{K:V}|,
// (T1,T2), enum(a,b), name=T, error(T).
func Format(t Type) string {
	var b strings.Builder
	format(&b, t)
	return b.String()
}

func format(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Primitive:
		b.WriteString(t.Name)
	case *Record:
		b.WriteByte('{')
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteName(f.Name))
			b.WriteByte(':')
			format(b, f.Type)
		}
		b.WriteByte('}')
	case *Array:
		b.WriteByte('[')
		format(b, t.Elem)
		b.WriteByte(']')
	case *Set:
		b.WriteString("|[")
		format(b, t.Elem)
		b.WriteString("]|")
	case *Map:
		b.WriteString("|{")
		format(b, t.Key)
		b.WriteByte(':')
		format(b, t.Val)
		b.WriteString("}|")
	case *Union:
		b.WriteByte('(')
		for i, alt := range t.Types {
			if i > 0 {
				b.WriteByte(',')
			}
			format(b, alt)
		}
		b.WriteByte(')')
	case *Enum:
		b.WriteString("enum(")
		for i, sym := range t.Symbols {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteName(sym))
		}
		b.WriteByte(')')
	case *Named:
		if t.Name != "" {
			b.WriteString(quoteName(t.Name))
		} else {
			b.WriteString(t.ID.String())
		}
		b.WriteByte('=')
		format(b, t.Type)
	case *Error:
		b.WriteString("error(")
		format(b, t.Type)
		b.WriteByte(')')
	}
}

func quoteName(s string) string {
	if isIdentifier(s) {
		return s
	}
	return strconv.Quote(s)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
