package ztype

// Equal reports whether a and b describe the same type structurally.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case *Primitive:
		b, ok := b.(*Primitive)
		return ok && a.Name == b.Name
	case *Record:
		b, ok := b.(*Record)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	case *Array:
		b, ok := b.(*Array)
		return ok && Equal(a.Elem, b.Elem)
	case *Set:
		b, ok := b.(*Set)
		return ok && Equal(a.Elem, b.Elem)
	case *Map:
		b, ok := b.(*Map)
		return ok && Equal(a.Key, b.Key) && Equal(a.Val, b.Val)
	case *Union:
		b, ok := b.(*Union)
		if !ok || len(a.Types) != len(b.Types) {
			return false
		}
		for i := range a.Types {
			if !Equal(a.Types[i], b.Types[i]) {
				return false
			}
		}
		return true
	case *Enum:
		b, ok := b.(*Enum)
		if !ok || len(a.Symbols) != len(b.Symbols) {
			return false
		}
		for i := range a.Symbols {
			if a.Symbols[i] != b.Symbols[i] {
				return false
			}
		}
		return true
	case *Named:
		b, ok := b.(*Named)
		return ok && a.ID == b.ID && a.Name == b.Name && Equal(a.Type, b.Type)
	case *Error:
		b, ok := b.(*Error)
		return ok && Equal(a.Type, b.Type)
	}
	return false
}
