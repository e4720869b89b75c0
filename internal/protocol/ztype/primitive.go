package ztype

// Primitive type names.
const (
	NameUint8    = "uint8"
	NameUint16   = "uint16"
	NameUint32   = "uint32"
	NameUint64   = "uint64"
	NameInt8     = "int8"
	NameInt16    = "int16"
	NameInt32    = "int32"
	NameInt64    = "int64"
	NameDuration = "duration"
	NameTime     = "time"
	NameFloat16  = "float16"
	NameFloat32  = "float32"
	NameFloat64  = "float64"
	NameDecimal  = "decimal"
	NameBool     = "bool"
	NameBytes    = "bytes"
	NameString   = "string"
	NameBstring  = "bstring"
	NameIP       = "ip"
	NameNet      = "net"
	NameType     = "type"
	NameError    = "error"
	NameNull     = "null"
)

var primitives = func() map[string]*Primitive {
	names := []string{
		NameUint8, NameUint16, NameUint32, NameUint64,
		NameInt8, NameInt16, NameInt32, NameInt64,
		NameDuration, NameTime,
		NameFloat16, NameFloat32, NameFloat64,
		NameDecimal, NameBool, NameBytes,
		NameString, NameBstring,
		NameIP, NameNet,
		NameType, NameError, NameNull,
	}
	m := make(map[string]*Primitive, len(names))
	for _, name := range names {
		m[name] = &Primitive{Name: name}
	}
	return m
}()

// LookupPrimitive returns the shared Primitive for name.
func LookupPrimitive(name string) (*Primitive, bool) {
	p, ok := primitives[name]
	return p, ok
}

// IsPrimitiveName reports whether name is a known primitive.
func IsPrimitiveName(name string) bool {
	_, ok := primitives[name]
	return ok
}

// MustPrimitive returns the shared Primitive for name and panics if the name
// is unknown. Intended for package-level tables and tests.
func MustPrimitive(name string) *Primitive {
	p, ok := primitives[name]
	if !ok {
		panic("ztype: unknown primitive " + name)
	}
	return p
}
