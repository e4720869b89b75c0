package schema

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Descriptor kinds from the ZJSON type contract.
const (
	KindPrimitive = "primitive"
	KindRecord    = "record"
	KindArray     = "array"
	KindSet       = "set"
	KindMap       = "map"
	KindUnion     = "union"
	KindEnum      = "enum"
	KindError     = "error"
	KindNamed     = "named"
	KindReference = "reference"
	KindRef       = "ref"
	KindTypedef   = "typedef"
	KindTypename  = "typename"

	// KindField is the pseudo-kind of a record field entry.
	KindField = "field"
)

// Descriptor field names.
const (
	FieldKind    = "kind"
	FieldID      = "id"
	FieldName    = "name"
	FieldType    = "type"
	FieldFields  = "fields"
	FieldKeyType = "key_type"
	FieldValType = "val_type"
	FieldTypes   = "types"
	FieldSymbols = "symbols"
)

// Shape is the JSON shape a descriptor field must have.
type Shape uint8

const (
	ShapeString Shape = iota + 1
	ShapeInt
	ShapeObject
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeInt:
		return "integer"
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

type Requirement struct {
	Field    string
	Shape    Shape
	Optional bool
}

type ValidationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: kind=%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("schema: kind=%s field=%s: %s", e.Kind, e.Field, e.Reason)
}

var requirements = map[string][]Requirement{
	KindPrimitive: {
		{FieldName, ShapeString, false},
	},
	KindRecord: {
		{FieldID, ShapeInt, true},
		{FieldFields, ShapeArray, false},
	},
	KindArray: {
		{FieldID, ShapeInt, true},
		{FieldType, ShapeObject, false},
	},
	KindSet: {
		{FieldID, ShapeInt, true},
		{FieldType, ShapeObject, false},
	},
	KindMap: {
		{FieldID, ShapeInt, true},
		{FieldKeyType, ShapeObject, false},
		{FieldValType, ShapeObject, false},
	},
	KindUnion: {
		{FieldID, ShapeInt, true},
		{FieldTypes, ShapeArray, false},
	},
	KindEnum: {
		{FieldID, ShapeInt, true},
		{FieldSymbols, ShapeArray, false},
	},
	KindError: {
		{FieldID, ShapeInt, true},
		{FieldType, ShapeObject, false},
	},
	KindNamed: {
		{FieldID, ShapeInt, false},
		{FieldName, ShapeString, true},
		{FieldType, ShapeObject, false},
	},
	KindReference: {
		{FieldID, ShapeInt, false},
	},
	KindRef: {
		{FieldID, ShapeInt, false},
	},
	KindTypedef: {
		{FieldName, ShapeString, false},
		{FieldType, ShapeObject, false},
	},
	KindTypename: {
		{FieldName, ShapeString, false},
	},
	KindField: {
		{FieldName, ShapeString, false},
		{FieldType, ShapeObject, false},
	},
}

// Known reports whether kind has a descriptor contract.
func Known(kind string) bool {
	_, ok := requirements[kind]
	return ok
}

// Validate enforces required fields, their JSON shapes, and rejects fields the
// kind does not declare. The "kind" member itself is always allowed.
func Validate(kind string, fields map[string]json.RawMessage) error {
	log.Trace().Str("kind", kind).Int("fields", len(fields)).Msg("schema.Validate")
	reqs, ok := requirements[kind]
	if !ok {
		log.Debug().Str("kind", kind).Msg("schema.Validate unknown kind")
		return ValidationError{Kind: kind, Reason: "unknown kind"}
	}
	declared := make(map[string]struct{}, len(reqs)+1)
	declared[FieldKind] = struct{}{}
	for _, req := range reqs {
		declared[req.Field] = struct{}{}
		raw, found := fields[req.Field]
		if !found {
			if req.Optional {
				continue
			}
			log.Debug().Str("kind", kind).Str("field", req.Field).Msg("schema.Validate missing field")
			return ValidationError{Kind: kind, Field: req.Field, Reason: "missing required field"}
		}
		if got := ShapeOf(raw); got != req.Shape {
			log.Debug().
				Str("kind", kind).
				Str("field", req.Field).
				Stringer("want", req.Shape).
				Msg("schema.Validate shape mismatch")
			return ValidationError{Kind: kind, Field: req.Field, Reason: "expected " + req.Shape.String()}
		}
	}
	for name := range fields {
		if _, ok := declared[name]; !ok {
			log.Debug().Str("kind", kind).Str("field", name).Msg("schema.Validate unknown field")
			return ValidationError{Kind: kind, Field: name, Reason: "unknown field"}
		}
	}
	return nil
}

// ShapeOf classifies raw JSON by its leading byte. Numbers count as ShapeInt
// only when they have no fraction or exponent. Anything else returns 0.
func ShapeOf(raw json.RawMessage) Shape {
	for i, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '"':
			return ShapeString
		case '{':
			return ShapeObject
		case '[':
			return ShapeArray
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			for _, d := range raw[i:] {
				if d == '.' || d == 'e' || d == 'E' {
					return 0
				}
			}
			return ShapeInt
		default:
			return 0
		}
	}
	return 0
}
