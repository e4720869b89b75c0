package ztype

import (
	"encoding/json"
	"errors"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

type descriptorKind uint8

const (
	descPrimitive descriptorKind = iota + 1
	descRecord
	descArray
	descSet
	descMap
	descUnion
	descEnum
	descError
	descNamed
	descReference
	descTypedef
	descTypename
)

// descriptorKinds lists the descriptor kinds each revision accepts. "ref" is
// the short spelling of "reference" emitted by older id-revision writers.
var descriptorKinds = map[protocol.Revision]map[string]descriptorKind{
	protocol.RevisionID: withCommon(map[string]descriptorKind{
		schema.KindNamed:     descNamed,
		schema.KindReference: descReference,
		schema.KindRef:       descReference,
	}),
	protocol.RevisionNamed: withCommon(map[string]descriptorKind{
		schema.KindTypedef:  descTypedef,
		schema.KindTypename: descTypename,
	}),
	protocol.RevisionLegacy: withCommon(map[string]descriptorKind{
		schema.KindTypedef:  descTypedef,
		schema.KindTypename: descTypename,
	}),
}

func withCommon(m map[string]descriptorKind) map[string]descriptorKind {
	m[schema.KindPrimitive] = descPrimitive
	m[schema.KindRecord] = descRecord
	m[schema.KindArray] = descArray
	m[schema.KindSet] = descSet
	m[schema.KindMap] = descMap
	m[schema.KindUnion] = descUnion
	m[schema.KindEnum] = descEnum
	m[schema.KindError] = descError
	return m
}

// Decoder turns type descriptors into resolved Types, binding named and
// id-carrying descriptors into its Registry as it goes.
type Decoder struct {
	reg   *Registry
	rev   protocol.Revision
	kinds map[string]descriptorKind
}

func NewDecoder(reg *Registry, rev protocol.Revision) *Decoder {
	kinds, ok := descriptorKinds[rev]
	if !ok {
		kinds = descriptorKinds[protocol.RevisionID]
	}
	return &Decoder{reg: reg, rev: rev, kinds: kinds}
}

func (d *Decoder) Registry() *Registry {
	return d.reg
}

// Decode decodes one descriptor. Children are fully decoded before their
// parent, so the returned Type contains no unresolved references.
func (d *Decoder) Decode(raw json.RawMessage) (Type, error) {
	var fields map[string]json.RawMessage
	if schema.ShapeOf(raw) != schema.ShapeObject {
		return nil, protocol.Errorf(protocol.KindMalformedFrame, "type descriptor is not a JSON object")
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "type descriptor")
	}
	var kindName string
	kindRaw, ok := fields[schema.FieldKind]
	if !ok {
		return nil, protocol.Errorf(protocol.KindMalformedFrame, "type descriptor missing kind")
	}
	if err := json.Unmarshal(kindRaw, &kindName); err != nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "type descriptor kind")
	}
	kind, ok := d.kinds[kindName]
	if !ok {
		return nil, protocol.Errorf(protocol.KindUnknownTypeKind,
			"unknown type kind %q for revision %s", kindName, d.rev)
	}
	if kind == descEnum && d.rev == protocol.RevisionLegacy {
		return nil, protocol.Errorf(protocol.KindUnsupported, "enum types are not supported by revision %s", d.rev)
	}
	if _, hasID := fields[schema.FieldID]; hasID && !d.rev.ByID() {
		return nil, protocol.Errorf(protocol.KindMalformedFrame,
			"%s descriptor carries an id under revision %s", kindName, d.rev)
	}
	if err := schema.Validate(kindName, fields); err != nil {
		return nil, malformed(err)
	}
	typ, err := d.decodeKind(kind, fields)
	if err != nil {
		return nil, err
	}
	if idRaw, ok := fields[schema.FieldID]; ok && kind != descNamed && kind != descReference {
		id, err := decodeInt(idRaw)
		if err != nil {
			return nil, err
		}
		if err := d.reg.Define(NumIdent(id), typ); err != nil {
			return nil, err
		}
	}
	return typ, nil
}

func (d *Decoder) decodeKind(kind descriptorKind, fields map[string]json.RawMessage) (Type, error) {
	switch kind {
	case descPrimitive:
		name, err := decodeString(fields[schema.FieldName])
		if err != nil {
			return nil, err
		}
		p, ok := LookupPrimitive(name)
		if !ok {
			return nil, protocol.Errorf(protocol.KindUnknownPrimitiveName, "unknown primitive name %q", name)
		}
		return p, nil
	case descRecord:
		return d.decodeRecord(fields[schema.FieldFields])
	case descArray:
		elem, err := d.Decode(fields[schema.FieldType])
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem}, nil
	case descSet:
		elem, err := d.Decode(fields[schema.FieldType])
		if err != nil {
			return nil, err
		}
		return &Set{Elem: elem}, nil
	case descMap:
		key, err := d.Decode(fields[schema.FieldKeyType])
		if err != nil {
			return nil, err
		}
		val, err := d.Decode(fields[schema.FieldValType])
		if err != nil {
			return nil, err
		}
		return &Map{Key: key, Val: val}, nil
	case descUnion:
		var raws []json.RawMessage
		if err := json.Unmarshal(fields[schema.FieldTypes], &raws); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "union types")
		}
		types := make([]Type, 0, len(raws))
		for _, raw := range raws {
			t, err := d.Decode(raw)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		return &Union{Types: types}, nil
	case descEnum:
		var symbols []string
		if err := json.Unmarshal(fields[schema.FieldSymbols], &symbols); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "enum symbols")
		}
		return &Enum{Symbols: symbols}, nil
	case descError:
		inner, err := d.Decode(fields[schema.FieldType])
		if err != nil {
			return nil, err
		}
		return &Error{Type: inner}, nil
	case descNamed:
		return d.decodeNamed(fields)
	case descReference:
		id, err := decodeInt(fields[schema.FieldID])
		if err != nil {
			return nil, err
		}
		return d.reg.Resolve(NumIdent(id))
	case descTypedef:
		name, err := decodeString(fields[schema.FieldName])
		if err != nil {
			return nil, err
		}
		inner, err := d.Decode(fields[schema.FieldType])
		if err != nil {
			return nil, err
		}
		return d.bind(&Named{ID: NameIdent(name), Name: name, Type: inner})
	case descTypename:
		name, err := decodeString(fields[schema.FieldName])
		if err != nil {
			return nil, err
		}
		return d.reg.Resolve(NameIdent(name))
	}
	return nil, protocol.Errorf(protocol.KindUnknownTypeKind, "unhandled type kind %d", kind)
}

func (d *Decoder) decodeRecord(raw json.RawMessage) (Type, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "record fields")
	}
	fields := make([]Field, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if err := schema.Validate(schema.KindField, entry); err != nil {
			return nil, malformed(err)
		}
		name, err := decodeString(entry[schema.FieldName])
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, protocol.Errorf(protocol.KindMalformedFrame, "duplicate record field %q", name)
		}
		seen[name] = struct{}{}
		typ, err := d.Decode(entry[schema.FieldType])
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Type: typ})
	}
	return &Record{Fields: fields}, nil
}

func (d *Decoder) decodeNamed(fields map[string]json.RawMessage) (Type, error) {
	id, err := decodeInt(fields[schema.FieldID])
	if err != nil {
		return nil, err
	}
	var name string
	if raw, ok := fields[schema.FieldName]; ok {
		if name, err = decodeString(raw); err != nil {
			return nil, err
		}
	}
	inner, err := d.Decode(fields[schema.FieldType])
	if err != nil {
		return nil, err
	}
	return d.bind(&Named{ID: NumIdent(id), Name: name, Type: inner})
}

func (d *Decoder) bind(named *Named) (Type, error) {
	if err := d.reg.Define(named.ID, named); err != nil {
		return nil, err
	}
	log.Debug().Stringer("id", named.ID).Stringer("type", named.Type).Msg("type bound")
	return named, nil
}

func malformed(err error) error {
	var ve schema.ValidationError
	if errors.As(err, &ve) {
		return protocol.Wrap(protocol.KindMalformedFrame, err, "invalid %s descriptor", ve.Kind)
	}
	return protocol.Wrap(protocol.KindMalformedFrame, err, "invalid descriptor")
}

func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", protocol.Wrap(protocol.KindMalformedFrame, err, "expected string")
	}
	return s, nil
}

func decodeInt(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, protocol.Wrap(protocol.KindMalformedFrame, err, "expected integer")
	}
	return n, nil
}
