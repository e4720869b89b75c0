package zvalue

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/ztype"
	"github.com/shopspring/decimal"
)

// Decoder turns raw JSON values into native values for a resolved type. The
// revision selects the text encodings of bytes, durations and times.
type Decoder struct {
	rev protocol.Revision
}

func NewDecoder(rev protocol.Revision) *Decoder {
	return &Decoder{rev: rev}
}

// Decode decodes raw against t. JSON null decodes to nil for every type.
func (d *Decoder) Decode(t ztype.Type, raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "value is not valid JSON")
	}
	if dec.More() {
		return nil, protocol.Errorf(protocol.KindMalformedFrame, "trailing data after value")
	}
	return d.value(t, v)
}

func (d *Decoder) value(t ztype.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := t.(type) {
	case *ztype.Named:
		return d.value(t.Type, v)
	case *ztype.Error:
		return d.value(t.Type, v)
	case *ztype.Primitive:
		return d.primitive(t.Name, v)
	case *ztype.Record:
		items, err := sequence(v, "record")
		if err != nil {
			return nil, err
		}
		if len(items) != len(t.Fields) {
			return nil, protocol.Errorf(protocol.KindMalformedFrame,
				"record value has %d elements, type %s has %d fields", len(items), t, len(t.Fields))
		}
		rec := NewRecord(len(t.Fields))
		for i, f := range t.Fields {
			fv, err := d.value(f.Type, items[i])
			if err != nil {
				return nil, err
			}
			rec.Set(f.Name, fv)
		}
		return rec, nil
	case *ztype.Array:
		items, err := sequence(v, "array")
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			ev, err := d.value(t.Elem, item)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case *ztype.Set:
		items, err := sequence(v, "set")
		if err != nil {
			return nil, err
		}
		set := NewSet(len(items))
		for _, item := range items {
			ev, err := d.value(t.Elem, item)
			if err != nil {
				return nil, err
			}
			set.Add(ev)
		}
		return set, nil
	case *ztype.Map:
		items, err := sequence(v, "map")
		if err != nil {
			return nil, err
		}
		m := NewMap(len(items))
		for _, item := range items {
			pair, err := sequence(item, "map entry")
			if err != nil {
				return nil, err
			}
			if len(pair) != 2 {
				return nil, protocol.Errorf(protocol.KindMalformedFrame,
					"map entry has %d elements, want key and value", len(pair))
			}
			k, err := d.value(t.Key, pair[0])
			if err != nil {
				return nil, err
			}
			val, err := d.value(t.Val, pair[1])
			if err != nil {
				return nil, err
			}
			m.Put(k, val)
		}
		return m, nil
	case *ztype.Union:
		pair, err := sequence(v, "union")
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, protocol.Errorf(protocol.KindMalformedFrame,
				"union value has %d elements, want tag and value", len(pair))
		}
		tag, err := index(pair[0], "union tag")
		if err != nil {
			return nil, err
		}
		alt, ok := t.Alternative(tag)
		if !ok {
			return nil, protocol.Errorf(protocol.KindUnionTagOutOfRange,
				"union tag %v out of range for %s", pair[0], t)
		}
		return d.value(alt, pair[1])
	case *ztype.Enum:
		i, err := index(v, "enum index")
		if err != nil {
			return nil, err
		}
		sym, ok := t.Symbol(i)
		if !ok {
			return nil, protocol.Errorf(protocol.KindEnumIndexOutOfRange,
				"enum index %v out of range for %s", v, t)
		}
		return sym, nil
	}
	return nil, protocol.Errorf(protocol.KindUnknownTypeKind, "cannot decode values of %T", t)
}

func (d *Decoder) primitive(name string, v any) (any, error) {
	if !ztype.IsPrimitiveName(name) {
		return nil, protocol.Errorf(protocol.KindUnknownPrimitiveName, "unknown primitive name %q", name)
	}
	if name == ztype.NameNull {
		return nil, nil
	}
	if name == ztype.NameBool {
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	text, err := primitiveText(name, v)
	if err != nil {
		return nil, err
	}
	switch name {
	case ztype.NameInt8:
		return parseInt(name, text, 8)
	case ztype.NameInt16:
		return parseInt(name, text, 16)
	case ztype.NameInt32:
		return parseInt(name, text, 32)
	case ztype.NameInt64:
		return parseInt(name, text, 64)
	case ztype.NameUint8:
		return parseUint(name, text, 8)
	case ztype.NameUint16:
		return parseUint(name, text, 16)
	case ztype.NameUint32:
		return parseUint(name, text, 32)
	case ztype.NameUint64:
		return parseUint(name, text, 64)
	case ztype.NameFloat16, ztype.NameFloat32, ztype.NameFloat64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, badText(name, text, err)
		}
		return f, nil
	case ztype.NameDecimal:
		dec, err := decimal.NewFromString(text)
		if err != nil {
			return nil, badText(name, text, err)
		}
		return dec, nil
	case ztype.NameBool:
		return text == "T", nil
	case ztype.NameBytes:
		return d.bytes(text)
	case ztype.NameString, ztype.NameBstring, ztype.NameType, ztype.NameError:
		return text, nil
	case ztype.NameIP:
		addr, err := netip.ParseAddr(text)
		if err != nil {
			return nil, badText(name, text, err)
		}
		return addr, nil
	case ztype.NameNet:
		prefix, err := netip.ParsePrefix(text)
		if err != nil {
			return nil, badText(name, text, err)
		}
		if prefix != prefix.Masked() {
			return nil, protocol.Errorf(protocol.KindMalformedFrame, "net value %q has host bits set", text)
		}
		return prefix, nil
	case ztype.NameDuration:
		return d.duration(text)
	case ztype.NameTime:
		return d.time(text)
	}
	return nil, protocol.Errorf(protocol.KindUnknownPrimitiveName, "unknown primitive name %q", name)
}

func (d *Decoder) bytes(text string) ([]byte, error) {
	if d.rev.HexBytes() {
		digits, ok := strings.CutPrefix(text, "0x")
		if !ok {
			return nil, protocol.Errorf(protocol.KindMalformedFrame, "bytes value %q lacks 0x prefix", text)
		}
		b, err := hex.DecodeString(digits)
		if err != nil {
			return nil, badText(ztype.NameBytes, text, err)
		}
		return b, nil
	}
	b, err := base64.StdEncoding.Strict().DecodeString(text)
	if err != nil {
		return nil, badText(ztype.NameBytes, text, err)
	}
	return b, nil
}

func (d *Decoder) duration(text string) (time.Duration, error) {
	if d.rev.SecondsEncoding() {
		ns, err := ParseSeconds(text)
		if err != nil {
			return 0, badText(ztype.NameDuration, text, err)
		}
		return time.Duration(ns), nil
	}
	dur, err := ParseDuration(text)
	if err != nil {
		return 0, badText(ztype.NameDuration, text, err)
	}
	return dur, nil
}

func (d *Decoder) time(text string) (time.Time, error) {
	if d.rev.SecondsEncoding() {
		ns, err := ParseSeconds(text)
		if err != nil {
			return time.Time{}, badText(ztype.NameTime, text, err)
		}
		return time.Unix(0, ns).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, text)
	if err == nil {
		return ts.UTC(), nil
	}
	upper := strings.ToUpper(text)
	for _, layout := range isoLayouts {
		if alt, perr := time.Parse(layout, upper); perr == nil {
			return alt.UTC(), nil
		}
	}
	return time.Time{}, badText(ztype.NameTime, text, err)
}

// isoLayouts are the ISO-8601 forms tried after RFC 3339: basic offsets,
// no offset, and a bare date at UTC midnight. Input is upper-cased first so
// lowercase "t" and "z" match.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// primitiveText returns the textual form of a primitive. Strings are taken as
// is; numbers are accepted in place of their text.
func primitiveText(name string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", protocol.Errorf(protocol.KindMalformedFrame, "%s value must be a JSON string, got %s", name, shapeName(v))
}

func parseInt(name, text string, bits int) (int64, error) {
	n, err := strconv.ParseInt(text, 10, bits)
	if err != nil {
		return 0, badText(name, text, err)
	}
	return n, nil
}

func parseUint(name, text string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(text, 10, bits)
	if err != nil {
		return 0, badText(name, text, err)
	}
	return n, nil
}

func badText(name, text string, err error) error {
	return protocol.Wrap(protocol.KindMalformedFrame, err, "invalid %s value %q", name, text)
}

func sequence(v any, what string) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, protocol.Errorf(protocol.KindMalformedFrame, "%s value must be a JSON array, got %s", what, shapeName(v))
	}
	return items, nil
}

// index reads a union tag or enum index, sent either as a JSON integer or as
// its decimal string. Integers too large for int come back as -1 so the
// caller reports them out of range.
func index(v any, what string) (int, error) {
	var text string
	switch v := v.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		return 0, protocol.Errorf(protocol.KindMalformedFrame, "%s must be an integer, got %s", what, shapeName(v))
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return -1, nil
	}
	if err != nil {
		return 0, protocol.Wrap(protocol.KindMalformedFrame, err, "invalid %s %q", what, text)
	}
	if i < 0 || i > math.MaxInt {
		return -1, nil
	}
	return int(i), nil
}

func shapeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}
