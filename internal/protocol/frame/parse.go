package frame

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/ztype"
	"github.com/rs/zerolog/log"
)

// Kind classifies a parsed frame.
type Kind uint8

const (
	KindControl Kind = iota + 1
	KindTypes
	KindData
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindTypes:
		return "types"
	case KindData:
		return "data"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Envelope tags.
const (
	TagObject       = "Object"
	TagQueryError   = "QueryError"
	TagQueryWarning = "QueryWarning"

	TagSearchRecords = "SearchRecords"
	TagSearchWarning = "SearchWarning"
	TagTaskEnd       = "TaskEnd"
	TagError         = "Error"
)

// Frame is one classified unit of a ZJSON stream. A single legacy line can
// yield several frames.
//
// Types holds descriptors to apply before anything else in the frame. A data
// frame names its type either by Schema (an id or name, per revision) or, in
// the id revision, by an inline descriptor in Type.
type Frame struct {
	Kind    Kind
	Tag     string
	Types   []json.RawMessage
	Schema  json.RawMessage
	Type    json.RawMessage
	Value   json.RawMessage
	Message string
	Detail  string
}

// SchemaIdent converts Schema into a registry identifier.
func (f Frame) SchemaIdent(rev protocol.Revision) (ztype.Ident, error) {
	if rev.ByID() {
		// json.Number also accepts the id as a numeric string.
		var n json.Number
		if err := json.Unmarshal(f.Schema, &n); err == nil {
			if id, err := strconv.Atoi(n.String()); err == nil {
				return ztype.NumIdent(id), nil
			}
		}
		return ztype.Ident{}, protocol.Errorf(protocol.KindMalformedFrame, "schema %s is not a type id", f.Schema)
	}
	var name string
	if err := json.Unmarshal(f.Schema, &name); err != nil || name == "" {
		return ztype.Ident{}, protocol.Errorf(protocol.KindMalformedFrame, "schema %s is not a type name", f.Schema)
	}
	return ztype.NameIdent(name), nil
}

type objectValue struct {
	Types  []json.RawMessage `json:"types"`
	Schema json.RawMessage   `json:"schema"`
	Values json.RawMessage   `json:"values"`
}

type problem struct {
	Kind    string `json:"kind"`
	Message string `json:"error"`
	Warning string `json:"warning"`
}

// Parse classifies one line under rev.
func Parse(line []byte, rev protocol.Revision) ([]Frame, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(line, &env); err != nil || env == nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, ErrNotObject, "%s", truncate(line))
	}
	if rev == protocol.RevisionLegacy {
		return parseLegacy(line, env)
	}
	return parseObject(env, rev)
}

func parseObject(env map[string]json.RawMessage, rev protocol.Revision) ([]Frame, error) {
	tagRaw, ok := env["kind"]
	if !ok {
		if _, hasType := env["type"]; hasType && rev.ByID() {
			return parseInline(env)
		}
		return nil, protocol.Wrap(protocol.KindMalformedFrame, ErrNoEnvelope, "expected \"kind\"")
	}
	var tag string
	if err := json.Unmarshal(tagRaw, &tag); err != nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "envelope kind")
	}
	value := env["value"]
	switch tag {
	case TagObject:
		var obj objectValue
		if err := strictObject(value, &obj); err != nil {
			return nil, err
		}
		f := Frame{Kind: KindTypes, Tag: tag, Types: obj.Types}
		if len(obj.Schema) > 0 {
			if len(obj.Values) == 0 {
				return nil, protocol.Errorf(protocol.KindMalformedFrame, "object frame has schema but no values")
			}
			f.Kind = KindData
			f.Schema = obj.Schema
			f.Value = obj.Values
		} else if len(obj.Values) > 0 {
			return nil, protocol.Errorf(protocol.KindMalformedFrame, "object frame has values but no schema")
		}
		return classified(f), nil
	case TagQueryError:
		var p problem
		if err := json.Unmarshal(value, &p); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "query error value")
		}
		return classified(Frame{Kind: KindError, Tag: tag, Message: p.Message, Detail: p.Kind}), nil
	case TagQueryWarning:
		var p problem
		if len(value) > 0 {
			if err := json.Unmarshal(value, &p); err != nil {
				return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "query warning value")
			}
		}
		return classified(Frame{Kind: KindWarning, Tag: tag, Message: p.Warning}), nil
	}
	return classified(Frame{Kind: KindControl, Tag: tag}), nil
}

// parseInline handles the id revision's {"type":<descriptor>,"value":<raw>}
// data line.
func parseInline(env map[string]json.RawMessage) ([]Frame, error) {
	for key := range env {
		if key != "type" && key != "value" {
			return nil, protocol.Errorf(protocol.KindMalformedFrame, "unexpected field %q in inline value", key)
		}
	}
	value, ok := env["value"]
	if !ok {
		return nil, protocol.Errorf(protocol.KindMalformedFrame, "inline value has type but no value")
	}
	return classified(Frame{Kind: KindData, Type: env["type"], Value: value}), nil
}

type legacyRecord struct {
	Schema json.RawMessage   `json:"schema"`
	Types  []json.RawMessage `json:"types"`
	Values json.RawMessage   `json:"values"`
}

func parseLegacy(line []byte, env map[string]json.RawMessage) ([]Frame, error) {
	tagRaw, ok := env["type"]
	if !ok {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, ErrNoEnvelope, "expected \"type\"")
	}
	var tag string
	if err := json.Unmarshal(tagRaw, &tag); err != nil {
		return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "envelope type")
	}
	switch tag {
	case TagSearchRecords:
		var records []json.RawMessage
		if err := json.Unmarshal(env["records"], &records); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "search records")
		}
		frames := make([]Frame, 0, len(records))
		for i, raw := range records {
			var rec legacyRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "search record %d", i)
			}
			if len(rec.Schema) == 0 || len(rec.Values) == 0 {
				return nil, protocol.Errorf(protocol.KindMalformedFrame, "search record %d lacks schema or values", i)
			}
			frames = append(frames, Frame{
				Kind:   KindData,
				Tag:    tag,
				Types:  rec.Types,
				Schema: rec.Schema,
				Value:  rec.Values,
			})
		}
		log.Trace().Str("tag", tag).Int("records", len(frames)).Msg("frame.Parse")
		return frames, nil
	case TagSearchWarning:
		var p problem
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "search warning")
		}
		return classified(Frame{Kind: KindWarning, Tag: tag, Message: p.Warning}), nil
	case TagError:
		var p problem
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "error")
		}
		return classified(Frame{Kind: KindError, Tag: tag, Message: p.Message, Detail: p.Kind}), nil
	case TagTaskEnd:
		raw, ok := env["error"]
		if !ok || string(raw) == "null" {
			return classified(Frame{Kind: KindControl, Tag: tag}), nil
		}
		var p problem
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, protocol.Wrap(protocol.KindMalformedFrame, err, "task end error")
		}
		return classified(Frame{Kind: KindError, Tag: tag, Message: p.Message, Detail: p.Kind}), nil
	}
	return classified(Frame{Kind: KindControl, Tag: tag}), nil
}

func classified(f Frame) []Frame {
	log.Trace().Str("tag", f.Tag).Stringer("kind", f.Kind).Int("types", len(f.Types)).Msg("frame.Parse")
	return []Frame{f}
}

// strictObject decodes an envelope value, rejecting fields it does not know.
func strictObject(raw json.RawMessage, dst *objectValue) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return protocol.Errorf(protocol.KindMalformedFrame, "object frame value is not a JSON object")
	}
	for key := range fields {
		switch key {
		case "types", "schema", "values":
		default:
			return protocol.Errorf(protocol.KindMalformedFrame, "unexpected field %q in object frame", key)
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return protocol.Wrap(protocol.KindMalformedFrame, err, "object frame value")
	}
	return nil
}

func truncate(line []byte) string {
	const max = 64
	if len(line) <= max {
		return string(line)
	}
	return string(line[:max]) + "..."
}
