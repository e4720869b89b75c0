package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"time"

	"github.com/danmuck/zjsonctl/internal/protocol/zvalue"
	"github.com/shopspring/decimal"
)

// appendJSON renders a decoded value as one JSON document. Scalars without a
// JSON counterpart are written as strings in their text form.
func appendJSON(b []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return append(b, "null"...), nil
	case bool:
		return strconv.AppendBool(b, v), nil
	case int64:
		return strconv.AppendInt(b, v, 10), nil
	case uint64:
		return strconv.AppendUint(b, v, 10), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return appendString(b, strconv.FormatFloat(v, 'g', -1, 64))
		}
		return strconv.AppendFloat(b, v, 'g', -1, 64), nil
	case decimal.Decimal:
		return appendString(b, v.String())
	case []byte:
		return appendString(b, "0x"+hex.EncodeToString(v))
	case string:
		return appendString(b, v)
	case time.Duration:
		return appendString(b, v.String())
	case time.Time:
		return appendString(b, v.Format(time.RFC3339Nano))
	case netip.Addr:
		return appendString(b, v.String())
	case netip.Prefix:
		return appendString(b, v.String())
	case []any:
		return appendArray(b, v)
	case *zvalue.Set:
		return appendArray(b, v.Values())
	case *zvalue.Map:
		var err error
		b = append(b, '[')
		first := true
		v.Each(func(key, val any) bool {
			if !first {
				b = append(b, ',')
			}
			first = false
			b = append(b, '[')
			if b, err = appendJSON(b, key); err != nil {
				return false
			}
			b = append(b, ',')
			if b, err = appendJSON(b, val); err != nil {
				return false
			}
			b = append(b, ']')
			return true
		})
		if err != nil {
			return nil, err
		}
		return append(b, ']'), nil
	case *zvalue.Record:
		var err error
		b = append(b, '{')
		for el := v.Front(); el != nil; el = el.Next() {
			if el != v.Front() {
				b = append(b, ',')
			}
			if b, err = appendString(b, el.Key); err != nil {
				return nil, err
			}
			b = append(b, ':')
			if b, err = appendJSON(b, el.Value); err != nil {
				return nil, err
			}
		}
		return append(b, '}'), nil
	default:
		return nil, fmt.Errorf("render: unsupported value %T", v)
	}
}

func appendArray(b []byte, vals []any) ([]byte, error) {
	var err error
	b = append(b, '[')
	for i, el := range vals {
		if i > 0 {
			b = append(b, ',')
		}
		if b, err = appendJSON(b, el); err != nil {
			return nil, err
		}
	}
	return append(b, ']'), nil
}

func appendString(b []byte, s string) ([]byte, error) {
	q, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(b, q...), nil
}
