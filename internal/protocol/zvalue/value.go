// Package zvalue decodes raw ZJSON values against resolved types into native
// Go values, and defines the container types those values use.
package zvalue

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/shopspring/decimal"
)

// Record is a decoded record value: field name to value in field order.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord returns an empty Record sized for n fields.
func NewRecord(n int) *Record {
	return orderedmap.NewOrderedMapWithCapacity[string, any](n)
}

// Set holds value-unique elements in order of first insertion.
type Set struct {
	index map[string]int
	elems []any
}

func NewSet(capacity int) *Set {
	return &Set{
		index: make(map[string]int, capacity),
		elems: make([]any, 0, capacity),
	}
}

// Add inserts v unless a value-equal element is already present. It reports
// whether v was inserted.
func (s *Set) Add(v any) bool {
	k := Key(v)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.elems)
	s.elems = append(s.elems, v)
	return true
}

func (s *Set) Contains(v any) bool {
	_, ok := s.index[Key(v)]
	return ok
}

func (s *Set) Len() int {
	return len(s.elems)
}

// Values returns the elements in insertion order. The slice is a copy.
func (s *Set) Values() []any {
	return slices.Clone(s.elems)
}

// Map holds key/value pairs with value-unique keys. Put on an existing key
// replaces the value and keeps the key's original position.
type Map struct {
	index map[string]int
	keys  []any
	vals  []any
}

func NewMap(capacity int) *Map {
	return &Map{
		index: make(map[string]int, capacity),
		keys:  make([]any, 0, capacity),
		vals:  make([]any, 0, capacity),
	}
}

func (m *Map) Put(k, v any) {
	key := Key(k)
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *Map) Get(k any) (any, bool) {
	i, ok := m.index[Key(k)]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

func (m *Map) Len() int {
	return len(m.keys)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (m *Map) Each(fn func(k, v any) bool) {
	for i := range m.keys {
		if !fn(m.keys[i], m.vals[i]) {
			return
		}
	}
}

// Equal reports whether two native values are value-equal.
func Equal(a, b any) bool {
	return Key(a) == Key(b)
}

// Key returns a canonical string for a native value. Two values have the same
// key exactly when they are value-equal; the key carries a type tag so that
// int64(1) and uint64(1) differ. Set elements and map entries compare without
// regard to order, record fields in order.
func Key(v any) string {
	var b strings.Builder
	writeKey(&b, v)
	return b.String()
}

func writeKey(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("null")
	case int64:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(v, 10))
	case uint64:
		b.WriteString("u:")
		b.WriteString(strconv.FormatUint(v, 10))
	case float64:
		if v == 0 {
			// -0 and 0 are equal.
			v = 0
		}
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case decimal.Decimal:
		b.WriteString("d:")
		b.WriteString(v.String())
	case bool:
		if v {
			b.WriteString("b:T")
		} else {
			b.WriteString("b:F")
		}
	case []byte:
		b.WriteString("x:")
		b.WriteString(hex.EncodeToString(v))
	case string:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(v))
	case time.Duration:
		b.WriteString("D:")
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case time.Time:
		b.WriteString("t:")
		b.WriteString(strconv.FormatInt(v.UnixNano(), 10))
	case netip.Addr:
		b.WriteString("a:")
		b.WriteString(v.String())
	case netip.Prefix:
		b.WriteString("p:")
		b.WriteString(v.String())
	case []any:
		b.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeKey(b, elem)
		}
		b.WriteByte(']')
	case *Set:
		keys := make([]string, 0, v.Len())
		for _, elem := range v.elems {
			keys = append(keys, Key(elem))
		}
		slices.Sort(keys)
		b.WriteString("|[")
		b.WriteString(strings.Join(keys, ","))
		b.WriteString("]|")
	case *Map:
		pairs := make([]string, 0, v.Len())
		for i := range v.keys {
			pairs = append(pairs, Key(v.keys[i])+":"+Key(v.vals[i]))
		}
		slices.Sort(pairs)
		b.WriteString("|{")
		b.WriteString(strings.Join(pairs, ","))
		b.WriteString("}|")
	case *Record:
		b.WriteByte('{')
		i := 0
		for el := v.Front(); el != nil; el = el.Next() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(el.Key))
			b.WriteByte(':')
			writeKey(b, el.Value)
			i++
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "?%T:%v", v, v)
	}
}
