// Package zjsontest builds ZJSON streams for tests.
package zjsontest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Source is an in-memory stream that records Close calls.
type Source struct {
	r      io.Reader
	closed int
}

func NewSource(lines ...string) *Source {
	return &Source{r: strings.NewReader(Lines(lines...))}
}

// NewSourceReader wraps r, for tests that inject read failures.
func NewSourceReader(r io.Reader) *Source {
	return &Source{r: r}
}

func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *Source) Close() error {
	s.closed++
	return nil
}

// Closed returns how many times Close was called.
func (s *Source) Closed() int {
	return s.closed
}

// Lines joins lines into newline-terminated NDJSON.
func Lines(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Primitive returns a primitive type descriptor.
func Primitive(name string) string {
	return fmt.Sprintf(`{"kind":"primitive","name":%q}`, name)
}

// Field returns one record field entry.
func Field(name, typ string) string {
	return fmt.Sprintf(`{"name":%q,"type":%s}`, name, typ)
}

// Record returns a record descriptor. A non-negative id is attached for the
// id revision.
func Record(id int, fields ...string) string {
	if id < 0 {
		return fmt.Sprintf(`{"kind":"record","fields":[%s]}`, strings.Join(fields, ","))
	}
	return fmt.Sprintf(`{"kind":"record","id":%d,"fields":[%s]}`, id, strings.Join(fields, ","))
}

// Typedef returns a name-revision type definition.
func Typedef(name, typ string) string {
	return fmt.Sprintf(`{"kind":"typedef","name":%q,"type":%s}`, name, typ)
}

// Types returns an Object frame carrying only type descriptors.
func Types(descriptors ...string) string {
	return fmt.Sprintf(`{"kind":"Object","value":{"types":[%s]}}`, strings.Join(descriptors, ","))
}

// Data returns an Object data frame for a numeric type id.
func Data(id int, values string) string {
	return fmt.Sprintf(`{"kind":"Object","value":{"schema":%d,"values":%s}}`, id, values)
}

// NamedData returns an Object data frame for a type name, with optional
// descriptors applied first.
func NamedData(name, values string, descriptors ...string) string {
	if len(descriptors) == 0 {
		return fmt.Sprintf(`{"kind":"Object","value":{"schema":%q,"values":%s}}`, name, values)
	}
	return fmt.Sprintf(`{"kind":"Object","value":{"types":[%s],"schema":%q,"values":%s}}`,
		strings.Join(descriptors, ","), name, values)
}

// QueryError returns a server error frame.
func QueryError(msg string) string {
	return fmt.Sprintf(`{"kind":"QueryError","value":{"error":%s}}`, strconv.Quote(msg))
}

// Control returns a control frame with the given tag.
func Control(tag string) string {
	return fmt.Sprintf(`{"kind":%q,"value":{}}`, tag)
}
