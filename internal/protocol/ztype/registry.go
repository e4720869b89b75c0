package ztype

import (
	"sort"
	"strconv"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Ident identifies a type within one stream: either a stream-assigned
// integer or a symbolic name, depending on the protocol revision.
type Ident struct {
	num    int
	name   string
	byName bool
}

func NumIdent(n int) Ident {
	return Ident{num: n}
}

func NameIdent(name string) Ident {
	return Ident{name: name, byName: true}
}

func (id Ident) IsName() bool { return id.byName }
func (id Ident) Num() int     { return id.num }
func (id Ident) Name() string { return id.name }

func (id Ident) String() string {
	if id.byName {
		return id.name
	}
	return strconv.Itoa(id.num)
}

// Binding is one registry entry.
type Binding struct {
	ID   Ident
	Type Type
}

// Registry maps identifiers to resolved types for the lifetime of one stream.
// Bindings are never removed or replaced. A Registry is not safe for
// concurrent use.
type Registry struct {
	types map[Ident]Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[Ident]Type)}
}

// Define binds id to t. Re-defining id with a structurally equal type is a
// no-op; any other rebinding fails with DuplicateTypeId.
func (r *Registry) Define(id Ident, t Type) error {
	if t == nil {
		return protocol.Errorf(protocol.KindMalformedFrame, "type %s bound to nothing", id)
	}
	if prev, ok := r.types[id]; ok {
		if Equal(prev, t) {
			return nil
		}
		log.Debug().Stringer("id", id).Stringer("bound", prev).Stringer("new", t).Msg("registry rebind rejected")
		return protocol.Errorf(protocol.KindDuplicateTypeID,
			"type %s already bound to %s, cannot rebind to %s", id, Format(prev), Format(t))
	}
	r.types[id] = t
	log.Trace().Stringer("id", id).Stringer("type", t).Msg("registry define")
	return nil
}

// Resolve returns the type bound to id.
func (r *Registry) Resolve(id Ident) (Type, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, protocol.Errorf(protocol.KindUndefinedTypeReference, "undefined type reference %s", id)
	}
	return t, nil
}

// Lookup is Resolve without the error.
func (r *Registry) Lookup(id Ident) (Type, bool) {
	t, ok := r.types[id]
	return t, ok
}

func (r *Registry) Len() int {
	return len(r.types)
}

// Bindings returns a snapshot ordered numeric ids first, then names.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, 0, len(r.types))
	for id, t := range r.types {
		out = append(out, Binding{ID: id, Type: t})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if a.byName != b.byName {
			return !a.byName
		}
		if a.byName {
			return a.name < b.name
		}
		return a.num < b.num
	})
	return out
}
