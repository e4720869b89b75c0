package ztype

import (
	"testing"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func TestResolveBeforeDefineFails(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	_, err := reg.Resolve(NumIdent(1))
	if !protocol.IsKind(err, protocol.KindUndefinedTypeReference) {
		t.Fatalf("expected UndefinedTypeReference, got %v", err)
	}
}

func TestResolveAfterDefineIsStable(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	rec := &Record{Fields: []Field{{Name: "a", Type: MustPrimitive(NameInt64)}}}
	if err := reg.Define(NumIdent(1), rec); err != nil {
		t.Fatalf("define: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := reg.Resolve(NumIdent(1))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got != Type(rec) {
			t.Fatalf("expected the bound type, got %s", got)
		}
	}
}

func TestDefineSameTypeTwiceIsAllowed(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	if err := reg.Define(NameIdent("port"), &Named{ID: NameIdent("port"), Name: "port", Type: MustPrimitive(NameUint16)}); err != nil {
		t.Fatalf("define: %v", err)
	}
	again := &Named{ID: NameIdent("port"), Name: "port", Type: MustPrimitive(NameUint16)}
	if err := reg.Define(NameIdent("port"), again); err != nil {
		t.Fatalf("redefine with equal type: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 binding, got %d", reg.Len())
	}
}

func TestDefineRebindRejected(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	if err := reg.Define(NumIdent(7), MustPrimitive(NameString)); err != nil {
		t.Fatalf("define: %v", err)
	}
	err := reg.Define(NumIdent(7), MustPrimitive(NameInt64))
	if !protocol.IsKind(err, protocol.KindDuplicateTypeID) {
		t.Fatalf("expected DuplicateTypeId, got %v", err)
	}
	got, _ := reg.Lookup(NumIdent(7))
	if !Equal(got, MustPrimitive(NameString)) {
		t.Fatalf("original binding must survive, got %s", got)
	}
}

func TestIdentNamespacesAreDistinct(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	if err := reg.Define(NumIdent(1), MustPrimitive(NameString)); err != nil {
		t.Fatalf("define: %v", err)
	}
	if _, err := reg.Resolve(NameIdent("1")); err == nil {
		t.Fatalf("name \"1\" must not resolve numeric id 1")
	}
}

func TestBindingsOrdered(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	_ = reg.Define(NameIdent("b"), MustPrimitive(NameString))
	_ = reg.Define(NumIdent(30), MustPrimitive(NameString))
	_ = reg.Define(NameIdent("a"), MustPrimitive(NameString))
	_ = reg.Define(NumIdent(24), MustPrimitive(NameString))
	var got []string
	for _, b := range reg.Bindings() {
		got = append(got, b.ID.String())
	}
	want := []string{"24", "30", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("bindings: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bindings: got %v want %v", got, want)
		}
	}
}

type countingType struct {
	*Primitive
	formatted *int
}

func (c countingType) String() string {
	*c.formatted++
	return c.Primitive.String()
}

func TestDefineSkipsFormattingWhenTraceDisabled(t *testing.T) {
	testlog.Start(t)
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prev)

	var formatted int
	reg := NewRegistry()
	if err := reg.Define(NumIdent(1), countingType{Primitive: MustPrimitive(NameInt64), formatted: &formatted}); err != nil {
		t.Fatalf("define: %v", err)
	}
	if formatted != 0 {
		t.Fatalf("expected no formatting at debug level, got %d calls", formatted)
	}
}
