package frame

import (
	"errors"
	"testing"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/ztype"
	"github.com/danmuck/zjsonctl/internal/testutil/testlog"
)

func parseOne(t *testing.T, line string, rev protocol.Revision) Frame {
	t.Helper()
	frames, err := Parse([]byte(line), rev)
	if err != nil {
		t.Fatalf("parse %s: %v", line, err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(frames))
	}
	return frames[0]
}

func TestParseObjectFrames(t *testing.T) {
	testlog.Start(t)
	f := parseOne(t, `{"kind":"Object","value":{"types":[{"kind":"primitive","name":"int64"}]}}`, protocol.RevisionID)
	if f.Kind != KindTypes || len(f.Types) != 1 {
		t.Fatalf("expected types frame, got %+v", f)
	}
	f = parseOne(t, `{"kind":"Object","value":{"schema":23,"values":["1"]}}`, protocol.RevisionID)
	if f.Kind != KindData || string(f.Value) != `["1"]` {
		t.Fatalf("expected data frame, got %+v", f)
	}
	id, err := f.SchemaIdent(protocol.RevisionID)
	if err != nil || id != ztype.NumIdent(23) {
		t.Fatalf("expected id 23, got %v %v", id, err)
	}
	f = parseOne(t, `{"kind":"Object","value":{"schema":"conn","types":[],"values":[]}}`, protocol.RevisionNamed)
	id, err = f.SchemaIdent(protocol.RevisionNamed)
	if err != nil || id != ztype.NameIdent("conn") {
		t.Fatalf("expected name conn, got %v %v", id, err)
	}
}

func TestParseSchemaIdentAcceptsNumericString(t *testing.T) {
	testlog.Start(t)
	f := parseOne(t, `{"kind":"Object","value":{"schema":"30","values":[]}}`, protocol.RevisionID)
	id, err := f.SchemaIdent(protocol.RevisionID)
	if err != nil || id != ztype.NumIdent(30) {
		t.Fatalf("expected id 30, got %v %v", id, err)
	}
	f = parseOne(t, `{"kind":"Object","value":{"schema":"conn","values":[]}}`, protocol.RevisionID)
	if _, err := f.SchemaIdent(protocol.RevisionID); !protocol.IsKind(err, protocol.KindMalformedFrame) {
		t.Fatalf("expected MalformedFrame for name under id revision, got %v", err)
	}
}

func TestParseInlineValue(t *testing.T) {
	testlog.Start(t)
	f := parseOne(t, `{"type":{"kind":"primitive","name":"string"},"value":"x"}`, protocol.RevisionID)
	if f.Kind != KindData || len(f.Type) == 0 || string(f.Value) != `"x"` {
		t.Fatalf("expected inline data frame, got %+v", f)
	}
	if _, err := Parse([]byte(`{"type":{"kind":"primitive","name":"string"},"value":"x"}`), protocol.RevisionNamed); !protocol.IsKind(err, protocol.KindMalformedFrame) {
		t.Fatalf("expected inline values to be rejected under named, got %v", err)
	}
}

func TestParseQueryErrorAndWarning(t *testing.T) {
	testlog.Start(t)
	f := parseOne(t, `{"kind":"QueryError","value":{"error":"boom"}}`, protocol.RevisionNamed)
	if f.Kind != KindError || f.Message != "boom" {
		t.Fatalf("expected error frame, got %+v", f)
	}
	f = parseOne(t, `{"kind":"QueryWarning","value":{"warning":"slow"}}`, protocol.RevisionID)
	if f.Kind != KindWarning || f.Message != "slow" {
		t.Fatalf("expected warning frame, got %+v", f)
	}
	f = parseOne(t, `{"kind":"QueryStats","value":{"bytes_read":10}}`, protocol.RevisionID)
	if f.Kind != KindControl || f.Tag != "QueryStats" {
		t.Fatalf("expected control frame, got %+v", f)
	}
}

func TestParseLegacySearchRecords(t *testing.T) {
	testlog.Start(t)
	line := `{"type":"SearchRecords","channel_id":0,"records":[
		{"id":0,"schema":"a","types":[{"kind":"typedef","name":"a","type":{"kind":"primitive","name":"int64"}}],"values":"1"},
		{"id":1,"schema":"a","values":"2"}]}`
	frames, err := Parse([]byte(line), protocol.RevisionLegacy)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if len(frames[0].Types) != 1 || len(frames[1].Types) != 0 {
		t.Fatalf("unexpected types split: %d %d", len(frames[0].Types), len(frames[1].Types))
	}
	if string(frames[1].Value) != `"2"` {
		t.Fatalf("unexpected second value %s", frames[1].Value)
	}
}

func TestParseLegacyErrors(t *testing.T) {
	testlog.Start(t)
	f := parseOne(t, `{"type":"TaskEnd","task_id":1,"error":{"type":"Error","kind":"invalid","error":"bad query"}}`, protocol.RevisionLegacy)
	if f.Kind != KindError || f.Message != "bad query" || f.Detail != "invalid" {
		t.Fatalf("expected task end error, got %+v", f)
	}
	f = parseOne(t, `{"type":"TaskEnd","task_id":1}`, protocol.RevisionLegacy)
	if f.Kind != KindControl {
		t.Fatalf("expected clean task end to be control, got %+v", f)
	}
	f = parseOne(t, `{"type":"Error","kind":"internal","error":"disk full"}`, protocol.RevisionLegacy)
	if f.Kind != KindError || f.Message != "disk full" {
		t.Fatalf("expected error frame, got %+v", f)
	}
	f = parseOne(t, `{"type":"SearchWarning","warning":"partial"}`, protocol.RevisionLegacy)
	if f.Kind != KindWarning || f.Message != "partial" {
		t.Fatalf("expected warning frame, got %+v", f)
	}
}

func TestParseMalformed(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		line string
		rev  protocol.Revision
	}{
		{`[1,2]`, protocol.RevisionID},
		{`null`, protocol.RevisionID},
		{`{"value":{}}`, protocol.RevisionNamed},
		{`{"kind":7}`, protocol.RevisionID},
		{`{"kind":"Object","value":[]}`, protocol.RevisionID},
		{`{"kind":"Object","value":{"schema":1}}`, protocol.RevisionID},
		{`{"kind":"Object","value":{"values":[]}}`, protocol.RevisionID},
		{`{"kind":"Object","value":{"schema":1,"values":[],"extra":true}}`, protocol.RevisionID},
		{`{"type":{"kind":"primitive","name":"string"}}`, protocol.RevisionID},
		{`{"kind":"Object","value":{}}`, protocol.RevisionLegacy},
		{`{"type":"SearchRecords","records":{}}`, protocol.RevisionLegacy},
		{`{"type":"SearchRecords","records":[{"values":[]}]}`, protocol.RevisionLegacy},
	}
	for _, c := range cases {
		_, err := Parse([]byte(c.line), c.rev)
		if !protocol.IsKind(err, protocol.KindMalformedFrame) {
			t.Fatalf("%s: expected MalformedFrame, got %v", c.line, err)
		}
	}
	_, err := Parse([]byte(`"str"`), protocol.RevisionID)
	if !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
}
