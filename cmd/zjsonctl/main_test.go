package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/testutil/testlog"
	zt "github.com/danmuck/zjsonctl/internal/testutil/zjsontest"
	"github.com/klauspost/compress/gzip"
)

func writeCapture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDecodePrintsOneLinePerValue(t *testing.T) {
	testlog.Start(t)
	capture := zt.Lines(
		zt.Types(zt.Record(1,
			zt.Field("a", zt.Primitive("int64")),
			zt.Field("tags", `{"kind":"set","type":`+zt.Primitive("string")+`}`),
			zt.Field("m", `{"kind":"map","key_type":`+zt.Primitive("string")+`,"val_type":`+zt.Primitive("int64")+`}`),
			zt.Field("b", zt.Primitive("bytes")),
			zt.Field("ip", zt.Primitive("ip")),
		)),
		zt.Data(1, `["7",["x","x","y"],[["k","1"],["k","2"]],"0x0102","10.0.0.1"]`),
		zt.Data(1, `["-1",[],[],null,null]`),
		zt.Control("TaskEnd"),
	)
	path := writeCapture(t, "capture.zjson", []byte(capture))

	out, err := run(t, "decode", path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := `{"a":7,"tags":["x","y"],"m":[["k",2]],"b":"0x0102","ip":"10.0.0.1"}` + "\n" +
		`{"a":-1,"tags":[],"m":[],"b":null,"ip":null}` + "\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestDecodeCompressedLegacyCapture(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(zt.Lines(
		`{"type":"SearchRecords","records":[{"id":0,"schema":"conn","types":[`+
			zt.Typedef("conn", zt.Record(-1, zt.Field("d", zt.Primitive("duration"))))+
			`],"values":["1.5"]}]}`,
	)))
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	path := writeCapture(t, "capture.zjson.gz", buf.Bytes())

	out, err := run(t, "decode", "--revision", "legacy", path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != `{"d":"1.5s"}`+"\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDecodeExitCodes(t *testing.T) {
	testlog.Start(t)
	recordA := zt.Record(1, zt.Field("a", zt.Primitive("int64")))

	serverErr := writeCapture(t, "boom.zjson", []byte(zt.Lines(
		zt.Types(recordA),
		zt.Data(1, `["7"]`),
		zt.QueryError("boom"),
	)))
	out, err := run(t, "decode", serverErr)
	if !protocol.IsKind(err, protocol.KindServerReported) || exitCode(err) != exitServerError {
		t.Fatalf("expected server error exit, got %v", err)
	}
	if out != `{"a":7}`+"\n" {
		t.Fatalf("expected values before the error to be printed, got %q", out)
	}

	malformed := writeCapture(t, "bad.zjson", []byte(zt.Lines(zt.Types(recordA), "{not json")))
	_, err = run(t, "decode", malformed)
	if !protocol.IsKind(err, protocol.KindMalformedFrame) || exitCode(err) != exitDecodeError {
		t.Fatalf("expected decode error exit, got %v", err)
	}

	_, err = run(t, "decode", "--revision", "v9", malformed)
	if err == nil || exitCode(err) != exitDecodeError {
		t.Fatalf("expected invalid option to fail, got %v", err)
	}
}

func TestTypesPrintsBindings(t *testing.T) {
	testlog.Start(t)
	path := writeCapture(t, "types.zjson", []byte(zt.Lines(
		zt.Types(
			zt.Record(1, zt.Field("a", zt.Primitive("int64"))),
			`{"kind":"named","id":2,"name":"port","type":`+zt.Primitive("uint16")+`}`,
		),
		zt.Data(1, `["1"]`),
	)))
	out, err := run(t, "types", path)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "1\t{a:int64}" || !strings.HasPrefix(lines[1], "2\t") {
		t.Fatalf("unexpected bindings %q", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "zjsonctl.toml")
	if _, err := run(t, "config", "init", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	out, err := run(t, "config", "validate", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("unexpected validate output %q", out)
	}

	capture := writeCapture(t, "named.zjson", []byte(zt.Lines(
		zt.NamedData("n", `"5"`, zt.Typedef("n", zt.Primitive("int64"))),
	)))
	if err := os.WriteFile(path, []byte("revision = \"named\"\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	out, err = run(t, "decode", "--config", path, capture)
	if err != nil {
		t.Fatalf("decode with config: %v", err)
	}
	if out != "5\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
