package stream

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/zjsonctl/internal/protocol"
	zt "github.com/danmuck/zjsonctl/internal/testutil/zjsontest"
)

// FuzzDecoder tests that arbitrary input never panics and only fails with
// structured errors.
func FuzzDecoder(f *testing.F) {
	f.Add([]byte(zt.Lines(zt.Types(recordA), zt.Data(1, `["7"]`))), uint8(0))
	f.Add([]byte(zt.Lines(zt.Types(recordA), zt.QueryError("boom"))), uint8(0))
	f.Add([]byte(zt.Lines(`{"type":{"kind":"set","type":{"kind":"primitive","name":"ip"}},"value":["::1","::1"]}`)), uint8(0))
	f.Add([]byte(zt.Lines(zt.NamedData("x", `[["1","a"]]`,
		zt.Typedef("x", `{"kind":"map","key_type":{"kind":"primitive","name":"int8"},"val_type":{"kind":"primitive","name":"string"}}`)))), uint8(1))
	f.Add([]byte(`{"type":"SearchRecords","records":[{"schema":"t","types":[{"kind":"typedef","name":"t","type":{"kind":"primitive","name":"time"}}],"values":"1.5"}]}`), uint8(2))

	f.Fuzz(func(t *testing.T, data []byte, rev uint8) {
		cfg := DefaultConfig()
		cfg.Revision = protocol.Revision(rev % 3)
		d := New(zt.NewSource(string(data)), cfg)
		defer d.Close()
		for i := 0; i < 1024; i++ {
			_, err := d.Next(context.Background())
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if protocol.KindOf(err) == "" {
					t.Fatalf("unstructured error: %v", err)
				}
				return
			}
		}
	})
}
