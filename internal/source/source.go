// Package source opens captured ZJSON streams, undoing any compression the
// capture was stored with.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
)

// Compression names the codec a capture is stored with.
type Compression uint8

const (
	CompressionAuto Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionAuto:
		return "auto"
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a codec name. The empty string means auto.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return CompressionAuto, nil
	case "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect identifies a codec from the leading bytes of a stream.
func Detect(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(head, magicLZ4):
		return CompressionLZ4
	case bytes.HasPrefix(head, magicGzip):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// Open opens path, or stdin for "-", and wraps it for c.
func Open(path string, c Compression) (io.ReadCloser, error) {
	if path == "-" {
		return Wrap(io.NopCloser(os.Stdin), c)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	rc, err := Wrap(f, c)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return rc, nil
}

// Wrap returns a reader of the decompressed content of rc. Closing it
// releases the codec and closes rc.
func Wrap(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	var r io.Reader = rc
	if c == CompressionAuto {
		br := bufio.NewReader(rc)
		head, err := br.Peek(len(magicZstd))
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("detect compression: %w", err)
		}
		c = Detect(head)
		r = br
		log.Debug().Stringer("compression", c).Msg("source compression detected")
	}
	switch c {
	case CompressionNone:
		return &readCloser{Reader: r, closers: []func() error{rc.Close}}, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip source: %w", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{zr.Close, rc.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd source: %w", err)
		}
		release := func() error {
			zr.Close()
			return nil
		}
		return &readCloser{Reader: zr, closers: []func() error{release, rc.Close}}, nil
	case CompressionLZ4:
		return &readCloser{Reader: lz4.NewReader(r), closers: []func() error{rc.Close}}, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

type readCloser struct {
	io.Reader
	closers []func() error
	closed  bool
}

func (r *readCloser) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for _, fn := range r.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
