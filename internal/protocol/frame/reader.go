package frame

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	ErrLineTooLong = errors.New("frame: line exceeds max line bytes")
	ErrNotObject   = errors.New("frame: line is not a JSON object")
	ErrNoEnvelope  = errors.New("frame: missing envelope tag")
)

// Limits constrains line buffering.
type Limits struct {
	MaxLineBytes int
	ReadBufBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxLineBytes: 50 * 1024 * 1024,
		ReadBufBytes: 64 * 1024,
	}
}

// Reader splits a stream into newline-delimited frame lines. Blank lines are
// skipped but still counted.
type Reader struct {
	br     *bufio.Reader
	limits Limits
	line   int
	buf    []byte
	err    error
}

func NewReader(r io.Reader, limits Limits) *Reader {
	def := DefaultLimits()
	if limits.MaxLineBytes <= 0 {
		limits.MaxLineBytes = def.MaxLineBytes
	}
	if limits.ReadBufBytes <= 0 {
		limits.ReadBufBytes = def.ReadBufBytes
	}
	return &Reader{br: bufio.NewReaderSize(r, limits.ReadBufBytes), limits: limits}
}

// ReadLine returns the next non-blank line without its terminator and its
// 1-based line number. The slice is only valid until the next call. A final
// line without a trailing newline is returned before io.EOF.
func (r *Reader) ReadLine() ([]byte, int, error) {
	for {
		if r.err != nil {
			return nil, r.line, r.err
		}
		line, err := r.next()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && len(line) > 0:
			r.err = err
		case errors.Is(err, ErrLineTooLong):
			r.line++
			r.err = err
			return nil, r.line, err
		default:
			r.err = err
			return nil, r.line, err
		}
		r.line++
		line = bytes.TrimRight(line, "\r\n")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, r.line, nil
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) next() ([]byte, error) {
	r.buf = r.buf[:0]
	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(r.buf)+len(chunk) > r.limits.MaxLineBytes+1 {
			return nil, ErrLineTooLong
		}
		r.buf = append(r.buf, chunk...)
		switch {
		case err == nil:
			return r.buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return r.buf, err
		}
	}
}
