package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/frame"
	"github.com/danmuck/zjsonctl/internal/protocol/ztype"
	"github.com/danmuck/zjsonctl/internal/protocol/zvalue"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("stream: decoder closed")

// Decoder is a pull iterator over the native values of one ZJSON stream. It
// owns the stream's type registry. A Decoder is not safe for concurrent use.
type Decoder struct {
	src    io.ReadCloser
	cfg    Config
	lines  *frame.Reader
	reg    *ztype.Registry
	types  *ztype.Decoder
	values *zvalue.Decoder

	pending []frame.Frame
	line    int
	err     error

	closeOnce sync.Once
	closeErr  error
}

func New(src io.ReadCloser, cfg Config) *Decoder {
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	reg := ztype.NewRegistry()
	return &Decoder{
		src:    src,
		cfg:    cfg,
		lines:  frame.NewReader(src, cfg.Limits),
		reg:    reg,
		types:  ztype.NewDecoder(reg, cfg.Revision),
		values: zvalue.NewDecoder(cfg.Revision),
	}
}

// Registry exposes the type bindings seen so far.
func (d *Decoder) Registry() *ztype.Registry {
	return d.reg
}

// Next returns the next native value. It returns io.EOF at the clean end of
// the stream. After any error the decoder is terminal and Next keeps
// returning that error.
func (d *Decoder) Next(ctx context.Context) (any, error) {
	for {
		if d.err != nil {
			return nil, d.err
		}
		if err := ctx.Err(); err != nil {
			return nil, d.fail(protocol.AtLine(
				protocol.Wrap(protocol.KindTransport, err, "stream cancelled"), d.lines.Line()+1))
		}
		if len(d.pending) == 0 {
			if err := d.readLine(); err != nil {
				return nil, err
			}
			continue
		}
		f := d.pending[0]
		d.pending = d.pending[1:]
		v, ok, err := d.apply(f)
		if err != nil {
			return nil, d.fail(protocol.AtLine(err, d.line))
		}
		if ok {
			d.cfg.Observer.ObserveValue()
			return v, nil
		}
	}
}

func (d *Decoder) readLine() error {
	line, n, err := d.lines.ReadLine()
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		log.Debug().Int("lines", d.lines.Line()).Int("types", d.reg.Len()).Msg("stream complete")
		d.err = io.EOF
		return io.EOF
	case errors.Is(err, frame.ErrLineTooLong):
		return d.fail(protocol.AtLine(protocol.Wrap(protocol.KindMalformedFrame, err, "read frame"), n))
	default:
		return d.fail(protocol.AtLine(protocol.Wrap(protocol.KindTransport, err, "read frame"), n+1))
	}
	frames, err := frame.Parse(line, d.cfg.Revision)
	if err != nil {
		return d.fail(protocol.AtLine(err, n))
	}
	d.pending, d.line = frames, n
	return nil
}

// apply processes one frame and reports whether it produced a value.
func (d *Decoder) apply(f frame.Frame) (any, bool, error) {
	d.cfg.Observer.ObserveFrame(f.Kind)
	switch f.Kind {
	case frame.KindControl:
		log.Trace().Int("line", d.line).Str("tag", f.Tag).Msg("control frame skipped")
		return nil, false, nil
	case frame.KindWarning:
		log.Warn().Int("line", d.line).Str("tag", f.Tag).Str("warning", f.Message).Msg("server warning")
		return nil, false, nil
	case frame.KindError:
		return nil, false, protocol.ServerError(f.Message, f.Detail)
	case frame.KindTypes, frame.KindData:
		for _, raw := range f.Types {
			if _, err := d.types.Decode(raw); err != nil {
				return nil, false, err
			}
		}
		if f.Kind == frame.KindTypes {
			return nil, false, nil
		}
		typ, err := d.dataType(f)
		if err != nil {
			return nil, false, err
		}
		v, err := d.values.Decode(typ, f.Value)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return nil, false, protocol.Errorf(protocol.KindMalformedFrame, "unhandled frame kind %s", f.Kind)
}

func (d *Decoder) dataType(f frame.Frame) (ztype.Type, error) {
	if len(f.Type) > 0 {
		return d.types.Decode(f.Type)
	}
	id, err := f.SchemaIdent(d.cfg.Revision)
	if err != nil {
		return nil, err
	}
	return d.reg.Resolve(id)
}

func (d *Decoder) fail(err error) error {
	d.err = err
	d.pending = nil
	kind := protocol.KindOf(err)
	d.cfg.Observer.ObserveError(kind)
	if kind == protocol.KindServerReported {
		log.Warn().Err(err).Msg("stream ended by server error")
	} else {
		log.Error().Err(err).Str("kind", string(kind)).Msg("stream decode failed")
	}
	return err
}

// All adapts the decoder to a range-over-func sequence. Iteration stops after
// the first error, which is yielded once; io.EOF ends it silently. The source
// is closed when iteration ends, including when the consumer breaks early.
func (d *Decoder) All(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		defer d.Close()
		for {
			v, err := d.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Close releases the source. It is safe to call more than once; later calls
// return the first result. Next returns ErrClosed after Close unless the
// decoder had already terminated.
func (d *Decoder) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.src.Close()
		if d.err == nil {
			d.err = ErrClosed
		}
		d.pending = nil
	})
	return d.closeErr
}
