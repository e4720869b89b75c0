package stream

import (
	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/frame"
)

// Observer receives decoder events. Calls happen on the goroutine driving
// Next and must not block.
type Observer interface {
	ObserveFrame(kind frame.Kind)
	ObserveValue()
	ObserveError(kind protocol.Kind)
}

// Config defines per-stream decoding behavior.
type Config struct {
	Revision protocol.Revision
	Limits   frame.Limits
	Observer Observer
}

// DefaultConfig returns the id revision with default line limits.
func DefaultConfig() Config {
	return Config{
		Revision: protocol.RevisionID,
		Limits:   frame.DefaultLimits(),
	}
}

type nopObserver struct{}

func (nopObserver) ObserveFrame(frame.Kind)    {}
func (nopObserver) ObserveValue()              {}
func (nopObserver) ObserveError(protocol.Kind) {}
