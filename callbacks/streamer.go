package callbacks

import (
	"context"
	"sync"

	"github.com/solchat-ai/solchat/assistants"
)

var _ assistants.ProgressSink = (*Streamer)(nil)

// Streamer delivers progress events to a bounded channel for a client
// to consume, typically over SSE or a websocket. Publish never blocks;
// when the consumer lags behind the buffer the event is dropped.
type Streamer struct {
	ch     chan assistants.ProgressEvent
	closed bool
	lock   sync.Mutex
}

// NewStreamer creates a streamer with the given buffer size.
func NewStreamer(buffer int) *Streamer {
	if buffer <= 0 {
		buffer = 16
	}
	return &Streamer{
		ch: make(chan assistants.ProgressEvent, buffer),
	}
}

// Events is the channel the consumer reads from. It is closed by Close.
func (s *Streamer) Events() <-chan assistants.ProgressEvent {
	return s.ch
}

// Publish delivers the event if the buffer has room, and drops it
// otherwise.
func (s *Streamer) Publish(ctx context.Context, ev assistants.ProgressEvent) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// Close closes the event channel. Publish after Close is a no-op.
func (s *Streamer) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
