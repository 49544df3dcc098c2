// Package speechtest provides an in-memory speech.Recognizer for tests.
package speechtest

import (
	"context"
	"sync"

	"github.com/carson-networks/finance-assistant/internal/speech"
)

// Recognizer hands out Streams whose events are pushed by the test.
type Recognizer struct {
	mu      sync.Mutex
	streams []*Stream
	// OpenErr is returned by Open when set.
	OpenErr error
	// CloseErr is returned by every Stream's Close.
	CloseErr error
}

var _ speech.Recognizer = (*Recognizer)(nil)

func (r *Recognizer) Open(ctx context.Context, creds speech.Credentials) (speech.Stream, error) {
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Stream{events: make(chan speech.Event, 64), closeErr: r.CloseErr}
	r.streams = append(r.streams, s)
	return s, nil
}

// Opened returns how many streams were opened.
func (r *Recognizer) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

// Last returns the most recently opened stream, or nil.
func (r *Recognizer) Last() *Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) == 0 {
		return nil
	}
	return r.streams[len(r.streams)-1]
}

type Stream struct {
	events   chan speech.Event
	closeErr error
	mu       sync.Mutex
	ended    bool
	closes   int
}

func (s *Stream) Events() <-chan speech.Event {
	return s.events
}

// Close ends the stream. Pushing after Close is a no-op.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.endLocked()
	return s.closeErr
}

// Closes reports how many times Close was called.
func (s *Stream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *Stream) Partial(text string) {
	s.push(speech.Event{Type: speech.EventPartial, Text: text})
}

func (s *Stream) Final(text string) {
	s.push(speech.Event{Type: speech.EventFinal, Text: text})
}

func (s *Stream) Cancel(detail string) {
	s.push(speech.Event{Type: speech.EventCanceled, ErrorDetail: detail})
}

// End simulates the remote side finishing the stream.
func (s *Stream) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
}

func (s *Stream) push(ev speech.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.events <- ev
}

func (s *Stream) endLocked() {
	if !s.ended {
		s.ended = true
		close(s.events)
	}
}
