// Package speech streams microphone audio to a remote recognizer and turns
// its responses into recognition events.
package speech

import (
	"context"
	"errors"
)

// Locale is the only dialect the recognizer is configured for.
const Locale = "es-PE"

type EventType int

const (
	// EventPartial carries an interim hypothesis for the utterance in progress.
	EventPartial EventType = iota
	// EventFinal carries the recognized text of a completed utterance.
	EventFinal
	// EventCanceled reports that recognition stopped because of an error.
	EventCanceled
)

func (t EventType) String() string {
	switch t {
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type Event struct {
	Type EventType
	Text string
	// ErrorDetail is set on EventCanceled.
	ErrorDetail string
}

var (
	ErrMissingKey    = errors.New("speech subscription key is not set")
	ErrMissingRegion = errors.New("speech region is not set")
)

type Credentials struct {
	SubscriptionKey string
	Region          string
}

func (c Credentials) Validate() error {
	var errs []error
	if c.SubscriptionKey == "" {
		errs = append(errs, ErrMissingKey)
	}
	if c.Region == "" {
		errs = append(errs, ErrMissingRegion)
	}
	return errors.Join(errs...)
}

// Recognizer opens continuous recognition streams.
type Recognizer interface {
	Open(ctx context.Context, creds Credentials) (Stream, error)
}

// Stream delivers events in arrival order. Events is closed once the stream
// has ended, either after Close or when the remote side finishes.
type Stream interface {
	Events() <-chan Event
	Close() error
}
