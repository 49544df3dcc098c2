// Package voice runs one continuous speech-to-text session at a time and
// feeds what it hears into the conversation.
package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/speech"
)

type State int

const (
	StateIdle State = iota
	StateListening
	StateStopping
	// StateAwaitingAssistant is reported by the controller while a dispatch is outstanding.
	StateAwaitingAssistant
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateStopping:
		return "stopping"
	case StateAwaitingAssistant:
		return "awaiting-assistant"
	default:
		return "unknown"
	}
}

// Transcript receives what the recognizer hears.
type Transcript interface {
	// SetPartial replaces the live, not yet final transcript.
	SetPartial(text string)
	// AppendUtterance records a final utterance as a user message and clears the partial.
	AppendUtterance(text string)
	// Utterances returns the user messages of the current episode, oldest first.
	Utterances() []string
	// RecordError keeps a user-visible error for the current episode.
	RecordError(err error)
}

// Dispatcher sends the joined utterances to the assistant.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) error
}

type Session struct {
	recognizer speech.Recognizer
	creds      speech.Credentials
	transcript Transcript
	dispatcher Dispatcher
	logger     logrus.FieldLogger

	mu       sync.Mutex
	state    State
	stream   speech.Stream
	consumed chan struct{}
	lastErr  error
}

func NewSession(recognizer speech.Recognizer, creds speech.Credentials, transcript Transcript, dispatcher Dispatcher, logger logrus.FieldLogger) *Session {
	return &Session{
		recognizer: recognizer,
		creds:      creds,
		transcript: transcript,
		dispatcher: dispatcher,
		logger:     logger.WithField("component", "voice"),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error that ended the most recent stream, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Done is closed when the current stream's events have all been processed.
// It returns nil when no stream was ever opened.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

// Start opens a recognition stream and moves the session to Listening.
func (s *Session) Start(ctx context.Context) error {
	const op = "voice.Start"

	if err := s.creds.Validate(); err != nil {
		return apperr.Configuration(op, err)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return apperr.Busy(op)
	}
	previous := s.consumed
	s.mu.Unlock()

	// The previous stream must be fully drained before a new one starts.
	if previous != nil {
		<-previous
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return apperr.Busy(op)
	}

	stream, err := s.recognizer.Open(ctx, s.creds)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Network(op, err)
		}
		return err
	}

	s.transcript.SetPartial("")
	s.stream = stream
	s.state = StateListening
	s.lastErr = nil
	s.consumed = make(chan struct{})
	go s.consume(stream, s.consumed)

	s.logger.Info("Voice.Start.Listening")
	return nil
}

// consume processes events one at a time in arrival order.
func (s *Session) consume(stream speech.Stream, done chan struct{}) {
	defer close(done)

	for ev := range stream.Events() {
		switch ev.Type {
		case speech.EventPartial:
			s.transcript.SetPartial(ev.Text)
		case speech.EventFinal:
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				continue
			}
			s.transcript.AppendUtterance(text)
		case speech.EventCanceled:
			s.cancel(stream, ev.ErrorDetail)
		}
	}

	// The remote side ended the stream while the session still owned it.
	s.mu.Lock()
	owned := s.stream == stream && s.state == StateListening
	if owned {
		s.state = StateIdle
		s.stream = nil
	}
	s.mu.Unlock()

	if owned {
		if err := stream.Close(); err != nil {
			s.logger.WithError(err).Debug("Voice.Session.RemoteEnd.Close")
		}
	}
}

func (s *Session) cancel(stream speech.Stream, detail string) {
	err := apperr.Transcription("voice.Session", detail)
	s.logger.WithError(err).Warn("Voice.Session.Canceled")
	s.transcript.RecordError(err)

	s.mu.Lock()
	s.lastErr = err
	if s.stream == stream {
		s.state = StateIdle
		s.stream = nil
	}
	s.mu.Unlock()

	if closeErr := stream.Close(); closeErr != nil {
		s.logger.WithError(closeErr).Debug("Voice.Session.Cancel.Close")
	}
}

// Stop ends listening and sends everything the user said in this episode to
// the dispatcher. The session is Idle afterwards even if closing the stream
// failed. Nothing is dispatched when the joined text is blank.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	stream := s.stream
	consumed := s.consumed
	if stream != nil {
		s.state = StateStopping
	}
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			s.logger.WithError(err).Warn("Voice.Stop.Close")
		}
	}
	if consumed != nil {
		<-consumed
	}

	s.mu.Lock()
	s.state = StateIdle
	s.stream = nil
	s.mu.Unlock()

	text := strings.TrimSpace(strings.Join(s.transcript.Utterances(), " "))
	if text == "" {
		s.logger.Info("Voice.Stop.NothingToSend")
		return nil
	}
	s.logger.WithField("characters", len(text)).Info("Voice.Stop.Dispatch")
	return s.dispatcher.Dispatch(ctx, text)
}
