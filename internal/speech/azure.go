package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	defaultChunkSize = 3200 // 100ms of 16kHz 16-bit mono PCM
	closeGrace       = 3 * time.Second
	audioStopGrace   = 500 * time.Millisecond
	eventBuffer      = 16
)

// AudioSource opens the audio to stream. The stream closes it.
type AudioSource func(ctx context.Context) (io.ReadCloser, error)

// AzureRecognizer speaks the Azure Cognitive Services speech websocket protocol.
type AzureRecognizer struct {
	Audio AudioSource
	// Endpoint overrides the regional websocket URL.
	Endpoint string
	Dialer   *websocket.Dialer
	// ChunkSize is the number of audio bytes sent per frame.
	ChunkSize int
	// Pace delays each frame to approximate real-time capture. Zero sends as fast as possible.
	Pace   time.Duration
	Logger logrus.FieldLogger
}

var _ Recognizer = (*AzureRecognizer)(nil)

func (r *AzureRecognizer) endpoint(creds Credentials) string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return fmt.Sprintf(
		"wss://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1?language=%s&format=simple",
		creds.Region, Locale)
}

func newID() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")
}

// Open dials the recognizer, sends the session configuration and starts
// streaming audio.
func (r *AzureRecognizer) Open(ctx context.Context, creds Credentials) (Stream, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if r.Audio == nil {
		return nil, errors.New("speech: no audio source")
	}

	logger := r.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	dialer := r.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	chunkSize := r.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	connectionID := newID()
	header := http.Header{}
	header.Set("Ocp-Apim-Subscription-Key", creds.SubscriptionKey)
	header.Set("X-ConnectionId", connectionID)

	conn, resp, err := dialer.DialContext(ctx, r.endpoint(creds), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("speech: dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("speech: dial: %w", err)
	}

	audio, err := r.Audio(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("speech: open audio: %w", err)
	}

	s := &azureStream{
		conn:      conn,
		audio:     audio,
		requestID: newID(),
		chunkSize: chunkSize,
		pace:      r.Pace,
		events:    make(chan Event, eventBuffer),
		stop:      make(chan struct{}),
		readDone:  make(chan struct{}),
		writeDone: make(chan struct{}),
		logger:    logger.WithField("connectionID", connectionID),
	}

	config, _ := json.Marshal(map[string]any{
		"context": map[string]any{
			"system": map[string]string{"version": "1.0.0"},
			"os":     map[string]string{"platform": "Go", "name": "finance-client"},
		},
	})
	if err := conn.WriteMessage(websocket.TextMessage,
		encodeTextMessage(pathSpeechConfig, s.requestID, "application/json", config)); err != nil {
		_ = audio.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("speech: send config: %w", err)
	}

	go s.readLoop()
	go s.writeLoop()
	return s, nil
}

type azureStream struct {
	conn      *websocket.Conn
	audio     io.ReadCloser
	requestID string
	chunkSize int
	pace      time.Duration
	logger    logrus.FieldLogger

	events    chan Event
	stop      chan struct{}
	readDone  chan struct{}
	writeDone chan struct{}

	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	closing   bool
}

func (s *azureStream) Events() <-chan Event {
	return s.events
}

// Close stops sending audio, gives the service a short grace period to
// deliver the results for audio already sent, then closes the connection.
// An audio source whose Read is still blocked after audioStopGrace is
// abandoned and no results are awaited.
func (s *azureStream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		close(s.stop)
		_ = s.audio.Close()

		select {
		case <-s.writeDone:
			select {
			case <-s.readDone:
			case <-time.After(closeGrace):
			}
		case <-time.After(audioStopGrace):
			s.logger.Debug("Speech.Close.AudioBlocked")
		}

		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			s.logger.WithError(err).Debug("Speech.Close.WriteControl")
		}
		s.closeErr = s.conn.Close()
		<-s.readDone
	})
	return s.closeErr
}

func (s *azureStream) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *azureStream) writeLoop() {
	defer close(s.writeDone)
	defer s.audio.Close()

	var ticker *time.Ticker
	if s.pace > 0 {
		ticker = time.NewTicker(s.pace)
		defer ticker.Stop()
	}

	buf := make([]byte, s.chunkSize)
	for {
		select {
		case <-s.stop:
			s.sendEndOfAudio()
			return
		default:
		}

		n, err := s.audio.Read(buf)
		if n > 0 {
			if werr := s.conn.WriteMessage(websocket.BinaryMessage, encodeAudioMessage(s.requestID, buf[:n])); werr != nil {
				if !s.isClosing() {
					s.logger.WithError(werr).Warn("Speech.WriteAudio.Error")
				}
				return
			}
		}
		if errors.Is(err, io.EOF) {
			s.sendEndOfAudio()
			return
		}
		if err != nil {
			if !s.isClosing() {
				s.logger.WithError(err).Warn("Speech.ReadAudio.Error")
			}
			s.sendEndOfAudio()
			return
		}

		if ticker != nil {
			select {
			case <-s.stop:
				s.sendEndOfAudio()
				return
			case <-ticker.C:
			}
		}
	}
}

// sendEndOfAudio sends an empty audio frame, which tells the service no more audio follows.
func (s *azureStream) sendEndOfAudio() {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, encodeAudioMessage(s.requestID, nil)); err != nil {
		s.logger.WithError(err).Debug("Speech.EndOfAudio.Error")
	}
}

func (s *azureStream) readLoop() {
	defer close(s.readDone)
	defer close(s.events)

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.isClosing() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			s.events <- Event{Type: EventCanceled, ErrorDetail: err.Error()}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		headers, body, err := parseTextMessage(data)
		if err != nil {
			s.logger.WithError(err).Warn("Speech.ReadLoop.Malformed")
			continue
		}

		event, done := s.translate(headers["path"], body)
		if event != nil {
			s.events <- *event
		}
		if done {
			return
		}
	}
}

// translate maps one service message to at most one event. done reports
// whether the stream has ended.
func (s *azureStream) translate(path string, body []byte) (*Event, bool) {
	switch path {
	case pathHypothesis:
		var hyp hypothesisBody
		if err := json.Unmarshal(body, &hyp); err != nil {
			s.logger.WithError(err).Warn("Speech.Hypothesis.Decode")
			return nil, false
		}
		return &Event{Type: EventPartial, Text: hyp.Text}, false
	case pathPhrase:
		var phrase phraseBody
		if err := json.Unmarshal(body, &phrase); err != nil {
			s.logger.WithError(err).Warn("Speech.Phrase.Decode")
			return nil, false
		}
		switch phrase.RecognitionStatus {
		case statusSuccess:
			return &Event{Type: EventFinal, Text: phrase.DisplayText}, false
		case statusNoMatch, statusInitialSilenceTimeout, statusBabbleTimeout, statusEndOfDictation:
			return nil, false
		default:
			return &Event{Type: EventCanceled, ErrorDetail: "recognition status " + phrase.RecognitionStatus}, true
		}
	case pathTurnEnd:
		return nil, true
	default:
		return nil, false
	}
}
