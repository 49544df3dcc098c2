package voice

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/speech"
	"github.com/carson-networks/finance-assistant/internal/speech/speechtest"
)

var validCreds = speech.Credentials{SubscriptionKey: "key", Region: "eastus"}

type recordingTranscript struct {
	mu         sync.Mutex
	partial    string
	utterances []string
	err        error
}

func (r *recordingTranscript) SetPartial(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partial = text
}

func (r *recordingTranscript) AppendUtterance(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances = append(r.utterances, text)
	r.partial = ""
}

func (r *recordingTranscript) Utterances() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.utterances...)
}

func (r *recordingTranscript) RecordError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recordingTranscript) Partial() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partial
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func newTestSession(creds speech.Credentials) (*Session, *speechtest.Recognizer, *recordingTranscript, *mockDispatcher) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	recognizer := &speechtest.Recognizer{}
	transcript := &recordingTranscript{}
	dispatcher := new(mockDispatcher)
	return NewSession(recognizer, creds, transcript, dispatcher, logger), recognizer, transcript, dispatcher
}

// -- Start tests --

func TestStart_MissingCredentials(t *testing.T) {
	session, recognizer, _, _ := newTestSession(speech.Credentials{Region: "eastus"})

	err := session.Start(context.Background())

	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.ErrorIs(t, err, speech.ErrMissingKey)
	assert.Equal(t, StateIdle, session.State())
	assert.Equal(t, 0, recognizer.Opened())
}

func TestStart_OpenFailureIsNetworkError(t *testing.T) {
	session, recognizer, _, _ := newTestSession(validCreds)
	recognizer.OpenErr = errors.New("dial tcp: i/o timeout")

	err := session.Start(context.Background())

	assert.True(t, apperr.Is(err, apperr.KindNetwork))
	assert.Equal(t, StateIdle, session.State())
}

func TestStart_WhileListeningIsBusy(t *testing.T) {
	session, recognizer, _, _ := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))

	err := session.Start(context.Background())

	assert.True(t, apperr.Is(err, apperr.KindBusy))
	assert.Equal(t, 1, recognizer.Opened())
	assert.Equal(t, StateListening, session.State())
}

// -- Event handling tests --

func TestEvents_PartialThenFinal(t *testing.T) {
	session, recognizer, transcript, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	stream := recognizer.Last()

	stream.Partial("coffee")
	assert.Eventually(t, func() bool { return transcript.Partial() == "coffee" }, time.Second, 5*time.Millisecond)

	stream.Partial("coffee three")
	stream.Final("  coffee three dollars  ")
	stream.Final("   ")

	dispatcher.On("Dispatch", mock.Anything, "coffee three dollars").Return(nil).Once()
	require.NoError(t, session.Stop(context.Background()))

	assert.Equal(t, []string{"coffee three dollars"}, transcript.Utterances())
	assert.Equal(t, "", transcript.Partial())
	assert.Equal(t, StateIdle, session.State())
	assert.Equal(t, 1, stream.Closes())
	dispatcher.AssertExpectations(t)
}

func TestEvents_CancelDoesNotDispatch(t *testing.T) {
	session, recognizer, transcript, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	stream := recognizer.Last()

	stream.Cancel("websocket: close 1006")

	assert.Eventually(t, func() bool { return session.State() == StateIdle }, time.Second, 5*time.Millisecond)
	<-session.Done()
	assert.True(t, apperr.Is(session.LastError(), apperr.KindTranscription))
	transcript.mu.Lock()
	assert.True(t, apperr.Is(transcript.err, apperr.KindTranscription))
	transcript.mu.Unlock()
	assert.Equal(t, 1, stream.Closes())
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestEvents_RemoteEndGoesIdle(t *testing.T) {
	session, recognizer, _, _ := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))

	stream := recognizer.Last()
	stream.End()
	<-session.Done()

	assert.Equal(t, StateIdle, session.State())
	assert.Equal(t, 1, stream.Closes())
}

func TestStop_AfterRemoteEndDoesNotCloseTwice(t *testing.T) {
	session, recognizer, _, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	stream := recognizer.Last()
	stream.Final("gasto de diez soles")
	stream.End()
	<-session.Done()

	dispatcher.On("Dispatch", mock.Anything, "gasto de diez soles").Return(nil).Once()
	require.NoError(t, session.Stop(context.Background()))

	assert.Equal(t, StateIdle, session.State())
	assert.Equal(t, 1, stream.Closes())
	dispatcher.AssertExpectations(t)
}

// -- Stop tests --

func TestStop_JoinsUtterancesWithSingleSpace(t *testing.T) {
	session, recognizer, _, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	stream := recognizer.Last()
	stream.Final("gasté veinte soles")
	stream.Final("en el almuerzo")

	dispatcher.On("Dispatch", mock.Anything, "gasté veinte soles en el almuerzo").Return(nil).Once()
	require.NoError(t, session.Stop(context.Background()))

	dispatcher.AssertExpectations(t)
}

func TestStop_BlankTranscriptSendsNothing(t *testing.T) {
	session, _, _, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))

	require.NoError(t, session.Stop(context.Background()))

	assert.Equal(t, StateIdle, session.State())
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestStop_CloseErrorStillIdleAndDispatches(t *testing.T) {
	session, recognizer, _, dispatcher := newTestSession(validCreds)
	recognizer.CloseErr = errors.New("already closed")
	require.NoError(t, session.Start(context.Background()))
	recognizer.Last().Final("hola")

	dispatcher.On("Dispatch", mock.Anything, "hola").Return(nil).Once()
	require.NoError(t, session.Stop(context.Background()))

	assert.Equal(t, StateIdle, session.State())
	dispatcher.AssertExpectations(t)
}

func TestStop_AfterCancelDispatchesEarlierUtterances(t *testing.T) {
	session, recognizer, _, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	stream := recognizer.Last()
	stream.Final("ingreso de cien soles")
	stream.Cancel("network lost")
	<-session.Done()

	dispatcher.On("Dispatch", mock.Anything, "ingreso de cien soles").Return(nil).Once()
	require.NoError(t, session.Stop(context.Background()))

	dispatcher.AssertExpectations(t)
}

func TestStop_ReturnsDispatchError(t *testing.T) {
	session, recognizer, _, dispatcher := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	recognizer.Last().Final("hola")

	dispatcher.On("Dispatch", mock.Anything, "hola").Return(apperr.Busy("chat.Dispatch"))
	err := session.Stop(context.Background())

	assert.True(t, apperr.Is(err, apperr.KindBusy))
}

func TestStart_AfterStopOpensNewStream(t *testing.T) {
	session, recognizer, _, _ := newTestSession(validCreds)
	require.NoError(t, session.Start(context.Background()))
	require.NoError(t, session.Stop(context.Background()))

	require.NoError(t, session.Start(context.Background()))

	assert.Equal(t, 2, recognizer.Opened())
	assert.Equal(t, StateListening, session.State())
}
