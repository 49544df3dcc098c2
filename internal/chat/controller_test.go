package chat

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/gateway"
	"github.com/carson-networks/finance-assistant/internal/speech"
	"github.com/carson-networks/finance-assistant/internal/speech/speechtest"
	"github.com/carson-networks/finance-assistant/internal/voice"
)

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) SendMessage(ctx context.Context, text string) (gateway.Reply, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(gateway.Reply), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fixture struct {
	controller *Controller
	recognizer *speechtest.Recognizer
	assistant  *mockAssistant
	refresher  *mockRefresher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	f := fixture{
		recognizer: &speechtest.Recognizer{},
		assistant:  new(mockAssistant),
		refresher:  new(mockRefresher),
	}
	f.controller = NewController(Options{
		Recognizer:  f.recognizer,
		Credentials: speech.Credentials{SubscriptionKey: "key", Region: "eastus"},
		Assistant:   f.assistant,
		Refresher:   f.refresher,
		Timeout:     time.Second,
		Logger:      logger,
	})
	return f
}

// say runs one listening round with the given final utterances.
func (f fixture) say(t *testing.T, utterances ...string) error {
	t.Helper()
	require.NoError(t, f.controller.StartListening(context.Background()))
	stream := f.recognizer.Last()
	for _, u := range utterances {
		stream.Final(u)
	}
	return f.controller.StopListening(context.Background())
}

// -- Dispatch flow tests --

func TestController_RegisteredReplyClosesEpisode(t *testing.T) {
	f := newFixture(t)
	f.assistant.On("SendMessage", mock.Anything, "coffee three dollars").
		Return(gateway.Reply{Response: "Logged!", Registered: true}, nil).Once()
	f.refresher.On("Refresh", mock.Anything).Return(nil).Once()

	require.NoError(t, f.say(t, "coffee three dollars"))

	view := f.controller.View()
	require.Len(t, view.Messages, 2)
	assert.Equal(t, SpeakerUser, view.Messages[0].Speaker)
	assert.Equal(t, "coffee three dollars", view.Messages[0].Text)
	assert.Equal(t, SpeakerAssistant, view.Messages[1].Speaker)
	assert.Equal(t, "Logged!", view.Messages[1].Text)
	assert.True(t, view.Closed)
	assert.False(t, view.Processing)

	require.NoError(t, f.controller.StartListening(context.Background()))
	assert.Empty(t, f.controller.View().Messages)
	assert.False(t, f.controller.View().Closed)

	f.assistant.AssertExpectations(t)
	f.refresher.AssertExpectations(t)
}

func TestController_UnregisteredReplyKeepsHistory(t *testing.T) {
	f := newFixture(t)
	f.assistant.On("SendMessage", mock.Anything, "hola").
		Return(gateway.Reply{Response: "¿Cuánto gastaste?"}, nil).Once()
	f.assistant.On("SendMessage", mock.Anything, "hola veinte soles").
		Return(gateway.Reply{Response: "Registrado.", Registered: true}, nil).Once()
	f.refresher.On("Refresh", mock.Anything).Return(errors.New("offline")).Once()

	require.NoError(t, f.say(t, "hola"))
	require.NoError(t, f.say(t, "veinte soles"))

	view := f.controller.View()
	assert.Len(t, view.Messages, 4)
	assert.True(t, view.Closed)
	f.assistant.AssertExpectations(t)
	f.refresher.AssertExpectations(t)
}

func TestController_FailureKeepsHistoryAndClearsProcessing(t *testing.T) {
	f := newFixture(t)
	failure := apperr.NetworkStatus("gateway.SendMessage", 502)
	f.assistant.On("SendMessage", mock.Anything, "gasté diez").
		Return(gateway.Reply{}, failure).Once()

	err := f.say(t, "gasté diez")

	assert.True(t, apperr.Is(err, apperr.KindNetwork))
	view := f.controller.View()
	require.Len(t, view.Messages, 1)
	assert.Equal(t, "gasté diez", view.Messages[0].Text)
	assert.False(t, view.Processing)
	assert.Equal(t, failure, view.Err)
	assert.Equal(t, voice.StateIdle, f.controller.State())
	f.refresher.AssertNotCalled(t, "Refresh", mock.Anything)
}

func TestController_RejectsConcurrentDispatch(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.assistant.On("SendMessage", mock.Anything, "primero").
		Run(func(mock.Arguments) { <-release }).
		Return(gateway.Reply{Response: "ok"}, nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- f.controller.Dispatch(context.Background(), "primero")
	}()
	assert.Eventually(t, func() bool {
		return f.controller.State() == voice.StateAwaitingAssistant
	}, time.Second, 5*time.Millisecond)

	err := f.controller.Dispatch(context.Background(), "segundo")
	assert.True(t, apperr.Is(err, apperr.KindBusy))

	close(release)
	assert.NoError(t, <-done)
	assert.False(t, f.controller.View().Processing)
	f.assistant.AssertNotCalled(t, "SendMessage", mock.Anything, "segundo")
}

func TestController_CancelledSessionNeverDispatches(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.StartListening(context.Background()))
	f.recognizer.Last().Final("algo")
	f.recognizer.Last().Cancel("connection reset")
	<-f.controller.ListeningDone()

	assert.Equal(t, voice.StateIdle, f.controller.State())
	assert.True(t, apperr.Is(f.controller.View().Err, apperr.KindTranscription))
	f.assistant.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestController_StartWithoutCredentials(t *testing.T) {
	c := NewController(Options{Recognizer: &speechtest.Recognizer{}, Assistant: new(mockAssistant)})

	err := c.StartListening(context.Background())

	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.Equal(t, err, c.View().Err)
}

// -- Submit tests --

func TestController_SubmitTypedText(t *testing.T) {
	f := newFixture(t)
	f.assistant.On("SendMessage", mock.Anything, "recibí mi sueldo de 2000").
		Return(gateway.Reply{Response: "Listo", Registered: true}, nil).Once()
	f.refresher.On("Refresh", mock.Anything).Return(nil).Once()

	require.NoError(t, f.controller.Submit(context.Background(), "  recibí mi sueldo de 2000 "))

	assert.Len(t, f.controller.View().Messages, 2)
	assert.NoError(t, f.controller.Submit(context.Background(), "   "))
	assert.Len(t, f.controller.View().Messages, 2)
}

func TestController_RefreshGetsItsOwnTimeout(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	assistant := new(mockAssistant)
	refresher := new(mockRefresher)
	c := NewController(Options{
		Recognizer:     &speechtest.Recognizer{},
		Assistant:      assistant,
		Refresher:      refresher,
		Timeout:        100 * time.Millisecond,
		RefreshTimeout: time.Second,
		Logger:         logger,
	})

	assistant.On("SendMessage", mock.Anything, "gasté 5 soles").
		Run(func(mock.Arguments) { time.Sleep(90 * time.Millisecond) }).
		Return(gateway.Reply{Response: "Listo", Registered: true}, nil).Once()

	var remaining time.Duration
	refresher.On("Refresh", mock.Anything).
		Run(func(args mock.Arguments) {
			deadline, ok := args.Get(0).(context.Context).Deadline()
			require.True(t, ok)
			remaining = time.Until(deadline)
		}).
		Return(nil).Once()

	require.NoError(t, c.Submit(context.Background(), "gasté 5 soles"))

	assert.Greater(t, remaining, 500*time.Millisecond)
	refresher.AssertExpectations(t)
}
