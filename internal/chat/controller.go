// Package chat coordinates listening, the conversation history and the
// round trip to the assistant.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/gateway"
	"github.com/carson-networks/finance-assistant/internal/speech"
	"github.com/carson-networks/finance-assistant/internal/voice"
)

const (
	DefaultAssistantTimeout = 60 * time.Second
	DefaultRefreshTimeout   = 10 * time.Second
)

type Assistant interface {
	SendMessage(ctx context.Context, text string) (gateway.Reply, error)
}

// Refresher reloads the transaction store after the assistant recorded something.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Options struct {
	Recognizer  speech.Recognizer
	Credentials speech.Credentials
	Assistant   Assistant
	// Refresher is optional.
	Refresher Refresher
	Timeout   time.Duration
	// RefreshTimeout bounds the store refresh after a registered reply.
	RefreshTimeout time.Duration
	Logger         logrus.FieldLogger
	Now            func() time.Time
}

type Controller struct {
	conversation *Conversation
	session      *voice.Session
	assistant    Assistant
	refresher    Refresher
	timeout      time.Duration
	refreshAfter time.Duration
	logger       logrus.FieldLogger
}

var _ voice.Dispatcher = (*Controller)(nil)
var _ voice.Transcript = (*Conversation)(nil)

func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultAssistantTimeout
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}

	c := &Controller{
		conversation: NewConversation(opts.Now),
		assistant:    opts.Assistant,
		refresher:    opts.Refresher,
		timeout:      timeout,
		refreshAfter: refreshTimeout,
		logger:       logger.WithField("component", "chat"),
	}
	c.session = voice.NewSession(opts.Recognizer, opts.Credentials, c.conversation, c, logger)
	return c
}

func (c *Controller) View() View {
	return c.conversation.View()
}

// State combines the session state with the dispatch state.
func (c *Controller) State() voice.State {
	if c.conversation.View().Processing {
		return voice.StateAwaitingAssistant
	}
	return c.session.State()
}

// ListeningDone is closed once the current recognition stream has ended.
func (c *Controller) ListeningDone() <-chan struct{} {
	return c.session.Done()
}

// StartListening begins a new recognition stream. A conversation that ended
// with a registered transaction is cleared first.
func (c *Controller) StartListening(ctx context.Context) error {
	if c.conversation.resetIfClosed() {
		c.logger.Info("Chat.StartListening.HistoryCleared")
	}
	if err := c.session.Start(ctx); err != nil {
		c.conversation.RecordError(err)
		return err
	}
	return nil
}

// StopListening ends the stream and dispatches what was said.
func (c *Controller) StopListening(ctx context.Context) error {
	return c.session.Stop(ctx)
}

// Submit adds typed text as a user message and dispatches the episode's
// user messages, the same way StopListening does for speech.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.conversation.resetIfClosed()
	c.conversation.AppendUtterance(text)
	return c.Dispatch(ctx, strings.Join(c.conversation.Utterances(), " "))
}

// Dispatch sends text to the assistant and appends its reply. Only one
// dispatch runs at a time; a second call while one is outstanding fails with
// a Busy error. On failure the history is kept and the error is recorded.
func (c *Controller) Dispatch(ctx context.Context, text string) error {
	const op = "chat.Dispatch"

	if !c.conversation.beginDispatch() {
		return apperr.Busy(op)
	}
	defer c.conversation.endDispatch()

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reply, err := c.assistant.SendMessage(sendCtx, text)
	if err != nil {
		c.logger.WithError(err).Warn("Chat.Dispatch.Error")
		c.conversation.RecordError(err)
		return err
	}

	c.conversation.appendReply(reply.Response, reply.Registered)
	c.logger.WithFields(logrus.Fields{
		"registered": reply.Registered,
		"durationMs": time.Since(start).Milliseconds(),
	}).Info("Chat.Dispatch.Complete")

	if reply.Registered && c.refresher != nil {
		refreshCtx, cancelRefresh := context.WithTimeout(ctx, c.refreshAfter)
		defer cancelRefresh()
		if err := c.refresher.Refresh(refreshCtx); err != nil {
			c.logger.WithError(err).Warn("Chat.Dispatch.Refresh")
		}
	}
	return nil
}
