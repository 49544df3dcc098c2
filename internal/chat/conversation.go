package chat

import (
	"sync"
	"time"
)

type Speaker int

const (
	SpeakerUser Speaker = iota
	SpeakerAssistant
)

func (s Speaker) String() string {
	if s == SpeakerAssistant {
		return "assistant"
	}
	return "user"
}

type Message struct {
	Speaker    Speaker
	Text       string
	ProducedAt time.Time
}

// View is a point-in-time copy of the conversation for rendering.
type View struct {
	Messages   []Message
	Partial    string
	Processing bool
	// Closed is set once the assistant registered a transaction; the next
	// start clears the history.
	Closed bool
	Err    error
}

// Conversation holds all state of one chat episode. Every mutation goes
// through one of its methods.
type Conversation struct {
	mu         sync.Mutex
	messages   []Message
	partial    string
	processing bool
	closed     bool
	err        error
	now        func() time.Time
}

func NewConversation(now func() time.Time) *Conversation {
	if now == nil {
		now = time.Now
	}
	return &Conversation{now: now}
}

func (c *Conversation) SetPartial(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partial = text
}

func (c *Conversation) AppendUtterance(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Speaker: SpeakerUser, Text: text, ProducedAt: c.now()})
	c.partial = ""
}

func (c *Conversation) Utterances() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var texts []string
	for _, m := range c.messages {
		if m.Speaker == SpeakerUser {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func (c *Conversation) RecordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// resetIfClosed clears the episode when the previous one ended with a registration.
func (c *Conversation) resetIfClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		return false
	}
	c.messages = nil
	c.partial = ""
	c.closed = false
	c.err = nil
	return true
}

// beginDispatch marks a dispatch as outstanding. It returns false when one already is.
func (c *Conversation) beginDispatch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.processing {
		return false
	}
	c.processing = true
	c.err = nil
	return true
}

func (c *Conversation) endDispatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processing = false
}

func (c *Conversation) appendReply(text string, registered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Speaker: SpeakerAssistant, Text: text, ProducedAt: c.now()})
	if registered {
		c.closed = true
	}
}

func (c *Conversation) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages := make([]Message, len(c.messages))
	copy(messages, c.messages)
	return View{
		Messages:   messages,
		Partial:    c.partial,
		Processing: c.processing,
		Closed:     c.closed,
		Err:        c.err,
	}
}
