package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/carson-networks/finance-assistant/internal/apperr"
)

// Reply is the assistant's answer to one user turn.
type Reply struct {
	Response string `json:"response"`
	// Registered is true when the turn ended with a transaction being recorded.
	Registered bool `json:"registered"`
}

type messageRequest struct {
	Message string `json:"message"`
}

// messageEnvelope carries the reply JSON-encoded a second time inside Message.
type messageEnvelope struct {
	Message string `json:"message"`
}

// SendMessage forwards the user's text to the assistant.
func (c *Client) SendMessage(ctx context.Context, text string) (Reply, error) {
	const op = "gateway.SendMessage"

	var envelope messageEnvelope
	if err := c.do(ctx, op, http.MethodPost, messagePath, messageRequest{Message: text}, &envelope); err != nil {
		return Reply{}, err
	}

	reply, err := decodeReply(envelope.Message)
	if err != nil {
		return Reply{}, apperr.Network(op, err)
	}
	return reply, nil
}

func decodeReply(inner string) (Reply, error) {
	var reply Reply
	if err := json.Unmarshal([]byte(inner), &reply); err != nil {
		return Reply{}, fmt.Errorf("decode assistant reply: %w", err)
	}
	return reply, nil
}
