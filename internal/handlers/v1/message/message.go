package message

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/time/rate"

	"github.com/carson-networks/finance-assistant/internal/assistant"
	"github.com/carson-networks/finance-assistant/internal/logging"
)

// MessageBody is the request body for a chat message.
type MessageBody struct {
	Message string `json:"message" minLength:"1" doc:"What the user said or typed"`
}

type MessageInput struct {
	Body MessageBody
}

type MessageResponseBody struct {
	Message string `json:"message" doc:"JSON-encoded {response, registered} object"`
}

type MessageOutput struct {
	Body MessageResponseBody
}

type assistantHandler interface {
	Handle(ctx context.Context, message string) (assistant.Reply, error)
}

// Handler handles POST /api/handler/message. A nil Assistant answers 503.
type Handler struct {
	Assistant assistantHandler
	limiter   *rate.Limiter
}

// NewHandler creates a Handler. A nil limiter disables rate limiting.
func NewHandler(a assistantHandler, limiter *rate.Limiter) *Handler {
	return &Handler{Assistant: a, limiter: limiter}
}

func (h *Handler) Register(api huma.API) {
	op := huma.Operation{
		OperationID: "send-message",
		Method:      http.MethodPost,
		Path:        "/api/handler/message",
		Summary:     "Send a message to the assistant",
		Description: "Runs one assistant turn. The reply object is returned JSON-encoded inside message.",
		Tags:        []string{"Assistant"},
	}
	if h.limiter != nil {
		op.Middlewares = huma.Middlewares{h.rateLimit(api)}
	}
	huma.Register(api, op, h.handle)
}

func (h *Handler) rateLimit(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !h.limiter.Allow() {
			ctx.SetHeader("Retry-After", "60")
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "too many messages, try again later")
			return
		}
		next(ctx)
	}
}

func (h *Handler) handle(ctx context.Context, input *MessageInput) (*MessageOutput, error) {
	if h.Assistant == nil {
		return nil, huma.Error503ServiceUnavailable("assistant is not configured")
	}
	logData := logging.GetLogData(ctx)

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("assistantMs")
	}
	reply, err := h.Assistant.Handle(ctx, input.Body.Message)
	if stopTimer != nil {
		stopTimer()
	}
	if errors.Is(err, assistant.ErrEmptyMessage) {
		return nil, huma.Error400BadRequest("message is empty", err)
	}
	if err != nil {
		return nil, huma.Error400BadRequest("assistant failed", err)
	}

	if logData != nil {
		logData.AddData("registered", reply.Registered)
	}

	inner, err := json.Marshal(reply)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to encode reply", err)
	}
	return &MessageOutput{Body: MessageResponseBody{Message: string(inner)}}, nil
}
