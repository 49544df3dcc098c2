package message

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/carson-networks/finance-assistant/internal/assistant"
)

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Handle(ctx context.Context, message string) (assistant.Reply, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(assistant.Reply), args.Error(1)
}

func newTestAPI(t *testing.T, h *Handler) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	h.Register(api)
	return api
}

func TestHTTP_Message_Success(t *testing.T) {
	mockAsst := new(mockAssistant)
	mockAsst.On("Handle", mock.Anything, "gasté 20 en taxi").
		Return(assistant.Reply{Response: "Registrado 🚕", Registered: true}, nil)

	resp := newTestAPI(t, NewHandler(mockAsst, nil)).Post("/api/handler/message", MessageBody{Message: "gasté 20 en taxi"})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body MessageResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	var reply assistant.Reply
	require.NoError(t, json.Unmarshal([]byte(body.Message), &reply))
	assert.Equal(t, assistant.Reply{Response: "Registrado 🚕", Registered: true}, reply)
	mockAsst.AssertExpectations(t)
}

func TestHTTP_Message_EmptyBody(t *testing.T) {
	mockAsst := new(mockAssistant)

	resp := newTestAPI(t, NewHandler(mockAsst, nil)).Post("/api/handler/message", MessageBody{})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockAsst.AssertNotCalled(t, "Handle")
}

func TestHTTP_Message_AssistantError(t *testing.T) {
	mockAsst := new(mockAssistant)
	mockAsst.On("Handle", mock.Anything, "hola").Return(assistant.Reply{}, errors.New("quota exceeded"))

	resp := newTestAPI(t, NewHandler(mockAsst, nil)).Post("/api/handler/message", MessageBody{Message: "hola"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHTTP_Message_NotConfigured(t *testing.T) {
	resp := newTestAPI(t, NewHandler(nil, nil)).Post("/api/handler/message", MessageBody{Message: "hola"})

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHTTP_Message_RateLimited(t *testing.T) {
	mockAsst := new(mockAssistant)
	mockAsst.On("Handle", mock.Anything, "hola").Return(assistant.Reply{Response: "¡Hola!"}, nil).Once()

	api := newTestAPI(t, NewHandler(mockAsst, rate.NewLimiter(rate.Every(time.Hour), 1)))

	first := api.Post("/api/handler/message", MessageBody{Message: "hola"})
	second := api.Post("/api/handler/message", MessageBody{Message: "hola"})

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	mockAsst.AssertExpectations(t)
}
