package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-assistant/internal/logging"
	"github.com/carson-networks/finance-assistant/internal/operator"
	"github.com/carson-networks/finance-assistant/internal/service"
	"github.com/carson-networks/finance-assistant/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := logging.SetupLogging("info")
	logger.Out = &logs

	store := storage.NewMemoryStorage()
	op := operator.NewOperatorDelegator(store, 1, logger)
	op.Start()
	t.Cleanup(op.Stop)

	rest := &Rest{
		Logger:            logger,
		Service:           service.NewService(store, op, nil, logger),
		MessagesPerMinute: 5,
	}
	srv := httptest.NewServer(rest.Handler())
	t.Cleanup(srv.Close)
	return srv, &logs
}

func TestRest_Status(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRest_CreateThenList(t *testing.T) {
	srv, logs := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/handler/transactions", "application/json",
		strings.NewReader(`{"type":"gasto","amount":12.50,"description":"almuerzo","category":"comida","date":"2024-01-03"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/handler/transactions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "gasto", rows[0]["type"])
	assert.Equal(t, 12.5, rows[0]["amount"])
	assert.Equal(t, "2024-01-03", rows[0]["date"])
	assert.Contains(t, logs.String(), "Handler.create-transaction.Complete")
}

func TestRest_MessageWithoutAssistant(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/handler/message", "application/json", strings.NewReader(`{"message":"hola"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
