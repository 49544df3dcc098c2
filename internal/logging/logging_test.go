package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedLogger(buf *bytes.Buffer) *logrus.Logger {
	logger := SetupLogging("debug")
	logger.Out = buf
	return logger
}

func TestSetupLogging_Level(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, SetupLogging("warning").Level)
	assert.Equal(t, logrus.InfoLevel, SetupLogging("").Level)
	assert.Equal(t, logrus.InfoLevel, SetupLogging("loud").Level)
}

func TestGetLogData_Missing(t *testing.T) {
	assert.Nil(t, GetLogData(context.Background()))
}

func TestLogData_Fields(t *testing.T) {
	var buf bytes.Buffer
	data := NewLogData(bufferedLogger(&buf))
	data.AddData("count", 3)
	data.AddTiming("lookupMs")()

	data.Log().Info("done")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["loglevel"])
	assert.EqualValues(t, 3, line["count"])
	assert.Contains(t, line, "lookupMs")
}

func TestLogData_AddToExistingTimingAccumulates(t *testing.T) {
	data := NewLogData(logrus.New())
	data.timeItems["toolMs"] = 40

	data.AddToExistingTiming("toolMs")()
	data.AddToExistingTiming("toolMs")()

	assert.GreaterOrEqual(t, data.Log().Data["toolMs"], int64(40))
}

func TestLoggingWrapper_Error(t *testing.T) {
	var buf bytes.Buffer
	handler := LoggingWrapper("Test", bufferedLogger(&buf), func(w http.ResponseWriter, r *http.Request, data *LogData) error {
		assert.Same(t, data, GetLogData(r.Context()))
		w.WriteHeader(http.StatusTeapot)
		return errors.New("nope")
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, buf.String(), "Handler.Test.Error")
}

type pingOutput struct {
	Body struct {
		Found bool `json:"found"`
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	_, api := humatest.New(t)
	api.UseMiddleware(Middleware(bufferedLogger(&buf)))

	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
	}, func(ctx context.Context, _ *struct{}) (*pingOutput, error) {
		out := &pingOutput{}
		if data := GetLogData(ctx); data != nil {
			data.AddData("extra", "yes")
			out.Body.Found = true
		}
		return out, nil
	})

	resp := api.Get("/ping")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"found":true`)
	assert.Contains(t, buf.String(), "Handler.ping.Complete")
	assert.Contains(t, buf.String(), `"extra":"yes"`)
}
