package status

import (
	"errors"
	"net/http"
	"time"

	"github.com/carson-networks/finance-assistant/internal/logging"
)

type Handler struct {
	started time.Time
}

func NewHandler() Handler {
	return Handler{started: time.Now()}
}

func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	logData.AddData("uptimeSeconds", int64(time.Since(h.started).Seconds()))
	w.WriteHeader(http.StatusOK)
	return nil
}
