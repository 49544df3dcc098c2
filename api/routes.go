package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/carson-networks/finance-assistant/internal/assistant"
	"github.com/carson-networks/finance-assistant/internal/handlers/v1/message"
	"github.com/carson-networks/finance-assistant/internal/handlers/v1/status"
	"github.com/carson-networks/finance-assistant/internal/handlers/v1/transaction"
	"github.com/carson-networks/finance-assistant/internal/logging"
	"github.com/carson-networks/finance-assistant/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Rest struct {
	Logger  *logrus.Logger
	Port    string
	Service *service.Service
	// Assistant may be nil, in which case the message endpoint answers 503.
	Assistant *assistant.Agent
	// MessagesPerMinute bounds assistant calls. Zero disables the limit.
	MessagesPerMinute int
}

// Handler builds the routed HTTP handler.
func (r *Rest) Handler() http.Handler {
	mux := http.NewServeMux()

	statusHandler := status.NewHandler()
	mux.HandleFunc("/status", logging.LoggingWrapper("Status", r.Logger, statusHandler.Handler))

	api := humago.New(mux, huma.DefaultConfig("finance-assistant", "1.0.0"))
	api.UseMiddleware(logging.Middleware(r.Logger))

	transaction.NewListTransactionsHandler(r.Service.Transaction).Register(api)
	transaction.NewCreateTransactionHandler(r.Service.Transaction).Register(api)

	var limiter *rate.Limiter
	if r.MessagesPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.MessagesPerMinute)), r.MessagesPerMinute)
	}
	// keep a nil *Agent from becoming a non-nil interface
	if r.Assistant != nil {
		message.NewHandler(r.Assistant, limiter).Register(api)
	} else {
		message.NewHandler(nil, limiter).Register(api)
	}

	return mux
}

// Serve listens until ctx is cancelled, then shuts the server down gracefully.
func (r *Rest) Serve(ctx context.Context) error {
	server := http.Server{
		Addr:              ":" + r.Port,
		Handler:           r.Handler(),
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(90) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.Logger.WithField("port", r.Port).Info("HttpServer.Serve.listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
		return err
	case <-ctx.Done():
	}

	r.Logger.Info("HttpServer.Serve.shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
