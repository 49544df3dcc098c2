package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/carson-networks/finance-assistant/api"
	"github.com/carson-networks/finance-assistant/internal/assistant"
	"github.com/carson-networks/finance-assistant/internal/config"
	"github.com/carson-networks/finance-assistant/internal/events"
	"github.com/carson-networks/finance-assistant/internal/logging"
	"github.com/carson-networks/finance-assistant/internal/operator"
	"github.com/carson-networks/finance-assistant/internal/service"
	"github.com/carson-networks/finance-assistant/internal/storage"
)

func main() {
	config.LoadDotEnv()

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	logger := logging.SetupLogging(envConfig.LogLevel)
	logger.Info("finance-assistant starting")

	if err := run(envConfig, logger); err != nil {
		logger.WithError(err).Fatal("finance-assistant stopped")
	}
	logger.Info("finance-assistant stopped")
}

func run(envConfig *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbStorage, err := storage.NewStorage(envConfig)
	if err != nil {
		return err
	}
	defer dbStorage.Close()
	logger.WithField("backend", envConfig.StorageBackend).Info("storage.NewStorage")

	op := operator.NewOperatorDelegator(dbStorage, envConfig.OperatorWorkers, logger)
	op.Start()
	defer op.Stop()

	var publisher service.EventPublisher
	if envConfig.AMQPURL != "" {
		amqpPublisher, err := events.NewPublisher(envConfig.AMQPURL, envConfig.AMQPExchange, envConfig.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	svc := service.NewService(dbStorage, op, publisher, logger)

	var agent *assistant.Agent
	if envConfig.GeminiAPIKey != "" {
		model, err := assistant.NewGeminiModel(ctx, assistant.GeminiConfig{
			APIKey: envConfig.GeminiAPIKey,
			Model:  envConfig.AssistantModel,
		})
		if err != nil {
			return err
		}
		agent = assistant.NewAgent(model, svc.Transaction, envConfig.ExchangeRateUSDPEN, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, assistant disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		httpRest := api.Rest{
			Logger:            logger,
			Port:              envConfig.Port,
			Service:           svc,
			Assistant:         agent,
			MessagesPerMinute: envConfig.AssistantRatePerMinute,
		}
		return httpRest.Serve(gctx)
	})

	return g.Wait()
}
