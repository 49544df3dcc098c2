package service

import (
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/storage"
)

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
}

// NewService creates a new Service with the given storage.
func NewService(store *storage.Storage, op actionProcessor, publisher EventPublisher, logger logrus.FieldLogger) *Service {
	return &Service{
		Transaction: NewTransactionService(store, op, publisher, logger),
	}
}
