package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/events"
	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/operator/actions"
	"github.com/carson-networks/finance-assistant/internal/storage"
)

type actionProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// EventPublisher announces recorded transactions to other systems.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, event events.TransactionRecorded) error
}

// TransactionService handles transaction business logic.
type TransactionService struct {
	storage   *storage.Storage
	operator  actionProcessor
	publisher EventPublisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewTransactionService creates a new TransactionService. publisher may be nil.
func NewTransactionService(store *storage.Storage, op actionProcessor, publisher EventPublisher, logger logrus.FieldLogger) *TransactionService {
	return &TransactionService{
		storage:   store,
		operator:  op,
		publisher: publisher,
		logger:    logger.WithField("component", "transaction_service"),
		now:       time.Now,
	}
}

// ListTransactions returns every transaction, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.storage.Transactions.List(ctx)
	if err != nil {
		return nil, err
	}

	converted := make([]Transaction, len(rows))
	for i, row := range rows {
		converted[i] = fromStorage(row)
	}
	return converted, nil
}

// CreateTransaction validates and records a transaction. Validation failures
// wrap ErrInvalidTransaction. A failed event publish is logged, never returned.
func (s *TransactionService) CreateTransaction(ctx context.Context, create TransactionCreate) (Transaction, error) {
	create.Description = strings.TrimSpace(create.Description)
	create.Category = strings.TrimSpace(create.Category)

	draft := ledger.Draft{
		Kind:        create.Kind,
		Amount:      create.Amount,
		Description: create.Description,
		Category:    create.Category,
		Date:        create.Date,
	}
	if err := draft.Validate(); err != nil {
		return Transaction{}, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	action := &actions.CreateTransaction{
		Kind:        create.Kind,
		Amount:      create.Amount,
		Description: create.Description,
		Category:    create.Category,
	}
	if create.Date != "" {
		day, _ := ledger.ParseDate(create.Date)
		action.OccurredOn = day
	} else {
		now := s.now()
		action.OccurredOn = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if err := s.operator.Process(ctx, action); err != nil {
		return Transaction{}, err
	}
	created := fromStorage(action.Result)

	s.logger.WithFields(logrus.Fields{
		"id":     created.ID.String(),
		"type":   created.Kind.APILabel(),
		"source": create.Source,
	}).Info("TransactionService.CreateTransaction")

	s.publish(ctx, created, create.Source)
	return created, nil
}

func (s *TransactionService) publish(ctx context.Context, created Transaction, source string) {
	if s.publisher == nil {
		return
	}
	event := events.TransactionRecorded{
		ID:        created.ID.String(),
		Type:      created.Kind.APILabel(),
		Amount:    created.Amount,
		Category:  created.Category,
		Date:      created.Day(),
		Source:    source,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, event); err != nil {
		s.logger.WithError(err).WithField("id", event.ID).Warn("TransactionService.publish")
	}
}
