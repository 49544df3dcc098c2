// Package memory is a process-local transaction table used when no database
// is configured and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-assistant/internal/storage/transaction"
)

var _ transaction.ITransactionTable = (*TransactionsTable)(nil)

type TransactionsTable struct {
	mu   sync.RWMutex
	rows []transaction.Transaction
	now  func() time.Time
}

func NewTransactionsTable(now func() time.Time) *TransactionsTable {
	if now == nil {
		now = time.Now
	}
	return &TransactionsTable{now: now}
}

func (t *TransactionsTable) FindByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.rows {
		if t.rows[i].ID == id {
			row := t.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (t *TransactionsTable) Insert(ctx context.Context, create *transaction.TransactionCreate) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	now := t.now()
	occurredOn := create.OccurredOn.GetOr(now)
	row := transaction.Transaction{
		ID:          id,
		Kind:        create.Kind,
		Amount:      create.Amount,
		Description: create.Description,
		Category:    create.Category,
		OccurredOn:  time.Date(occurredOn.Year(), occurredOn.Month(), occurredOn.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:   now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, row)
	return id, nil
}

// List returns copies of all rows, newest first.
func (t *TransactionsTable) List(ctx context.Context) ([]*transaction.Transaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]*transaction.Transaction, 0, len(t.rows))
	for i := len(t.rows) - 1; i >= 0; i-- {
		row := t.rows[i]
		result = append(result, &row)
	}
	return result, nil
}
