package actions

import (
	"context"
	"errors"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/storage"
	"github.com/carson-networks/finance-assistant/internal/storage/transaction"
)

// CreateTransaction inserts a transaction and reads it back into Result.
type CreateTransaction struct {
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	OccurredOn  time.Time // zero means today

	Result *transaction.Transaction
}

func (t *CreateTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	storageCreate := &transaction.TransactionCreate{
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
	}
	if !t.OccurredOn.IsZero() {
		storageCreate.OccurredOn = omit.From(t.OccurredOn)
	}

	id, err := writer.Transactions.Insert(ctx, storageCreate)
	if err != nil {
		return err
	}

	created, err := writer.Transactions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if created == nil {
		return errors.New("created transaction not found")
	}

	t.Result = created
	return nil
}
