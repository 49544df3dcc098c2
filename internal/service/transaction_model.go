package service

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/storage/transaction"
)

// ErrInvalidTransaction wraps every validation failure from CreateTransaction.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction is the service-layer representation of a recorded transaction.
type Transaction struct {
	ID          uuid.UUID
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	OccurredOn  time.Time
	CreatedAt   time.Time
}

// Day formats OccurredOn as YYYY-MM-DD.
func (t Transaction) Day() string {
	return t.OccurredOn.Format(ledger.DateLayout)
}

// TransactionCreate is the input for recording a transaction.
type TransactionCreate struct {
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        string // YYYY-MM-DD, empty for today
	Source      string // "api" or "assistant"
}

func fromStorage(row *transaction.Transaction) Transaction {
	return Transaction{
		ID:          row.ID,
		Kind:        row.Kind,
		Amount:      row.Amount,
		Description: row.Description,
		Category:    row.Category,
		OccurredOn:  row.OccurredOn,
		CreatedAt:   row.CreatedAt,
	}
}
