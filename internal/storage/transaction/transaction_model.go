package transaction

import (
	"context"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/ledger"
)

// Transaction represents a transaction record.
type Transaction struct {
	ID          uuid.UUID
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	OccurredOn  time.Time
	CreatedAt   time.Time
}

// TransactionCreate is the input for creating a new transaction.
type TransactionCreate struct {
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	OccurredOn  omit.Val[time.Time] // defaults to the current date when unset
}

// ITransactionTable defines the interface for transaction storage operations.
// List returns the newest transactions first. FindByID returns nil when no row matches.
//
//go:generate mockery --name ITransactionTable --output mock_ITransactionTable.go
type ITransactionTable interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Insert(ctx context.Context, create *TransactionCreate) (uuid.UUID, error)
	List(ctx context.Context) ([]*Transaction, error)
}
