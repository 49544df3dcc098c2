package sqlconfig

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/storage/transaction"
)

const transactionsTable = "transactions"

var transactionColumns = []any{"id", "kind", "amount", "description", "category", "occurred_on", "created_at"}

var _ transaction.ITransactionTable = (*TransactionsTable)(nil)

type TransactionsTable struct {
	exec bob.Executor
}

func NewTransactionsTable(exec bob.Executor) *TransactionsTable {
	return &TransactionsTable{exec: exec}
}

// FindByID retrieves a transaction by primary key.
func (t *TransactionsTable) FindByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := psql.Select(
		sm.Columns(transactionColumns...),
		sm.From(transactionsTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, query, scan.StructMapper[transactionRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toTransaction(), nil
}

// Insert creates a new transaction and returns its generated ID.
func (t *TransactionsTable) Insert(ctx context.Context, create *transaction.TransactionCreate) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	columns := []string{"id", "kind", "amount", "description", "category"}
	values := []any{id, int16(create.Kind), create.Amount, create.Description, create.Category}
	if occurredOn, ok := create.OccurredOn.Get(); ok {
		columns = append(columns, "occurred_on")
		values = append(values, occurredOn)
	}

	query := psql.Insert(
		im.Into(transactionsTable, columns...),
		im.Values(psql.Arg(values...)),
	)
	if _, err := bob.Exec(ctx, t.exec, query); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// List returns all transactions, newest first.
func (t *TransactionsTable) List(ctx context.Context) ([]*transaction.Transaction, error) {
	query := psql.Select(
		sm.Columns(transactionColumns...),
		sm.From(transactionsTable),
		sm.OrderBy(psql.Quote("created_at")).Desc(),
		sm.OrderBy(psql.Quote("id")).Desc(),
	)
	rows, err := bob.All(ctx, t.exec, query, scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*transaction.Transaction, len(rows))
	for i, row := range rows {
		result[i] = row.toTransaction()
	}
	return result, nil
}

func (r transactionRow) toTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		ID:          r.ID,
		Kind:        ledger.Kind(r.Kind),
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		OccurredOn:  r.OccurredOn,
		CreatedAt:   r.CreatedAt,
	}
}
