package sqlconfig

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// transactionRow mirrors a row of the transactions table.
type transactionRow struct {
	ID          uuid.UUID       `db:"id"`
	Kind        int16           `db:"kind"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	OccurredOn  time.Time       `db:"occurred_on"`
	CreatedAt   time.Time       `db:"created_at"`
}
