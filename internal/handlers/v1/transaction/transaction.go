package transaction

import (
	"time"

	"github.com/carson-networks/finance-assistant/internal/service"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID          string  `json:"id" doc:"Transaction UUID"`
	Type        string  `json:"type" enum:"ingreso,gasto" doc:"Transaction kind"`
	Amount      float64 `json:"amount" doc:"Amount in soles"`
	Description string  `json:"description" doc:"What the money was for"`
	Category    string  `json:"category" doc:"Free-form category"`
	Date        string  `json:"date" format:"date" doc:"Day the money moved, YYYY-MM-DD"`
	CreatedAt   string  `json:"created_at" format:"date-time" doc:"RFC3339 time the record was stored"`
}

func toAPI(tx service.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID.String(),
		Type:        tx.Kind.APILabel(),
		Amount:      tx.Amount.InexactFloat64(),
		Description: tx.Description,
		Category:    tx.Category,
		Date:        tx.Day(),
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}
