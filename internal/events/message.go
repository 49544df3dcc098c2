package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecorded is published once per stored transaction.
type TransactionRecorded struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      string          `json:"date"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

func (m TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
