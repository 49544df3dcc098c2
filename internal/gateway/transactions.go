package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/ledger"
)

// wireID is an identifier the API may send as a JSON string or number.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = wireID(n.String())
	return nil
}

// createdAtLayouts are tried in order when reading created_at.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseCreatedAt(value string) (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// transactionWire is a transaction as the API sends it.
type transactionWire struct {
	ID          wireID          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"created_at"`
}

// createTransactionWire is the create request body. Amount is sent as a JSON number.
type createTransactionWire struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Date        string      `json:"date,omitempty"`
}

func (w transactionWire) toLedger() (ledger.Transaction, error) {
	kind, err := ledger.ParseKind(w.Type)
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx := ledger.Transaction{
		ID:          string(w.ID),
		Kind:        kind,
		Amount:      w.Amount,
		Description: w.Description,
		Category:    w.Category,
		Date:        w.Date,
	}
	if w.CreatedAt != "" {
		if recordedAt, ok := parseCreatedAt(w.CreatedAt); ok {
			tx.RecordedAt = recordedAt
		}
	}
	return tx, nil
}

// FetchTransactions returns every transaction in the order the API lists them.
// Records with an unrecognized type label are skipped.
func (c *Client) FetchTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	const op = "gateway.FetchTransactions"

	var rows []transactionWire
	if err := c.do(ctx, op, http.MethodGet, transactionsPath, nil, &rows); err != nil {
		return nil, err
	}

	transactions := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toLedger()
		if err != nil {
			c.logger.WithError(err).WithField("transactionID", string(row.ID)).Warn("Gateway.FetchTransactions.SkippedRecord")
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// CreateTransaction validates the draft and persists it, returning the stored record.
func (c *Client) CreateTransaction(ctx context.Context, draft ledger.Draft) (ledger.Transaction, error) {
	const op = "gateway.CreateTransaction"

	if err := draft.Validate(); err != nil {
		return ledger.Transaction{}, apperr.Validation(op, err)
	}

	body := createTransactionWire{
		Type:        draft.Kind.APILabel(),
		Amount:      json.Number(draft.Amount.String()),
		Description: draft.Description,
		Category:    draft.Category,
		Date:        draft.Date,
	}

	var created transactionWire
	if err := c.do(ctx, op, http.MethodPost, transactionsPath, body, &created); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && (appErr.Status == http.StatusBadRequest || appErr.Status == http.StatusUnprocessableEntity) {
			return ledger.Transaction{}, &apperr.Error{Kind: apperr.KindValidation, Op: op, Status: appErr.Status}
		}
		return ledger.Transaction{}, err
	}

	tx, err := created.toLedger()
	if err != nil {
		return ledger.Transaction{}, apperr.Network(op, err)
	}
	return tx, nil
}
