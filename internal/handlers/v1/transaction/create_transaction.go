package transaction

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/ledger"
	"github.com/carson-networks/finance-assistant/internal/logging"
	"github.com/carson-networks/finance-assistant/internal/service"
)

// CreateTransactionBody is the request body for creating a transaction.
type CreateTransactionBody struct {
	Type        string  `json:"type" minLength:"1" doc:"ingreso or gasto (income and expense are accepted too)"`
	Amount      float64 `json:"amount" minimum:"0" doc:"Amount in soles"`
	Description string  `json:"description" minLength:"1" doc:"What the money was for"`
	Category    string  `json:"category" minLength:"1" doc:"Free-form category"`
	Date        string  `json:"date,omitempty" doc:"YYYY-MM-DD, defaults to today"`
}

// CreateTransactionInput is the Huma input for creating a transaction.
type CreateTransactionInput struct {
	Body CreateTransactionBody
}

// CreateTransactionOutput is the Huma output for creating a transaction.
type CreateTransactionOutput struct {
	Body Transaction
}

type transactionCreator interface {
	CreateTransaction(ctx context.Context, create service.TransactionCreate) (service.Transaction, error)
}

// CreateTransactionHandler handles POST /api/handler/transactions.
type CreateTransactionHandler struct {
	TransactionService transactionCreator
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(svc transactionCreator) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

// Register registers the create transaction endpoint with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "create-transaction",
		Method:      http.MethodPost,
		Path:        "/api/handler/transactions",
		Summary:     "Create transaction",
		Description: "Records an income or expense and returns the stored transaction.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

// parseCreateTransactionInput turns the request body into a service create.
func parseCreateTransactionInput(input *CreateTransactionInput) (service.TransactionCreate, error) {
	kind, err := ledger.ParseKind(input.Body.Type)
	if err != nil {
		return service.TransactionCreate{}, huma.NewError(http.StatusBadRequest, "invalid type", err)
	}
	if input.Body.Date != "" {
		if _, err := ledger.ParseDate(input.Body.Date); err != nil {
			return service.TransactionCreate{}, huma.NewError(http.StatusBadRequest, "invalid date", err)
		}
	}

	return service.TransactionCreate{
		Kind:        kind,
		Amount:      decimal.NewFromFloat(input.Body.Amount),
		Description: input.Body.Description,
		Category:    input.Body.Category,
		Date:        input.Body.Date,
		Source:      "api",
	}, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	create, err := parseCreateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	created, err := h.TransactionService.CreateTransaction(ctx, create)
	if errors.Is(err, service.ErrInvalidTransaction) {
		return nil, huma.NewError(http.StatusBadRequest, "invalid transaction", err)
	}
	if err != nil {
		return nil, huma.NewError(http.StatusInternalServerError, "failed to create transaction", err)
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("transactionID", created.ID.String())
	}
	return &CreateTransactionOutput{Body: toAPI(created)}, nil
}
